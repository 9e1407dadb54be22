package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bondcvar/internal/constraints"
	"github.com/wonny/bondcvar/internal/report"
	"github.com/wonny/bondcvar/internal/simulation"
	"github.com/wonny/bondcvar/internal/universe"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Full pipeline: optimize, risk, stress, simulate, report",
	Long: `Runs the whole pipeline end to end:
  1. Load universe, mandate and base curve
     (without --mandate/MANDATE_FILE: 7.5y target duration, 40% max weight,
     the same mandate as mandate.example.yaml)
  2. Generate scenarios and optimize CVaR
  3. Scenario risk and stress suite on the optimal book
  4. Multi-period rebalancing simulation
  5. Print and export the report (REPORT_DIR)

Example:
  go run ./cmd/bondcvar run
  go run ./cmd/bondcvar run --mandate mandate.yaml --out final_reports`,
	RunE: runPipeline,
}

var (
	runOut    string
	runStress float64
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runOut, "out", "", "report directory (default: REPORT_DIR)")
	runCmd.Flags().Float64Var(&runStress, "stress", 0.01, "stress shock magnitude (decimal)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	started := time.Now()

	a, err := newApp()
	if err != nil {
		return err
	}
	if runOut != "" {
		a.cfg.ReportDir = runOut
	}
	if a.cfg.MandateFile == "" {
		if err := a.setMandate(constraints.ReferenceMandate()); err != nil {
			return err
		}
		PrintInfo("No mandate given: target duration 7.5y, max weight 40%")
	}

	PrintRunHeader(RunMetadata{
		Title:     "bondcvar Pipeline",
		Bonds:     a.universe.Len(),
		Scenarios: a.cfg.Scenario.Count,
		Seed:      a.cfg.Scenario.Seed,
		Curve:     a.base.String(),
	})

	// 1. Optimize
	fmt.Println("[1/4] Optimization")
	opt, err := a.optimizer().Optimize(a.universe, a.scenarios(), a.cfg.Scenario.Confidence)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	printAllocation(a, opt)
	optimal := universe.WithWeights(a.universe, opt.Weights)

	// 2. Simulate
	fmt.Println()
	fmt.Println("[2/4] Simulation")
	sim := simulation.NewSimulator(a.optimizer(), a.log)
	simResult, err := sim.Run(cmd.Context(), a.base, optimal, opt.Weights, a.simulationConfig())
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	PrintKeyValue("Steps", fmt.Sprintf("%d", len(simResult.History)), 14)
	PrintKeyValue("Total turnover", pct(simResult.TotalTurnover()), 14)

	// 3. Risk on the optimal book
	fmt.Println()
	fmt.Println("[3/4] Risk analytics")
	r, mc, err := a.riskReport(cmd.Context(), optimal, runStress, simResult.History)
	if err != nil {
		return err
	}
	report.NewPrinter(os.Stdout).Print(r)
	printMonteCarlo(mc)

	// 4. Export
	fmt.Println()
	fmt.Println("[4/4] Report export")
	if err := a.writeReport(a.cfg.ReportDir, r); err != nil {
		return err
	}

	cache := a.engine.Cache().Stats()
	a.log.Debugf("Cash flow cache: %d entries, hit rate %.2f", cache.Entries, cache.HitRate())

	PrintCompletion("Pipeline", started)
	return nil
}
