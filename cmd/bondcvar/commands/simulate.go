package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bondcvar/internal/report"
	"github.com/wonny/bondcvar/internal/simulation"
	"github.com/wonny/bondcvar/internal/universe"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Multi-period rebalancing simulation",
	Long: `Walks a stochastic curve path, ageing the book and re-optimizing at each
step, and prints turnover, duration and benchmark yield per step.

Example:
  go run ./cmd/bondcvar simulate
  go run ./cmd/bondcvar simulate --steps 12 --step-years 0.5`,
	RunE: runSimulate,
}

var (
	simulateSteps     int
	simulateStepYears float64
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntVar(&simulateSteps, "steps", -1, "rebalancing steps (default: SIM_STEPS)")
	simulateCmd.Flags().Float64Var(&simulateStepYears, "step-years", 0, "years per step (default: SIM_STEP_YEARS)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	started := time.Now()

	a, err := newApp()
	if err != nil {
		return err
	}
	cfg := a.simulationConfig()
	if simulateSteps >= 0 {
		cfg.Steps = simulateSteps
	}
	if simulateStepYears > 0 {
		cfg.StepYears = simulateStepYears
	}

	PrintRunHeader(RunMetadata{
		Title:     "Rebalancing Simulation",
		Bonds:     a.universe.Len(),
		Scenarios: cfg.LocalScenarios,
		Seed:      cfg.Seed,
		Curve:     a.base.String(),
	})

	sim := simulation.NewSimulator(a.optimizer(), a.log)
	res, err := sim.Run(cmd.Context(), a.base, a.universe, universe.Weights(a.universe), cfg)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	printSimulation(res)
	PrintCompletion("Simulation", started)
	return nil
}

func printSimulation(res *simulation.Result) {
	report.NewPrinter(os.Stdout).History(&report.Report{History: res.History})
	PrintSeparator()
	PrintKeyValue("Run ID", res.RunID, 14)
	PrintKeyValue("Total turnover", pct(res.TotalTurnover()), 14)
	for i, b := range res.FinalUniverse.Bonds {
		PrintKeyValue(b.ID, fmt.Sprintf("%s  (%gY left)", pct(res.FinalWeights[i]), b.Maturity), 14)
	}
}
