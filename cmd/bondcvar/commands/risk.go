package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bondcvar/internal/bond"
	"github.com/wonny/bondcvar/internal/curve"
	"github.com/wonny/bondcvar/internal/report"
	"github.com/wonny/bondcvar/internal/risk"
	"github.com/wonny/bondcvar/internal/simulation"
)

// riskCmd represents the risk command
var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Scenario VaR/CVaR, stress suite and limit check",
	Long: `Revalues the universe (at its current weights) under stochastic curve
scenarios and reports historical and parametric VaR/CVaR, the deterministic
stress suite, DV01 attribution and the risk limit check.

Example:
  go run ./cmd/bondcvar risk
  go run ./cmd/bondcvar risk --scenarios 2000 --stress 0.02 --out final_reports`,
	RunE: runRisk,
}

var (
	riskScenarios int
	riskStress    float64
	riskOut       string
)

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.Flags().IntVar(&riskScenarios, "scenarios", 0, "scenario count (default: SCENARIO_COUNT)")
	riskCmd.Flags().Float64Var(&riskStress, "stress", 0.01, "stress shock magnitude (decimal)")
	riskCmd.Flags().StringVar(&riskOut, "out", "", "write report files to this directory")
}

func runRisk(cmd *cobra.Command, args []string) error {
	started := time.Now()

	a, err := newApp()
	if err != nil {
		return err
	}
	if riskScenarios > 0 {
		a.cfg.Scenario.Count = riskScenarios
	}

	PrintRunHeader(RunMetadata{
		Title:     "Scenario Risk",
		Bonds:     a.universe.Len(),
		Scenarios: a.cfg.Scenario.Count,
		Seed:      a.cfg.Scenario.Seed,
		Curve:     a.base.String(),
	})

	r, mc, err := a.riskReport(cmd.Context(), a.universe, riskStress, nil)
	if err != nil {
		return err
	}

	report.NewPrinter(os.Stdout).Print(r)
	printMonteCarlo(mc)

	if riskOut != "" {
		if err := a.writeReport(riskOut, r); err != nil {
			return err
		}
	}

	PrintCompletion("Risk analysis", started)
	return nil
}

// riskReport runs Monte Carlo, the stress suite and the limit check for u
func (a *app) riskReport(ctx context.Context, u bond.Universe, stressMagnitude float64, history []simulation.StepRecord) (*report.Report, *risk.MonteCarloResult, error) {
	mc, dist, err := a.engine.MonteCarlo(ctx, u, a.base, a.monteCarloConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("monte carlo: %w", err)
	}

	suite := a.engine.StressSuite(u, a.generator(), stressMagnitude)
	check := a.engine.CheckLimits(dist, suite, a.riskLimits())
	if !check.Passed {
		a.log.WithField("violations", check.Violations).Warn("Risk limits breached")
	}

	r := report.Build(report.Input{
		RunID:         mc.RunID,
		MandateHash:   a.mandateHash,
		Universe:      u,
		Contributions: a.engine.RiskContribution(u),
		Losses:        dist,
		Confidence:    a.cfg.Scenario.Confidence,
		StressPnL:     suite[string(curve.ShockParallel)].PnL,
		StressSuite:   suite,
		Check:         check,
		History:       history,
	})
	return r, mc, nil
}

func (a *app) writeReport(dir string, r *report.Report) error {
	w, err := report.NewWriter(dir, a.log)
	if err != nil {
		return err
	}
	paths, err := w.WriteAll(r)
	if err != nil {
		return err
	}
	for _, p := range paths {
		PrintSuccess("Saved " + p)
	}
	return nil
}

func printMonteCarlo(mc *risk.MonteCarloResult) {
	widths := []int{12, 16, 16, 16, 16}
	fmt.Println()
	PrintTableHeader([]string{"Confidence", "VaR", "CVaR", "Param VaR", "Param CVaR"}, widths)
	for i, h := range mc.Historical {
		p := mc.Parametric[i]
		PrintTableRow([]string{
			pct(h.Confidence),
			money(h.VaR),
			money(h.CVaR),
			money(p.VaR),
			money(p.CVaR),
		}, widths)
	}
	PrintSeparator()
	PrintKeyValue("Mean loss", money(mc.MeanLoss), 10)
	PrintKeyValue("Std dev", money(mc.StdDev), 10)
	PrintKeyValue("P99 loss", money(mc.Percentiles[99]), 10)
}
