package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bondcvar/internal/optimizer"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Minimum-CVaR allocation under the mandate",
	Long: `Generates stochastic curve scenarios and solves for the weights that
minimize scenario CVaR subject to the mandate (budget, weight bounds,
duration and convexity targets).

Example:
  go run ./cmd/bondcvar optimize
  go run ./cmd/bondcvar optimize --mandate mandate.yaml --confidence 0.99`,
	RunE: runOptimize,
}

var optimizeConfidence float64

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.Flags().Float64Var(&optimizeConfidence, "confidence", 0, "CVaR confidence (default: CONFIDENCE_LEVEL)")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	started := time.Now()

	a, err := newApp()
	if err != nil {
		return err
	}
	if optimizeConfidence > 0 {
		a.cfg.Scenario.Confidence = optimizeConfidence
	}

	PrintRunHeader(RunMetadata{
		Title:     "CVaR Optimization",
		Bonds:     a.universe.Len(),
		Scenarios: a.cfg.Scenario.Count,
		Seed:      a.cfg.Scenario.Seed,
		Curve:     a.base.String(),
	})

	res, err := a.optimizer().Optimize(a.universe, a.scenarios(), a.cfg.Scenario.Confidence)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	printAllocation(a, res)
	PrintCompletion("Optimization", started)
	return nil
}

func printAllocation(a *app, res *optimizer.Result) {
	ch := a.optimizer().Manager().Characteristics(a.universe)

	widths := []int{10, 10, 10, 10}
	fmt.Println()
	PrintTableHeader([]string{"Bond ID", "Before", "Optimal", "Duration"}, widths)
	for i, b := range a.universe.Bonds {
		PrintTableRow([]string{
			b.ID,
			pct(b.Weight),
			pct(res.Weights[i]),
			fmt.Sprintf("%.4f", ch.ModifiedDuration[i]),
		}, widths)
	}
	PrintSeparator()

	PrintKeyValue("CVaR", pct(res.CVaR), 12)
	PrintKeyValue("VaR (alpha)", pct(res.Alpha), 12)
	PrintKeyValue("Solver", fmt.Sprintf("%s (%s, %d iterations)", res.Solver, res.Status, res.Iterations), 12)

	if res.Status != optimizer.StatusOptimal {
		PrintWarning("exact LP unavailable, penalty solver result")
	}
	if res.Violations.Compliant() {
		PrintSuccess("Mandate satisfied")
		return
	}
	for _, v := range res.Violations {
		PrintWarning(fmt.Sprintf("%s: %.6f", v.Kind, v.Magnitude))
	}
}
