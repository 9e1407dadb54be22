package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/bondcvar/internal/curve"
)

// curveCmd represents the curve command
var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Base curve and deterministic shocks",
	Long: `Prints the Nelson-Siegel base curve on the standard tenor grid next to
each deterministic shock (parallel, steepener, flattener).

Example:
  go run ./cmd/bondcvar curve
  go run ./cmd/bondcvar curve --shock 0.02`,
	RunE: runCurve,
}

var curveShock float64

func init() {
	rootCmd.AddCommand(curveCmd)
	curveCmd.Flags().Float64Var(&curveShock, "shock", 0.01, "shock magnitude (decimal, 0.01 = 100bp)")
}

func runCurve(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	gen := a.generator()
	columns := []string{"Tenor", "Base"}
	curves := []curve.Curve{a.base}
	for _, kind := range curve.ShockKinds {
		shocked, err := gen.ApplyShock(kind, curveShock)
		if err != nil {
			return fmt.Errorf("apply %s: %w", kind, err)
		}
		columns = append(columns, string(kind))
		curves = append(curves, shocked)
	}

	widths := make([]int, len(columns))
	for i := range widths {
		widths[i] = 10
	}

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", a.base)
	PrintDoubleSeparator()
	PrintTableHeader(columns, widths)
	for _, tenor := range curve.Tenors {
		row := []string{fmt.Sprintf("%gY", tenor)}
		for _, c := range curves {
			row = append(row, fmt.Sprintf("%.4f%%", c.Yield(tenor)*100))
		}
		PrintTableRow(row, widths)
	}
	PrintSeparator()
	PrintKeyValue("Benchmark (10Y)", pct(a.base.Benchmark()), 16)

	return nil
}
