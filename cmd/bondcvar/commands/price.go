package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bondcvar/internal/bond"
)

// priceCmd represents the price command
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Single-bond yield and risk metrics",
	Long: `Solves yield to maturity and prints duration, convexity and DV01 for one
bond, either taken from the universe (--id) or described by flags.

Example:
  go run ./cmd/bondcvar price --id UST10Y
  go run ./cmd/bondcvar price --coupon 0.045 --maturity 10 --price 1025
  go run ./cmd/bondcvar price --coupon 0.05 --maturity 5 --price 1000 \
      --last-coupon 2024-01-15 --settle 2024-03-31`,
	RunE: runPrice,
}

var (
	priceID         string
	pricePrincipal  float64
	priceCoupon     float64
	priceFrequency  int
	priceMaturity   float64
	priceMarket     float64
	priceLastCoupon string
	priceSettle     string
)

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().StringVar(&priceID, "id", "", "bond id from the universe")
	priceCmd.Flags().Float64Var(&pricePrincipal, "principal", 1000, "face value")
	priceCmd.Flags().Float64Var(&priceCoupon, "coupon", 0.05, "annual coupon rate (decimal)")
	priceCmd.Flags().IntVar(&priceFrequency, "freq", 2, "coupons per year")
	priceCmd.Flags().Float64Var(&priceMaturity, "maturity", 10, "years to maturity")
	priceCmd.Flags().Float64Var(&priceMarket, "price", 1000, "market price")
	priceCmd.Flags().StringVar(&priceLastCoupon, "last-coupon", "", "last coupon date (YYYY-MM-DD) for accrued interest")
	priceCmd.Flags().StringVar(&priceSettle, "settle", "", "settlement date (YYYY-MM-DD, default: today)")
}

func runPrice(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	var b bond.Bond
	if priceID != "" {
		i := a.universe.Index(priceID)
		if i < 0 {
			return fmt.Errorf("bond %q not in universe", priceID)
		}
		b = a.universe.Bonds[i]
	} else {
		b, err = bond.New("CLI", pricePrincipal, priceCoupon, priceFrequency, priceMaturity, priceMarket, 1)
		if err != nil {
			return err
		}
	}

	analytics := a.engine.Analytics()
	m := analytics.RiskMetrics(b)
	if !m.Converged {
		PrintWarning(fmt.Sprintf("yield solver stopped after %d iterations without converging", m.Iterations))
	}

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s  %.3f%% %gY @ %.2f\n", b.ID, b.Coupon*100, b.Maturity, b.MarketPrice)
	PrintSeparator()
	PrintKeyValue("YTM", fmt.Sprintf("%.4f%%", m.YTM*100), 18)
	PrintKeyValue("Curve yield", fmt.Sprintf("%.4f%%", a.base.Yield(b.Maturity)*100), 18)
	PrintKeyValue("Model price", money(analytics.PriceAt(b, a.base.Yield(b.Maturity))), 18)
	PrintKeyValue("Macaulay duration", fmt.Sprintf("%.4f", m.MacaulayDuration), 18)
	PrintKeyValue("Modified duration", fmt.Sprintf("%.4f", m.ModifiedDuration), 18)
	PrintKeyValue("Convexity", fmt.Sprintf("%.4f", m.Convexity), 18)
	PrintKeyValue("DV01", fmt.Sprintf("%.6f", m.DV01), 18)

	if priceLastCoupon != "" {
		last, err := time.Parse("2006-01-02", priceLastCoupon)
		if err != nil {
			return fmt.Errorf("invalid last coupon date: %w", err)
		}
		settle := time.Now()
		if priceSettle != "" {
			settle, err = time.Parse("2006-01-02", priceSettle)
			if err != nil {
				return fmt.Errorf("invalid settle date: %w", err)
			}
		}
		PrintKeyValue("Accrued (ACT/360)", money(bond.AccruedInterest(b.Principal, b.Coupon, last, settle)), 18)
	}
	PrintSeparator()

	return nil
}
