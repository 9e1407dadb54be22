package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/bondcvar/internal/bond"
	"github.com/wonny/bondcvar/internal/curve"
)

var (
	ErrEmptyUniverse = errors.New("empty universe")
	ErrNoScenarios   = errors.New("no scenarios")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// =============================================================================
// Engine - scenario valuation on top of bond analytics
// =============================================================================

// Engine prices a universe under scenario curves and reduces to risk figures.
// ⭐ SSOT: the schedule cache it owns is shared with the optimizer and simulator;
// callers that age maturities must Clear it.
type Engine struct {
	cache     *bond.CashFlowCache
	analytics bond.Analytics
}

// NewEngine creates an engine. A nil cache gets a fresh one.
func NewEngine(cache *bond.CashFlowCache) *Engine {
	if cache == nil {
		cache = bond.NewCashFlowCache()
	}
	return &Engine{
		cache:     cache,
		analytics: bond.NewAnalytics(cache),
	}
}

// Cache returns the shared schedule cache
func (e *Engine) Cache() *bond.CashFlowCache {
	return e.cache
}

// Analytics returns cache-backed bond analytics
func (e *Engine) Analytics() bond.Analytics {
	return e.analytics
}

// =============================================================================
// Scenario pricing (bulk)
// =============================================================================

// PriceMatrix prices every bond under every scenario.
// Rows are scenarios, columns are bonds in universe order.
// Each bond is discounted at the scenario yield for its own maturity.
func (e *Engine) PriceMatrix(u bond.Universe, scenarios []curve.Curve) *mat.Dense {
	cols := u.Columns()
	n, s := cols.Len(), len(scenarios)
	if n == 0 || s == 0 {
		return nil
	}

	schedules := make([]bond.Schedule, n)
	for j := 0; j < n; j++ {
		schedules[j] = e.analytics.Schedule(cols.Terms(j))
	}

	prices := mat.NewDense(s, n, nil)
	for i, c := range scenarios {
		yields := c.Yields(cols.Maturity)
		for j := 0; j < n; j++ {
			prices.Set(i, j, bond.Price(yields[j], schedules[j], cols.Frequency[j]))
		}
	}
	return prices
}

// LossDistribution returns base value minus scenario value for each scenario
func (e *Engine) LossDistribution(u bond.Universe, scenarios []curve.Curve) LossDistribution {
	base := u.BaseValue()
	prices := e.PriceMatrix(u, scenarios)
	if prices == nil {
		return LossDistribution{Losses: make([]float64, len(scenarios)), BaseValue: base}
	}

	qty := mat.NewVecDense(u.Len(), u.Columns().Quantity)
	values := mat.NewVecDense(len(scenarios), nil)
	values.MulVec(prices, qty)

	losses := make([]float64, len(scenarios))
	for i := range losses {
		losses[i] = base - values.AtVec(i)
	}
	return LossDistribution{Losses: losses, BaseValue: base}
}

// UnitLossMatrix returns per-bond fractional losses (p0 - ps) / max(p0, 0.01).
// Rows are scenarios, columns are bonds. This is the linear loss model the
// optimizer minimizes CVaR over.
func (e *Engine) UnitLossMatrix(u bond.Universe, scenarios []curve.Curve) *mat.Dense {
	prices := e.PriceMatrix(u, scenarios)
	if prices == nil {
		return nil
	}

	s, n := prices.Dims()
	p0 := make([]float64, n)
	for j, b := range u.Bonds {
		p0[j] = b.FlooredPrice()
	}

	unit := mat.NewDense(s, n, nil)
	unit.Apply(func(i, j int, v float64) float64 {
		return (p0[j] - v) / p0[j]
	}, prices)
	return unit
}

// =============================================================================
// Attribution
// =============================================================================

// RiskContribution splits portfolio DV01 by bond using market-implied sensitivities
func (e *Engine) RiskContribution(u bond.Universe) []Contribution {
	contributions := make([]Contribution, u.Len())

	var total float64
	for i, b := range u.Bonds {
		m := e.analytics.RiskMetrics(b)
		dv01 := m.DV01 * b.Quantity
		total += dv01

		contributions[i] = Contribution{
			ID:               b.ID,
			DV01Contribution: dv01,
			ModifiedDuration: m.ModifiedDuration,
			Convexity:        m.Convexity,
			Weight:           b.Weight,
		}
	}

	if total != 0 {
		for i := range contributions {
			contributions[i].DV01Pct = contributions[i].DV01Contribution / total
		}
	}
	return contributions
}

// =============================================================================
// Stress Test
// =============================================================================

// StressTest revalues the universe on a stressed curve and returns P&L
// (stress value - market value); negative means a loss.
func (e *Engine) StressTest(u bond.Universe, stressed curve.Curve) float64 {
	var pnl float64
	for _, b := range u.Bonds {
		y := stressed.Yield(b.Maturity)
		p := bond.Price(y, e.analytics.Schedule(b.Terms()), b.Frequency)
		pnl += (p - b.MarketPrice) * b.Quantity
	}
	return pnl
}

// StressSuite runs every deterministic shock at the given magnitude.
// Results are keyed by shock name.
func (e *Engine) StressSuite(u bond.Universe, gen *curve.Generator, magnitude float64) map[string]StressResult {
	results := make(map[string]StressResult, len(curve.ShockKinds))

	for _, kind := range curve.ShockKinds {
		stressed, err := gen.ApplyShock(kind, magnitude)
		if err != nil {
			continue
		}
		results[string(kind)] = StressResult{
			Name:      string(kind),
			Magnitude: magnitude,
			PnL:       e.StressTest(u, stressed),
		}
	}
	return results
}

// SortedStress returns suite results ordered from worst to best P&L
func SortedStress(results map[string]StressResult) []StressResult {
	out := make([]StressResult, 0, len(results))
	for _, r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PnL == out[j].PnL {
			return out[i].Name < out[j].Name
		}
		return out[i].PnL < out[j].PnL
	})
	return out
}

// =============================================================================
// Risk Check
// =============================================================================

// CheckLimits compares the loss distribution and stress results against limits.
// Figures are expressed as a fraction of base value.
func (e *Engine) CheckLimits(dist LossDistribution, stress map[string]StressResult, limits RiskLimits) *RiskCheckResult {
	result := &RiskCheckResult{
		Passed:       true,
		MaxVaRLimit:  limits.MaxVaRPct,
		MaxCVaRLimit: limits.MaxCVaRPct,
		Violations:   make([]string, 0),
		CheckedAt:    time.Now(),
	}

	base := dist.BaseValue
	if base <= 0 {
		result.Passed = false
		result.Violations = append(result.Violations, "base value must be > 0")
		return result
	}

	summary := Summarize(dist.Losses, limits.Confidence)
	result.VaRPct = summary.VaR / base
	result.CVaRPct = summary.CVaR / base

	if result.VaRPct > limits.MaxVaRPct {
		result.Passed = false
		result.Violations = append(result.Violations,
			fmt.Sprintf("VaR %.4f exceeds limit %.4f", result.VaRPct, limits.MaxVaRPct))
	}

	if result.CVaRPct > limits.MaxCVaRPct {
		result.Passed = false
		result.Violations = append(result.Violations,
			fmt.Sprintf("CVaR %.4f exceeds limit %.4f", result.CVaRPct, limits.MaxCVaRPct))
	}

	for _, r := range SortedStress(stress) {
		result.WorstStress = math.Max(result.WorstStress, -r.PnL/base)
	}
	if limits.MaxStressPct > 0 && result.WorstStress > limits.MaxStressPct {
		result.Passed = false
		result.Violations = append(result.Violations,
			fmt.Sprintf("stress loss %.4f exceeds limit %.4f", result.WorstStress, limits.MaxStressPct))
	}

	return result
}

// ValidateConfig checks a Monte Carlo configuration
func ValidateConfig(config MonteCarloConfig) error {
	if config.NumScenarios <= 0 {
		return fmt.Errorf("%w: NumScenarios must be > 0", ErrInvalidConfig)
	}
	if config.Volatility < 0 {
		return fmt.Errorf("%w: Volatility must be >= 0", ErrInvalidConfig)
	}
	if len(config.Confidence) == 0 {
		return fmt.Errorf("%w: Confidence cannot be empty", ErrInvalidConfig)
	}
	for _, cl := range config.Confidence {
		if cl <= 0 || cl >= 1 {
			return fmt.Errorf("%w: Confidence must be between 0 and 1", ErrInvalidConfig)
		}
	}
	return nil
}
