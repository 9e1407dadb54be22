package risk

import "time"

// =============================================================================
// VaR/CVaR Types
// =============================================================================

// VaRResult is a VaR/CVaR pair at one confidence level
// ⭐ SSOT: both figures are losses, in currency units of the portfolio
type VaRResult struct {
	Confidence float64 `json:"confidence"` // e.g. 0.95, 0.99
	VaR        float64 `json:"var"`        // linear-interpolated loss percentile
	CVaR       float64 `json:"cvar"`       // mean of losses >= VaR (Expected Shortfall)
}

// LossDistribution is the scenario-by-scenario portfolio loss
// ⭐ SSOT: loss = base value - scenario value, positive means money lost
type LossDistribution struct {
	Losses    []float64 `json:"losses"`     // one per scenario, scenario order
	BaseValue float64   `json:"base_value"` // sum(market price x quantity)
}

// =============================================================================
// Attribution / Stress Types
// =============================================================================

// Contribution is one bond's share of portfolio rate risk
type Contribution struct {
	ID               string  `json:"id"`
	DV01Contribution float64 `json:"dv01_contribution"` // DV01 x quantity
	ModifiedDuration float64 `json:"mod_duration"`
	Convexity        float64 `json:"convexity"`
	Weight           float64 `json:"weight"`
	DV01Pct          float64 `json:"dv01_pct"` // share of total DV01 (0 when total is 0)
}

// StressResult is the P&L of the current portfolio under one named curve
type StressResult struct {
	Name      string  `json:"name"`
	Magnitude float64 `json:"magnitude"`
	PnL       float64 `json:"pnl"` // positive = gain
}

// =============================================================================
// Risk Check Types
// =============================================================================

// RiskLimits caps VaR/CVaR as a fraction of base value
type RiskLimits struct {
	Confidence   float64 `json:"confidence"`
	MaxVaRPct    float64 `json:"max_var_pct"`    // e.g. 0.05 = 5% of base value
	MaxCVaRPct   float64 `json:"max_cvar_pct"`   // e.g. 0.07
	MaxStressPct float64 `json:"max_stress_pct"` // worst stress loss allowed (0 = unchecked)
}

// DefaultRiskLimits returns the standard limits
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		Confidence:   0.95,
		MaxVaRPct:    0.05, // 5% VaR
		MaxCVaRPct:   0.07, // 7% CVaR
		MaxStressPct: 0.10, // 10% stress loss
	}
}

// RiskCheckResult reports a limit check
type RiskCheckResult struct {
	Passed       bool      `json:"passed"`
	VaRPct       float64   `json:"var_pct"`
	CVaRPct      float64   `json:"cvar_pct"`
	WorstStress  float64   `json:"worst_stress_pct"` // worst stress loss as fraction of base (positive = loss)
	MaxVaRLimit  float64   `json:"max_var_limit"`
	MaxCVaRLimit float64   `json:"max_cvar_limit"`
	Violations   []string  `json:"violations"`
	CheckedAt    time.Time `json:"checked_at"`
}

// =============================================================================
// Monte Carlo Types
// =============================================================================

// MonteCarloConfig controls a full scenario risk run
// ⭐ SSOT: every input needed to reproduce the run is recorded here
type MonteCarloConfig struct {
	NumScenarios int       `json:"num_scenarios"` // default 500
	Volatility   float64   `json:"volatility"`    // factor shock std dev
	Seed         int64     `json:"seed"`          // explicit; same seed -> same result
	Confidence   []float64 `json:"confidence"`    // e.g. [0.95, 0.99]
}

// DefaultMonteCarloConfig returns the standard run settings
func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{
		NumScenarios: 500,
		Volatility:   0.008,
		Seed:         42,
		Confidence:   []float64{0.95, 0.99},
	}
}

// MonteCarloResult summarizes a scenario risk run
type MonteCarloResult struct {
	RunID       string           `json:"run_id"`
	Config      MonteCarloConfig `json:"config"`
	BaseValue   float64          `json:"base_value"`
	MeanLoss    float64          `json:"mean_loss"`
	StdDev      float64          `json:"std_dev"`
	Historical  []VaRResult      `json:"historical"` // one per confidence, config order
	Parametric  []VaRResult      `json:"parametric"` // normal approximation, same order
	Percentiles map[int]float64  `json:"percentiles"`
	CreatedAt   time.Time        `json:"created_at"`
}
