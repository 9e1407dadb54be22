package report

import (
	"time"

	"github.com/wonny/bondcvar/internal/bond"
	"github.com/wonny/bondcvar/internal/risk"
	"github.com/wonny/bondcvar/internal/simulation"
)

// =============================================================================
// Report Types
// =============================================================================

// Report bundles every output table of one run
// ⭐ SSOT: tables are in-memory values; Writer and Printer only render them
type Report struct {
	RunID       string                  `json:"run_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	MandateHash string                  `json:"mandate_hash,omitempty"`
	Portfolio   []PortfolioRow          `json:"portfolio"`
	Risk        RiskMetrics             `json:"risk"`
	History     []simulation.StepRecord `json:"history,omitempty"`
}

// PortfolioRow merges holdings with rate-risk attribution
type PortfolioRow struct {
	ID               string  `json:"id"`
	Price            float64 `json:"market_price"`
	Weight           float64 `json:"weight"`
	ModifiedDuration float64 `json:"mod_duration"`
	DV01Pct          float64 `json:"dv01_pct"`
}

// RiskMetrics is the scenario risk summary
type RiskMetrics struct {
	Confidence float64               `json:"confidence"`
	BaseValue  float64               `json:"base_value"`
	VaR        float64               `json:"var"`
	CVaR       float64               `json:"cvar"`
	StressPnL  float64               `json:"stress_pnl"` // headline parallel shock
	Parametric *risk.VaRResult       `json:"parametric,omitempty"`
	Stress     []risk.StressResult   `json:"stress,omitempty"`
	Check      *risk.RiskCheckResult `json:"limit_check,omitempty"`
}

// Input is everything Build needs; optional parts may be zero
type Input struct {
	RunID         string
	MandateHash   string
	Universe      bond.Universe
	Contributions []risk.Contribution
	Losses        risk.LossDistribution
	Confidence    float64
	StressPnL     float64
	StressSuite   map[string]risk.StressResult
	Check         *risk.RiskCheckResult
	History       []simulation.StepRecord
}

// Build assembles the report tables
func Build(in Input) *Report {
	summary := risk.Summarize(in.Losses.Losses, in.Confidence)

	r := &Report{
		RunID:       in.RunID,
		GeneratedAt: time.Now(),
		MandateHash: in.MandateHash,
		Portfolio:   PortfolioSummary(in.Universe, in.Contributions),
		Risk: RiskMetrics{
			Confidence: in.Confidence,
			BaseValue:  in.Losses.BaseValue,
			VaR:        summary.VaR,
			CVaR:       summary.CVaR,
			StressPnL:  in.StressPnL,
			Check:      in.Check,
		},
		History: in.History,
	}

	if len(in.Losses.Losses) >= 2 {
		p := risk.ParametricVaR(in.Losses.Losses, in.Confidence)
		r.Risk.Parametric = &p
	}
	if len(in.StressSuite) > 0 {
		r.Risk.Stress = risk.SortedStress(in.StressSuite)
	}

	return r
}

// PortfolioSummary joins universe rows with attribution by bond id.
// Bonds without attribution keep zero duration and DV01 share.
func PortfolioSummary(u bond.Universe, contributions []risk.Contribution) []PortfolioRow {
	byID := make(map[string]risk.Contribution, len(contributions))
	for _, c := range contributions {
		byID[c.ID] = c
	}

	rows := make([]PortfolioRow, 0, u.Len())
	for _, b := range u.Bonds {
		c := byID[b.ID]
		rows = append(rows, PortfolioRow{
			ID:               b.ID,
			Price:            b.MarketPrice,
			Weight:           b.Weight,
			ModifiedDuration: c.ModifiedDuration,
			DV01Pct:          c.DV01Pct,
		})
	}
	return rows
}
