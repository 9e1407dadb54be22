package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bondcvar/internal/bond"
	"github.com/wonny/bondcvar/internal/curve"
)

func testCurve() curve.Curve {
	return curve.MustNew(curve.Params{Beta0: 0.045, Beta1: -0.02, Beta2: 0.01, Tau: 2})
}

// fairUniverse prices each bond on base so the zero-shock loss is zero
func fairUniverse(t *testing.T, base curve.Curve) bond.Universe {
	t.Helper()

	bonds := []bond.Bond{
		{ID: "B2", Principal: 1000, Coupon: 0.035, Frequency: 2, Maturity: 2, Quantity: 100, Weight: 0.3},
		{ID: "B10", Principal: 1000, Coupon: 0.045, Frequency: 2, Maturity: 10, Quantity: 50, Weight: 0.4},
		{ID: "B30", Principal: 1000, Coupon: 0.05, Frequency: 2, Maturity: 30, Quantity: 20, Weight: 0.3},
	}
	for i := range bonds {
		sched := bond.GenerateCashFlows(bonds[i].Terms())
		bonds[i].MarketPrice = bond.Price(base.Yield(bonds[i].Maturity), sched, bonds[i].Frequency)
	}

	u, err := bond.NewUniverse(bonds)
	require.NoError(t, err)
	return u
}

func TestLossDistribution_ZeroShock(t *testing.T) {
	base := testCurve()
	u := fairUniverse(t, base)
	e := NewEngine(nil)

	scenarios := curve.NewGenerator(base, 1).Generate(5, 0)
	dist := e.LossDistribution(u, scenarios)

	require.Len(t, dist.Losses, 5)
	assert.InDelta(t, u.BaseValue(), dist.BaseValue, 1e-9)
	for _, l := range dist.Losses {
		assert.InDelta(t, 0, l, 1e-6)
	}
}

func TestLossDistribution_MatchesPerBondSum(t *testing.T) {
	base := testCurve()
	u := fairUniverse(t, base)
	e := NewEngine(bond.NewCashFlowCache())

	scenarios := curve.NewGenerator(base, 42).Generate(50, 0.01)
	dist := e.LossDistribution(u, scenarios)

	for i, sc := range scenarios {
		var value float64
		for _, b := range u.Bonds {
			sched := bond.GenerateCashFlows(b.Terms())
			value += bond.Price(sc.Yield(b.Maturity), sched, b.Frequency) * b.Quantity
		}
		assert.InDelta(t, dist.BaseValue-value, dist.Losses[i], 1e-6)
	}

	// schedules were generated once per bond and then reused
	stats := e.Cache().Stats()
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, uint64(3), stats.Misses)
}

func TestLossDistribution_Empty(t *testing.T) {
	e := NewEngine(nil)
	dist := e.LossDistribution(bond.Universe{}, []curve.Curve{testCurve()})
	assert.Equal(t, []float64{0}, dist.Losses)
	assert.Nil(t, e.PriceMatrix(bond.Universe{}, nil))
}

func TestUnitLossMatrix(t *testing.T) {
	base := testCurve()
	u := fairUniverse(t, base)
	u.Bonds[0].MarketPrice = 0 // floored at 0.01
	e := NewEngine(nil)

	up, err := curve.NewGenerator(base, 0).ApplyShock(curve.ShockParallel, 0.01)
	require.NoError(t, err)

	unit := e.UnitLossMatrix(u, []curve.Curve{up})
	prices := e.PriceMatrix(u, []curve.Curve{up})

	r, c := unit.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 3, c)

	assert.InDelta(t, (bond.PriceFloor-prices.At(0, 0))/bond.PriceFloor, unit.At(0, 0), 1e-9)
	// rates up -> positive fractional loss, larger for longer bonds
	assert.Greater(t, unit.At(0, 2), unit.At(0, 1))
	assert.Greater(t, unit.At(0, 1), 0.0)
}

func TestRiskContribution(t *testing.T) {
	u := fairUniverse(t, testCurve())
	contribs := NewEngine(nil).RiskContribution(u)

	require.Len(t, contribs, 3)
	var pct float64
	for _, c := range contribs {
		assert.Greater(t, c.DV01Contribution, 0.0)
		pct += c.DV01Pct
	}
	assert.InDelta(t, 1.0, pct, 1e-12)
	assert.Equal(t, 0.4, contribs[1].Weight)
}

func TestStressTest(t *testing.T) {
	base := testCurve()
	u := fairUniverse(t, base)
	e := NewEngine(nil)
	gen := curve.NewGenerator(base, 0)

	assert.InDelta(t, 0, e.StressTest(u, base), 1e-6)

	up, _ := gen.ApplyShock(curve.ShockParallel, 0.01)
	down, _ := gen.ApplyShock(curve.ShockParallel, -0.01)
	assert.Less(t, e.StressTest(u, up), 0.0)
	assert.Greater(t, e.StressTest(u, down), 0.0)

	suite := e.StressSuite(u, gen, 0.01)
	require.Len(t, suite, 3)
	assert.Equal(t, e.StressTest(u, up), suite["parallel"].PnL)
	// flattener lowers the long end only
	assert.Greater(t, suite["flattener"].PnL, 0.0)

	sorted := SortedStress(suite)
	require.Len(t, sorted, 3)
	assert.LessOrEqual(t, sorted[0].PnL, sorted[1].PnL)
	assert.LessOrEqual(t, sorted[1].PnL, sorted[2].PnL)
}

func TestCheckLimits(t *testing.T) {
	e := NewEngine(nil)
	dist := LossDistribution{Losses: oneToHundred(), BaseValue: 1000}

	// VaR 95.05 -> 9.5%, CVaR 98 -> 9.8%
	res := e.CheckLimits(dist, nil, DefaultRiskLimits())
	assert.False(t, res.Passed)
	assert.Len(t, res.Violations, 2)
	assert.InDelta(t, 0.09505, res.VaRPct, 1e-9)

	loose := RiskLimits{Confidence: 0.95, MaxVaRPct: 0.2, MaxCVaRPct: 0.2, MaxStressPct: 0.05}
	stress := map[string]StressResult{
		"parallel": {Name: "parallel", PnL: -80},
		"flatten":  {Name: "flatten", PnL: 10},
	}
	res = e.CheckLimits(dist, stress, loose)
	assert.False(t, res.Passed)
	assert.InDelta(t, 0.08, res.WorstStress, 1e-12)
	assert.Len(t, res.Violations, 1)

	res = e.CheckLimits(LossDistribution{}, nil, loose)
	assert.False(t, res.Passed)
}

func TestMonteCarlo(t *testing.T) {
	base := testCurve()
	u := fairUniverse(t, base)
	e := NewEngine(nil)
	cfg := DefaultMonteCarloConfig()
	cfg.NumScenarios = 200

	a, distA, err := e.MonteCarlo(context.Background(), u, base, cfg)
	require.NoError(t, err)
	b, distB, err := e.MonteCarlo(context.Background(), u, base, cfg)
	require.NoError(t, err)

	assert.Equal(t, distA.Losses, distB.Losses)
	assert.Equal(t, a.Historical, b.Historical)
	assert.NotEqual(t, a.RunID, b.RunID)

	require.Len(t, a.Historical, 2)
	for _, h := range a.Historical {
		assert.LessOrEqual(t, h.VaR, h.CVaR)
	}
	assert.Len(t, a.Percentiles, 9)
	assert.LessOrEqual(t, a.Percentiles[5], a.Percentiles[95])
}

func TestMonteCarlo_Errors(t *testing.T) {
	e := NewEngine(nil)
	base := testCurve()
	u := fairUniverse(t, base)

	bad := DefaultMonteCarloConfig()
	bad.Confidence = []float64{1.2}
	_, _, err := e.MonteCarlo(context.Background(), u, base, bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, _, err = e.MonteCarlo(context.Background(), bond.Universe{}, base, DefaultMonteCarloConfig())
	assert.ErrorIs(t, err, ErrEmptyUniverse)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = e.MonteCarlo(ctx, u, base, DefaultMonteCarloConfig())
	assert.ErrorIs(t, err, context.Canceled)
}
