package optimizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/bondcvar/internal/bond"
	"github.com/wonny/bondcvar/internal/constraints"
	"github.com/wonny/bondcvar/internal/curve"
	"github.com/wonny/bondcvar/internal/risk"
)

func baseCurve() curve.Curve {
	return curve.MustNew(curve.Params{Beta0: 0.045, Beta1: -0.02, Beta2: 0.01, Tau: 2})
}

func threeBonds(t *testing.T) bond.Universe {
	t.Helper()

	u, err := bond.NewUniverse([]bond.Bond{
		{ID: "SHORT", Principal: 1000, Coupon: 0.03, Frequency: 2, Maturity: 2, MarketPrice: 1000, Quantity: 1},
		{ID: "MED", Principal: 1000, Coupon: 0.04, Frequency: 2, Maturity: 7, MarketPrice: 995, Quantity: 1},
		{ID: "LONG", Principal: 1000, Coupon: 0.05, Frequency: 2, Maturity: 20, MarketPrice: 1010, Quantity: 1},
	})
	require.NoError(t, err)
	return u
}

func scenarios(n int) []curve.Curve {
	return curve.NewGenerator(baseCurve(), 42).Generate(n, 0.008)
}

func TestOptimize_Feasibility(t *testing.T) {
	m := constraints.DefaultMandate()
	m.MaxWeight = 0.5

	opt := New(risk.NewEngine(nil), m, nil)
	res, err := opt.Optimize(threeBonds(t), scenarios(200), 0.95)
	require.NoError(t, err)

	require.Len(t, res.Weights, 3)
	assert.InDelta(t, 1.0, floats.Sum(res.Weights), 1e-4)
	for _, w := range res.Weights {
		assert.LessOrEqual(t, w, 0.5+1e-4)
		assert.GreaterOrEqual(t, w, -1e-4)
	}

	assert.Equal(t, SolverSimplex, res.Solver)
	assert.Equal(t, StatusOptimal, res.Status)
	assert.True(t, res.Converged)
	assert.True(t, res.Violations.Compliant())
	assert.GreaterOrEqual(t, res.Alpha, 0.0)
}

func TestOptimize_NoWorseThanEqualWeights(t *testing.T) {
	u := threeBonds(t)
	sc := scenarios(300)
	engine := risk.NewEngine(nil)

	res, err := New(engine, constraints.DefaultMandate(), nil).Optimize(u, sc, 0.95)
	require.NoError(t, err)

	unit := engine.UnitLossMatrix(u, sc)
	equal := EqualWeights(3)

	// CVaR at equal weights, alpha swept over the candidate thresholds
	best := math.Inf(1)
	for _, alpha := range scenarioLosses(problem{unit: unit}, equal) {
		best = math.Min(best, Objective(unit, equal, math.Max(alpha, 0), 0.95))
	}
	assert.LessOrEqual(t, res.CVaR, best+1e-9)

	assert.InDelta(t, Objective(unit, res.Weights, res.Alpha, 0.95), res.CVaR, 1e-12)
}

func TestOptimize_DurationTarget(t *testing.T) {
	u := threeBonds(t)
	m := constraints.DefaultMandate().WithTargetDuration(6.0)
	m.MaxWeight = 0.7

	opt := New(risk.NewEngine(nil), m, nil)
	res, err := opt.Optimize(u, scenarios(150), 0.95)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)

	ch := opt.Manager().Characteristics(u)
	assert.InDelta(t, 6.0, constraints.PortfolioDuration(res.Weights, ch), 1e-6)
	assert.False(t, res.Violations.Has(constraints.KindDurationMismatch))
}

func TestOptimize_ConvexityFloor(t *testing.T) {
	u := threeBonds(t)
	opt := New(risk.NewEngine(nil), constraints.DefaultMandate(), nil)
	ch := opt.Manager().Characteristics(u)

	floor := (ch.Convexity[1] + ch.Convexity[2]) / 2
	m := constraints.DefaultMandate().WithTargetConvexity(floor)
	m.ConvexityTolerance = 1e9 // only the floor matters here

	res, err := New(risk.NewEngine(nil), m, nil).Optimize(u, scenarios(150), 0.95)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, constraints.PortfolioConvexity(res.Weights, ch), floor-1e-6)
}

func TestOptimize_InfeasibleFallsBack(t *testing.T) {
	u := threeBonds(t)
	m := constraints.DefaultMandate().WithTargetDuration(50)
	m.MaxWeight = 0.6

	res, err := New(risk.NewEngine(nil), m, nil).Optimize(u, scenarios(50), 0.95)
	require.NoError(t, err)

	assert.Equal(t, SolverNelderMead, res.Solver)
	assert.InDelta(t, 1.0, floats.Sum(res.Weights), 1e-6)
	for _, w := range res.Weights {
		assert.LessOrEqual(t, w, 0.6+1e-9)
		assert.GreaterOrEqual(t, w, -1e-9)
	}
	assert.True(t, res.Violations.Has(constraints.KindDurationMismatch))
}

func TestOptimize_InputErrors(t *testing.T) {
	opt := New(risk.NewEngine(nil), constraints.DefaultMandate(), nil)
	u := threeBonds(t)

	_, err := opt.Optimize(bond.Universe{}, scenarios(10), 0.95)
	assert.ErrorIs(t, err, ErrEmptyUniverse)

	_, err = opt.Optimize(u, nil, 0.95)
	assert.ErrorIs(t, err, ErrNoScenarios)

	for _, c := range []float64{0, 1, -0.5, math.NaN()} {
		_, err = opt.Optimize(u, scenarios(10), c)
		assert.ErrorIs(t, err, ErrInvalidConfidence)
	}
}

func TestObjective(t *testing.T) {
	unit := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	// 3 + (0+0+0+1) / (4 * 0.5)
	assert.InDelta(t, 3.5, Objective(unit, []float64{1}, 3, 0.5), 1e-12)
	// alpha above every loss leaves only alpha
	assert.InDelta(t, 10.0, Objective(unit, []float64{1}, 10, 0.5), 1e-12)
}

func TestProjectCappedSimplex(t *testing.T) {
	tests := []struct {
		name   string
		x      []float64
		lo, hi float64
	}{
		{"already feasible", []float64{0.2, 0.3, 0.5}, 0, 1},
		{"needs shift down", []float64{0.9, 0.9, 0.9}, 0, 0.5},
		{"needs shift up", []float64{-1, 0, 0.1}, 0, 1},
		{"with floor", []float64{5, 0, 0, 0}, 0.1, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := projectCappedSimplex(tt.x, tt.lo, tt.hi)
			assert.InDelta(t, 1.0, floats.Sum(w), 1e-9)
			for _, v := range w {
				assert.GreaterOrEqual(t, v, tt.lo)
				assert.LessOrEqual(t, v, tt.hi)
			}
		})
	}

	// infeasible box returns the nearest corner
	assert.Equal(t, []float64{0.2, 0.2}, projectCappedSimplex([]float64{0.7, 0.3}, 0, 0.2))
}

func TestTurnover(t *testing.T) {
	assert.InDelta(t, 2.0, Turnover([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.Equal(t, 0.0, Turnover([]float64{0.5, 0.5}, []float64{0.5, 0.5}))
	assert.True(t, math.IsNaN(Turnover([]float64{1}, []float64{0.5, 0.5})))
}
