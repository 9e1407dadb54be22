package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bondcvar/internal/bond"
)

func threeBondUniverse(t *testing.T) bond.Universe {
	t.Helper()

	bonds := []bond.Bond{
		{ID: "SHORT", Principal: 1000, Coupon: 0.03, Frequency: 2, Maturity: 2, MarketPrice: 1020, Quantity: 1},
		{ID: "MED", Principal: 1000, Coupon: 0.04, Frequency: 2, Maturity: 7, MarketPrice: 980, Quantity: 1},
		{ID: "LONG", Principal: 1000, Coupon: 0.06, Frequency: 2, Maturity: 20, MarketPrice: 1050, Quantity: 1},
	}
	u, err := bond.NewUniverse(bonds)
	require.NoError(t, err)
	return u
}

func TestCharacteristics(t *testing.T) {
	u := threeBondUniverse(t)
	mgr := NewManager(DefaultMandate(), bond.NewAnalytics(bond.NewCashFlowCache()))

	ch := mgr.Characteristics(u)
	require.Equal(t, 3, ch.Len())
	assert.Equal(t, []string{"SHORT", "MED", "LONG"}, ch.IDs)

	// longer maturity -> longer duration
	assert.Less(t, ch.ModifiedDuration[0], ch.ModifiedDuration[1])
	assert.Less(t, ch.ModifiedDuration[1], ch.ModifiedDuration[2])

	row, ok := ch.Row("MED")
	require.True(t, ok)
	assert.Equal(t, 980.0, row.Price)
	assert.True(t, row.Converged)

	_, ok = ch.Row("MISSING")
	assert.False(t, ok)
}

func TestCheck_MaxWeightLiteral(t *testing.T) {
	u := threeBondUniverse(t)
	m := DefaultMandate()
	m.MaxWeight = 0.4
	mgr := NewManager(m, bond.Analytics{})

	v := mgr.Check([]float64{0, 0, 1}, mgr.Characteristics(u))

	mag, ok := v.Magnitude(KindMaxWeightExcess)
	require.True(t, ok)
	assert.InDelta(t, 0.6, mag, 1e-12)
	assert.False(t, v.Has(KindBudget))
	assert.False(t, v.Compliant())
}

func TestCheck_BudgetLiteral(t *testing.T) {
	u := threeBondUniverse(t)
	mgr := NewManager(DefaultMandate(), bond.Analytics{})

	v := mgr.Check([]float64{0.2, 0.4, 0.4}, mgr.Characteristics(u))
	assert.False(t, v.Has(KindBudget))
	assert.True(t, v.Compliant())
}

func TestCheck_AllKinds(t *testing.T) {
	u := threeBondUniverse(t)
	m := DefaultMandate().WithTargetDuration(30).WithTargetConvexity(1000)
	m.MaxWeight = 0.5
	m.MinWeight = 0.1
	mgr := NewManager(m, bond.Analytics{})
	ch := mgr.Characteristics(u)

	w := []float64{-0.2, 0.6, 0.9}
	v := mgr.Check(w, ch)

	assert.Equal(t, []string{
		KindBudget,
		KindMaxWeightExcess,
		KindMinWeightViolation,
		KindDurationMismatch,
		KindConvexityMismatch,
	}, v.Kinds())

	budget, _ := v.Magnitude(KindBudget)
	assert.InDelta(t, 0.3, budget, 1e-12)

	excess, _ := v.Magnitude(KindMaxWeightExcess)
	assert.InDelta(t, 0.4, excess, 1e-12)

	// min violation reports the smallest weight itself
	minV, _ := v.Magnitude(KindMinWeightViolation)
	assert.Equal(t, -0.2, minV)

	dur, _ := v.Magnitude(KindDurationMismatch)
	assert.InDelta(t, PortfolioDuration(w, ch)-30, dur, 1e-12)
}

func TestCheck_DurationWithinTolerance(t *testing.T) {
	u := threeBondUniverse(t)
	mgr := NewManager(DefaultMandate(), bond.Analytics{})
	ch := mgr.Characteristics(u)

	w := []float64{0.2, 0.4, 0.4}
	target := PortfolioDuration(w, ch) + 0.01

	m := DefaultMandate().WithTargetDuration(target)
	assert.True(t, Check(m, w, ch).Compliant())

	m.DurationTolerance = 0.001
	assert.True(t, Check(m, w, ch).Has(KindDurationMismatch))
}

func TestCheck_EmptyWeights(t *testing.T) {
	v := Check(DefaultMandate(), nil, Characteristics{})
	assert.Equal(t, []string{KindBudget}, v.Kinds())
}

func TestPortfolioDurationConvexity(t *testing.T) {
	ch := Characteristics{
		IDs:              []string{"A", "B"},
		ModifiedDuration: []float64{2, 10},
		Convexity:        []float64{5, 120},
	}
	w := []float64{0.25, 0.75}

	assert.InDelta(t, 8.0, PortfolioDuration(w, ch), 1e-12)
	assert.InDelta(t, 91.25, PortfolioConvexity(w, ch), 1e-12)
}
