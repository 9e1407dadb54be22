package constraints

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/wonny/bondcvar/internal/bond"
)

// Violation kinds
const (
	KindBudget             = "budget"
	KindMaxWeightExcess    = "max_weight_excess"
	KindMinWeightViolation = "min_weight_violation"
	KindDurationMismatch   = "duration_mismatch"
	KindConvexityMismatch  = "convexity_mismatch"
)

// Check thresholds
const (
	budgetTolerance = 1e-6
	boundTolerance  = 1e-7
)

// Violation is one breached mandate rule with its signed magnitude
type Violation struct {
	Kind      string  `json:"kind"`
	Magnitude float64 `json:"magnitude"`
}

// Violations is the ordered result of Check; empty means compliant
type Violations []Violation

// Has reports whether kind is breached
func (v Violations) Has(kind string) bool {
	_, ok := v.Magnitude(kind)
	return ok
}

// Magnitude returns the magnitude recorded for kind
func (v Violations) Magnitude(kind string) (float64, bool) {
	for _, x := range v {
		if x.Kind == kind {
			return x.Magnitude, true
		}
	}
	return 0, false
}

// Compliant is true when nothing is breached
func (v Violations) Compliant() bool {
	return len(v) == 0
}

// Kinds lists breached kinds in check order
func (v Violations) Kinds() []string {
	kinds := make([]string, len(v))
	for i, x := range v {
		kinds[i] = x.Kind
	}
	return kinds
}

// Row is one bond's market-implied characteristics
type Row struct {
	ID               string  `json:"id"`
	ModifiedDuration float64 `json:"mod_duration"`
	Convexity        float64 `json:"convexity"`
	Price            float64 `json:"price"`
	DV01             float64 `json:"dv01"`
	YTM              float64 `json:"ytm"`
	Converged        bool    `json:"converged"`
}

// Characteristics is a columnar table aligned with the universe order
type Characteristics struct {
	IDs              []string
	ModifiedDuration []float64
	Convexity        []float64
	Price            []float64
	DV01             []float64
	YTM              []float64
	Converged        []bool
}

// Len returns the number of rows
func (c Characteristics) Len() int {
	return len(c.IDs)
}

// Row looks up a bond by id
func (c Characteristics) Row(id string) (Row, bool) {
	for i, x := range c.IDs {
		if x == id {
			return c.At(i), true
		}
	}
	return Row{}, false
}

// At returns row i
func (c Characteristics) At(i int) Row {
	return Row{
		ID:               c.IDs[i],
		ModifiedDuration: c.ModifiedDuration[i],
		Convexity:        c.Convexity[i],
		Price:            c.Price[i],
		DV01:             c.DV01[i],
		YTM:              c.YTM[i],
		Converged:        c.Converged[i],
	}
}

// Manager evaluates weights against a mandate
type Manager struct {
	mandate   Mandate
	analytics bond.Analytics
}

// NewManager creates a manager. The analytics may carry a shared schedule cache.
func NewManager(m Mandate, analytics bond.Analytics) *Manager {
	return &Manager{mandate: m, analytics: analytics}
}

// Mandate returns the active mandate
func (m *Manager) Mandate() Mandate {
	return m.mandate
}

// Characteristics derives every bond's sensitivities from its market price
func (m *Manager) Characteristics(u bond.Universe) Characteristics {
	n := u.Len()
	ch := Characteristics{
		IDs:              make([]string, n),
		ModifiedDuration: make([]float64, n),
		Convexity:        make([]float64, n),
		Price:            make([]float64, n),
		DV01:             make([]float64, n),
		YTM:              make([]float64, n),
		Converged:        make([]bool, n),
	}

	for i, b := range u.Bonds {
		rm := m.analytics.RiskMetrics(b)
		ch.IDs[i] = b.ID
		ch.ModifiedDuration[i] = rm.ModifiedDuration
		ch.Convexity[i] = rm.Convexity
		ch.Price[i] = b.MarketPrice
		ch.DV01[i] = rm.DV01
		ch.YTM[i] = rm.YTM
		ch.Converged[i] = rm.Converged
	}
	return ch
}

// PortfolioDuration is the weight-averaged modified duration
func PortfolioDuration(w []float64, ch Characteristics) float64 {
	return dot(w, ch.ModifiedDuration)
}

// PortfolioConvexity is the weight-averaged convexity
func PortfolioConvexity(w []float64, ch Characteristics) float64 {
	return dot(w, ch.Convexity)
}

// Check lists every mandate breach for w. It never fails.
func (m *Manager) Check(w []float64, ch Characteristics) Violations {
	return Check(m.mandate, w, ch)
}

// Check evaluates w against mandate in fixed order:
// budget, max weight, min weight, duration, convexity.
func Check(mandate Mandate, w []float64, ch Characteristics) Violations {
	violations := Violations{}

	total := floats.Sum(w)
	if math.Abs(total-1) > budgetTolerance {
		violations = append(violations, Violation{KindBudget, total - 1})
	}

	if len(w) > 0 {
		hi, lo := floats.Max(w), floats.Min(w)
		if hi > mandate.MaxWeight+boundTolerance {
			violations = append(violations, Violation{KindMaxWeightExcess, hi - mandate.MaxWeight})
		}
		if lo < mandate.MinWeight-boundTolerance {
			violations = append(violations, Violation{KindMinWeightViolation, lo})
		}
	}

	if mandate.TargetDuration != nil {
		d := PortfolioDuration(w, ch) - *mandate.TargetDuration
		if math.Abs(d) > mandate.DurationTolerance {
			violations = append(violations, Violation{KindDurationMismatch, d})
		}
	}

	if mandate.TargetConvexity != nil {
		c := PortfolioConvexity(w, ch) - *mandate.TargetConvexity
		if math.Abs(c) > mandate.ConvexityTolerance {
			violations = append(violations, Violation{KindConvexityMismatch, c})
		}
	}

	return violations
}

// dot tolerates length mismatch (truncates) so Check can never panic
func dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	return floats.Dot(a[:n], b[:n])
}
