package optimizer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Cutting-plane settings
const (
	simplexTol     = 1e-10
	cutTolerance   = 1e-9
	maxCutRounds   = 50
	minActiveCount = 10
)

// errCutLimit is returned when the active scenario set keeps growing past maxCutRounds
var errCutLimit = errors.New("scenario cut limit reached")

// lpLayout indexes the standard-form variables of the CVaR LP.
// All variables are >= 0:
//
//	v_i = w_i - min   bond weight above its floor
//	alpha             VaR proxy
//	u_k               tail excess of active scenario k
//	p_i               slack of the max-weight bound
//	t_k               slack of the tail inequality
//	q                 surplus of the convexity floor (optional)
type lpLayout struct {
	n, k       int
	alpha      int
	uOff, pOff int
	tOff, q    int
	cols       int
}

func newLayout(n, k int, convexity bool) lpLayout {
	l := lpLayout{n: n, k: k, alpha: n, uOff: n + 1}
	l.pOff = l.uOff + k
	l.tOff = l.pOff + n
	l.cols = l.tOff + k
	l.q = -1
	if convexity {
		l.q = l.cols
		l.cols++
	}
	return l
}

// buildLP assembles min c'x s.t. Ax = b, x >= 0 over the active scenarios
//
//	budget     sum v                      = 1 - n*min
//	max bound  v_i + p_i                  = max - min
//	tail       L_s.v - alpha - u_k + t_k  = -min * sum(L_s)
//	duration   D.v                        = Td - min * sum(D)
//	convexity  C.v - q                    = Tc - min * sum(C)
//
// The tail coefficient always uses the full scenario count S, so dropping a
// scenario whose loss stays below alpha leaves the objective unchanged.
func buildLP(p problem, active []int) (c []float64, a *mat.Dense, b []float64, l lpLayout) {
	s, n := p.dims()
	m := p.mandate
	lo, hi := m.MinWeight, m.MaxWeight
	k := len(active)

	l = newLayout(n, k, m.TargetConvexity != nil)

	rows := 1 + n + k
	if m.TargetDuration != nil {
		rows++
	}
	if m.TargetConvexity != nil {
		rows++
	}

	c = make([]float64, l.cols)
	c[l.alpha] = 1
	tailCoef := 1 / (float64(s) * (1 - p.confidence))
	for j := 0; j < k; j++ {
		c[l.uOff+j] = tailCoef
	}

	a = mat.NewDense(rows, l.cols, nil)
	b = make([]float64, rows)

	// budget
	for i := 0; i < n; i++ {
		a.Set(0, i, 1)
	}
	b[0] = 1 - float64(n)*lo

	// max bounds
	for i := 0; i < n; i++ {
		a.Set(1+i, i, 1)
		a.Set(1+i, l.pOff+i, 1)
		b[1+i] = hi - lo
	}

	// tail inequalities
	for j, sc := range active {
		row := 1 + n + j
		var rowSum float64
		for i := 0; i < n; i++ {
			v := p.unit.At(sc, i)
			a.Set(row, i, v)
			rowSum += v
		}
		a.Set(row, l.alpha, -1)
		a.Set(row, l.uOff+j, -1)
		a.Set(row, l.tOff+j, 1)
		b[row] = -lo * rowSum
	}

	row := 1 + n + k
	if m.TargetDuration != nil {
		var sum float64
		for i := 0; i < n; i++ {
			a.Set(row, i, p.duration[i])
			sum += p.duration[i]
		}
		b[row] = *m.TargetDuration - lo*sum
		row++
	}

	if m.TargetConvexity != nil {
		var sum float64
		for i := 0; i < n; i++ {
			a.Set(row, i, p.convexity[i])
			sum += p.convexity[i]
		}
		a.Set(row, l.q, -1)
		b[row] = *m.TargetConvexity - lo*sum
	}

	// non-negative right-hand side
	for r := 0; r < rows; r++ {
		if b[r] < 0 {
			b[r] = -b[r]
			for j := 0; j < l.cols; j++ {
				a.Set(r, j, -a.At(r, j))
			}
		}
	}

	return c, a, b, l
}

// solveLP solves the CVaR LP exactly by constraint generation: the simplex
// runs on the worst scenarios at equal weights, then every scenario whose
// loss exceeds alpha is added and the LP re-solved until none is left out.
func solveLP(p problem) (*Result, error) {
	s, n := p.dims()

	active := initialActive(p)
	inActive := make([]bool, s)
	for _, sc := range active {
		inActive[sc] = true
	}

	for round := 1; round <= maxCutRounds; round++ {
		w, alpha, err := solveRestricted(p, active)
		if err != nil {
			return nil, err
		}

		losses := scenarioLosses(p, w)
		added := 0
		for sc := 0; sc < s; sc++ {
			if !inActive[sc] && losses[sc]-alpha > cutTolerance {
				inActive[sc] = true
				active = append(active, sc)
				added++
			}
		}

		if added == 0 {
			return &Result{
				Weights:    w,
				Alpha:      alpha,
				CVaR:       Objective(p.unit, w, alpha, p.confidence),
				Solver:     SolverSimplex,
				Status:     StatusOptimal,
				Iterations: round,
				Converged:  true,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: %d rounds, %d of %d scenarios, %d bonds", errCutLimit, maxCutRounds, len(active), s, n)
}

// solveRestricted runs one simplex solve over the active scenarios
func solveRestricted(p problem, active []int) (w []float64, alpha float64, err error) {
	c, a, b, l := buildLP(p, active)

	defer func() {
		if r := recover(); r != nil {
			w, alpha, err = nil, 0, fmt.Errorf("simplex: %v", r)
		}
	}()

	_, x, err := lp.Simplex(c, a, b, simplexTol, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("simplex: %w", err)
	}

	lo, hi := p.mandate.MinWeight, p.mandate.MaxWeight
	w = make([]float64, l.n)
	for i := range w {
		w[i] = clamp(math.Max(x[i], 0)+lo, lo, hi)
	}
	return w, math.Max(x[l.alpha], 0), nil
}

// initialActive picks the worst scenarios under equal weights,
// twice the tail size and never fewer than minActiveCount
func initialActive(p problem) []int {
	s, n := p.dims()

	count := int(math.Ceil(2 * (1 - p.confidence) * float64(s)))
	count = max(count, minActiveCount)
	count = min(count, s)

	losses := scenarioLosses(p, EqualWeights(n))
	order := make([]int, s)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return losses[order[i]] > losses[order[j]]
	})

	return append([]int(nil), order[:count]...)
}

// scenarioLosses returns L.w for every scenario
func scenarioLosses(p problem, w []float64) []float64 {
	s, _ := p.dims()
	out := mat.NewVecDense(s, nil)
	out.MulVec(p.unit, mat.NewVecDense(len(w), w))
	return out.RawVector().Data
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
