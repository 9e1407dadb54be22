package optimizer

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Penalty solver settings
const (
	penaltyWeight    = 1000.0
	maxIterations    = 200
	functionTol      = 1e-7
	convergeWindow   = 10
	projectionRounds = 100
)

// solvePenalty minimizes the RU objective plus quadratic constraint
// penalties with Nelder-Mead over (w, alpha), then projects the weights
// onto {min <= w <= max, sum w = 1}.
func solvePenalty(p problem) *Result {
	_, n := p.dims()
	m := p.mandate

	objective := func(x []float64) float64 {
		w, alpha := x[:n], x[n]

		f := Objective(p.unit, w, math.Max(alpha, 0), p.confidence)

		var pen float64
		budget := floats.Sum(w) - 1
		pen += budget * budget

		for _, wi := range w {
			pen += sq(math.Max(0, wi-m.MaxWeight))
			pen += sq(math.Max(0, m.MinWeight-wi))
		}
		pen += sq(math.Max(0, -alpha))

		if m.TargetDuration != nil {
			pen += sq(floats.Dot(w, p.duration) - *m.TargetDuration)
		}
		if m.TargetConvexity != nil {
			pen += sq(math.Max(0, *m.TargetConvexity-floats.Dot(w, p.convexity)))
		}

		return f + penaltyWeight*pen
	}

	initial := append(EqualWeights(n), InitialAlpha)

	settings := &optimize.Settings{
		MajorIterations: maxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   functionTol,
			Iterations: convergeWindow,
		},
	}

	x := initial
	status := StatusIterationLimit
	iterations := 0

	result, err := optimize.Minimize(optimize.Problem{Func: objective}, initial, settings, &optimize.NelderMead{})
	if result != nil {
		x = result.X
		iterations = result.Stats.MajorIterations
		if err == nil && (result.Status == optimize.FunctionConvergence || result.Status == optimize.Success) {
			status = StatusFallback
		}
	}

	w := projectCappedSimplex(x[:n], m.MinWeight, m.MaxWeight)
	alpha := math.Max(x[n], 0)

	return &Result{
		Weights:    w,
		Alpha:      alpha,
		CVaR:       Objective(p.unit, w, alpha, p.confidence),
		Solver:     SolverNelderMead,
		Status:     status,
		Iterations: iterations,
		Converged:  status == StatusFallback,
	}
}

// projectCappedSimplex finds tau by bisection so that
// sum clamp(x_i - tau, lo, hi) = 1. When the box cannot reach a unit sum
// the closest corner (all lo or all hi) is returned.
func projectCappedSimplex(x []float64, lo, hi float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	shifted := func(tau float64) float64 {
		var sum float64
		for i, v := range x {
			out[i] = clamp(v-tau, lo, hi)
			sum += out[i]
		}
		return sum
	}

	if float64(n)*hi <= 1 {
		for i := range out {
			out[i] = hi
		}
		return out
	}
	if float64(n)*lo >= 1 {
		for i := range out {
			out[i] = lo
		}
		return out
	}

	// sum is non-increasing in tau
	left := floats.Min(x) - hi - 1
	right := floats.Max(x) - lo + 1
	for i := 0; i < projectionRounds; i++ {
		mid := (left + right) / 2
		if shifted(mid) > 1 {
			left = mid
		} else {
			right = mid
		}
	}
	shifted((left + right) / 2)
	return out
}

func sq(x float64) float64 {
	return x * x
}
