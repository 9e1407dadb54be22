package optimizer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/bondcvar/internal/bond"
	"github.com/wonny/bondcvar/internal/constraints"
	"github.com/wonny/bondcvar/internal/curve"
	"github.com/wonny/bondcvar/internal/risk"
	"github.com/wonny/bondcvar/pkg/logger"
)

var (
	ErrEmptyUniverse     = errors.New("optimizer: empty universe")
	ErrNoScenarios       = errors.New("optimizer: no scenarios")
	ErrInvalidConfidence = errors.New("optimizer: confidence must be in (0, 1)")
)

// Solver names
const (
	SolverSimplex    = "simplex"
	SolverNelderMead = "nelder_mead"
)

// Status of an optimization
type Status string

const (
	StatusOptimal        Status = "optimal"         // LP solved exactly
	StatusFallback       Status = "fallback"        // penalty solver converged
	StatusIterationLimit Status = "iteration_limit" // penalty solver hit its cap, last iterate returned
)

// InitialAlpha is the starting VaR proxy of the penalty solver
const InitialAlpha = 0.01

// Result is the outcome of one CVaR minimization.
// Weights are in universe order and are what callers consume.
type Result struct {
	Weights    []float64              `json:"weights"`
	Alpha      float64                `json:"alpha"` // VaR proxy at the optimum
	CVaR       float64                `json:"cvar"`  // objective value, fraction of value
	Solver     string                 `json:"solver"`
	Status     Status                 `json:"status"`
	Iterations int                    `json:"iterations"`
	Converged  bool                   `json:"converged"`
	Violations constraints.Violations `json:"violations"`
}

// Optimizer minimizes scenario CVaR subject to a mandate
type Optimizer struct {
	engine  *risk.Engine
	manager *constraints.Manager
	log     *logger.Logger
}

// New creates an optimizer. The constraint manager shares the engine's schedule cache.
func New(engine *risk.Engine, mandate constraints.Mandate, log *logger.Logger) *Optimizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Optimizer{
		engine:  engine,
		manager: constraints.NewManager(mandate, engine.Analytics()),
		log:     log.Component("optimizer"),
	}
}

// Engine returns the risk engine
func (o *Optimizer) Engine() *risk.Engine {
	return o.engine
}

// Manager returns the constraint manager
func (o *Optimizer) Manager() *constraints.Manager {
	return o.manager
}

// problem is the fully evaluated input of one solve
type problem struct {
	unit       *mat.Dense // scenarios x bonds fractional losses
	duration   []float64
	convexity  []float64
	mandate    constraints.Mandate
	confidence float64
}

func (p problem) dims() (scenarios, bonds int) {
	return p.unit.Dims()
}

// Optimize returns CVaR-minimizing weights for u under scenarios.
// Only malformed input is an error; solver trouble is reported in Result.
func (o *Optimizer) Optimize(u bond.Universe, scenarios []curve.Curve, confidence float64) (*Result, error) {
	if u.Len() == 0 {
		return nil, ErrEmptyUniverse
	}
	if len(scenarios) == 0 {
		return nil, ErrNoScenarios
	}
	if !(confidence > 0 && confidence < 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidConfidence, confidence)
	}

	ch := o.manager.Characteristics(u)
	p := problem{
		unit:       o.engine.UnitLossMatrix(u, scenarios),
		duration:   ch.ModifiedDuration,
		convexity:  ch.Convexity,
		mandate:    o.manager.Mandate(),
		confidence: confidence,
	}

	res, err := solveLP(p)
	if err != nil {
		o.log.WithError(err).
			WithField("bonds", u.Len()).
			WithField("scenarios", len(scenarios)).
			Warn("simplex failed, falling back to penalty solver")
		res = solvePenalty(p)
		if !res.Converged {
			o.log.WithField("iterations", res.Iterations).
				WithField("status", string(res.Status)).
				Warn("optimizer did not converge, returning last iterate")
		}
	}

	res.Violations = o.manager.Check(res.Weights, ch)

	o.log.WithFields(map[string]interface{}{
		"solver":     res.Solver,
		"status":     string(res.Status),
		"cvar":       res.CVaR,
		"violations": len(res.Violations),
	}).Debug("optimization finished")

	return res, nil
}

// Objective is the Rockafellar-Uryasev CVaR estimate
//
//	alpha + 1/(S(1-c)) * sum_s max(0, L_s.w - alpha)
//
// where L is the scenarios x bonds unit-loss matrix.
func Objective(unit mat.Matrix, w []float64, alpha, confidence float64) float64 {
	s, _ := unit.Dims()
	if s == 0 {
		return alpha
	}

	losses := mat.NewVecDense(s, nil)
	losses.MulVec(unit, mat.NewVecDense(len(w), w))

	var tail float64
	for i := 0; i < s; i++ {
		tail += math.Max(0, losses.AtVec(i)-alpha)
	}
	return alpha + tail/(float64(s)*(1-confidence))
}

// EqualWeights is the 1/n starting allocation
func EqualWeights(n int) []float64 {
	w := make([]float64, n)
	if n > 0 {
		floats.AddConst(1/float64(n), w)
	}
	return w
}

// Turnover is the L1 distance between two weight vectors
func Turnover(from, to []float64) float64 {
	if len(from) != len(to) {
		return math.NaN()
	}
	return floats.Distance(from, to, 1)
}
