package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/bondcvar/internal/bond"
	"github.com/wonny/bondcvar/internal/constraints"
	"github.com/wonny/bondcvar/internal/curve"
	"github.com/wonny/bondcvar/internal/optimizer"
	"github.com/wonny/bondcvar/pkg/logger"
)

// RolledMaturity replaces any maturity that ages to zero or below
const RolledMaturity = 0.5

var ErrInvalidConfig = errors.New("invalid simulation config")

// Simulator runs the multi-period rebalancing loop
// ⭐ SSOT: aging, repricing and re-optimization happen only here
type Simulator struct {
	optimizer *optimizer.Optimizer
	logger    *logger.Logger
}

// Config holds simulation settings
type Config struct {
	Steps           int     `json:"steps"`
	StepYears       float64 `json:"step_years"`       // time advanced per step
	PathVolatility  float64 `json:"path_volatility"`  // market path factor shock
	LocalScenarios  int     `json:"local_scenarios"`  // scenarios per re-optimization
	LocalVolatility float64 `json:"local_volatility"` // factor shock around the step curve
	Seed            int64   `json:"seed"`
	Confidence      float64 `json:"confidence"`
}

// DefaultConfig returns 8 quarterly steps
func DefaultConfig() Config {
	return Config{
		Steps:           8,
		StepYears:       0.25,
		PathVolatility:  0.005,
		LocalScenarios:  100,
		LocalVolatility: 0.01,
		Seed:            42,
		Confidence:      0.95,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Steps < 0 {
		return fmt.Errorf("%w: Steps must be >= 0", ErrInvalidConfig)
	}
	if c.StepYears <= 0 {
		return fmt.Errorf("%w: StepYears must be > 0", ErrInvalidConfig)
	}
	if c.PathVolatility < 0 || c.LocalVolatility < 0 {
		return fmt.Errorf("%w: volatility must be >= 0", ErrInvalidConfig)
	}
	if c.LocalScenarios <= 0 {
		return fmt.Errorf("%w: LocalScenarios must be > 0", ErrInvalidConfig)
	}
	if !(c.Confidence > 0 && c.Confidence < 1) {
		return fmt.Errorf("%w: Confidence must be between 0 and 1", ErrInvalidConfig)
	}
	return nil
}

// LocalSeed derives the scenario seed of one step so steps draw independent sets
func (c Config) LocalSeed(step int) int64 {
	return c.Seed + int64(step)
}

// StepRecord is one row of the simulation history
type StepRecord struct {
	Step               int     `json:"step"`
	Turnover           float64 `json:"turnover"`
	PortfolioDuration  float64 `json:"portfolio_duration"`
	PortfolioConvexity float64 `json:"portfolio_convexity"`
	BenchmarkYield     float64 `json:"benchmark_yield"` // 10Y yield of the step curve
	PortfolioCVaR      float64 `json:"portfolio_cvar"`
	Converged          bool    `json:"converged"`
}

// Result holds a finished run
type Result struct {
	RunID         string        `json:"run_id"`
	Config        Config        `json:"config"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	History       []StepRecord  `json:"history"`
	FinalWeights  []float64     `json:"final_weights"`
	FinalUniverse bond.Universe `json:"final_universe"`
}

// TotalTurnover sums turnover over all steps
func (r *Result) TotalTurnover() float64 {
	var total float64
	for _, h := range r.History {
		total += h.Turnover
	}
	return total
}

// NewSimulator creates a simulator around an optimizer
func NewSimulator(opt *optimizer.Optimizer, log *logger.Logger) *Simulator {
	if log == nil {
		log = logger.Nop()
	}
	return &Simulator{
		optimizer: opt,
		logger:    log.Component("simulation"),
	}
}

// Run executes the rebalancing loop. The input universe is not modified.
// Cancellation is checked between steps.
func (s *Simulator) Run(ctx context.Context, base curve.Curve, u bond.Universe, initialWeights []float64, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if u.Len() == 0 {
		return nil, fmt.Errorf("%w: empty universe", ErrInvalidConfig)
	}
	if len(initialWeights) != u.Len() {
		return nil, fmt.Errorf("%w: %d weights for %d bonds", ErrInvalidConfig, len(initialWeights), u.Len())
	}

	result := &Result{
		RunID:     uuid.New().String(),
		Config:    config,
		StartedAt: time.Now(),
		History:   make([]StepRecord, 0, config.Steps),
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":     result.RunID,
		"steps":      config.Steps,
		"step_years": config.StepYears,
		"horizon":    float64(config.Steps) * config.StepYears,
	}).Info("Starting simulation")

	book := newBook(u, initialWeights)
	path := curve.NewGenerator(base, config.Seed).Generate(config.Steps, config.PathVolatility)
	engine := s.optimizer.Engine()

	for i, market := range path {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation cancelled at step %d: %w", i+1, err)
		}

		step := i + 1

		// time moves on: maturities shrink and every cached schedule is stale
		book.age(config.StepYears)
		engine.Cache().Clear()
		book.markToMarket(market, engine.Analytics())

		local := curve.NewGenerator(market, config.LocalSeed(step)).Generate(config.LocalScenarios, config.LocalVolatility)
		opt, err := s.optimizer.Optimize(book.universe, local, config.Confidence)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}

		ch := s.optimizer.Manager().Characteristics(book.universe)
		record := StepRecord{
			Step:               step,
			Turnover:           optimizer.Turnover(book.weights, opt.Weights),
			PortfolioDuration:  constraints.PortfolioDuration(opt.Weights, ch),
			PortfolioConvexity: constraints.PortfolioConvexity(opt.Weights, ch),
			BenchmarkYield:     market.Benchmark(),
			PortfolioCVaR:      opt.CVaR,
			Converged:          opt.Converged,
		}
		result.History = append(result.History, record)
		book.rebalance(opt.Weights)

		s.logger.WithFields(map[string]interface{}{
			"step":      step,
			"turnover":  round4(record.Turnover),
			"duration":  round4(record.PortfolioDuration),
			"benchmark": round4(record.BenchmarkYield),
			"solver":    opt.Solver,
		}).Debug("Step complete")
	}

	result.FinalWeights = append([]float64(nil), book.weights...)
	result.FinalUniverse = book.universe
	result.Duration = time.Since(result.StartedAt)

	s.logger.WithFields(map[string]interface{}{
		"run_id":         result.RunID,
		"steps":          len(result.History),
		"total_turnover": round4(result.TotalTurnover()),
		"cache_hits":     engine.Cache().Stats().Hits,
		"elapsed":        result.Duration.String(),
	}).Info("Simulation complete")

	return result, nil
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
