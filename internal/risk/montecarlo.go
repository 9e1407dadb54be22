package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/bondcvar/internal/bond"
	"github.com/wonny/bondcvar/internal/curve"
)

// reportedPercentiles are the loss percentiles recorded on every run
var reportedPercentiles = []int{1, 5, 10, 25, 50, 75, 90, 95, 99}

// MonteCarlo generates seeded scenarios around base and summarizes the
// portfolio loss distribution at every configured confidence level.
func (e *Engine) MonteCarlo(ctx context.Context, u bond.Universe, base curve.Curve, config MonteCarloConfig) (*MonteCarloResult, LossDistribution, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, LossDistribution{}, err
	}
	if u.Len() == 0 {
		return nil, LossDistribution{}, ErrEmptyUniverse
	}
	if err := ctx.Err(); err != nil {
		return nil, LossDistribution{}, fmt.Errorf("monte carlo: %w", err)
	}

	scenarios := curve.NewGenerator(base, config.Seed).Generate(config.NumScenarios, config.Volatility)
	dist := e.LossDistribution(u, scenarios)

	mean, std := stat.MeanStdDev(dist.Losses, nil)
	if len(dist.Losses) < 2 {
		std = 0
	}

	result := &MonteCarloResult{
		RunID:       uuid.New().String(),
		Config:      config,
		BaseValue:   dist.BaseValue,
		MeanLoss:    mean,
		StdDev:      std,
		Historical:  make([]VaRResult, len(config.Confidence)),
		Parametric:  make([]VaRResult, len(config.Confidence)),
		Percentiles: Percentiles(dist.Losses, reportedPercentiles),
		CreatedAt:   time.Now(),
	}

	for i, c := range config.Confidence {
		result.Historical[i] = Summarize(dist.Losses, c)
		result.Parametric[i] = ParametricFromMoments(mean, std, c)
	}

	return result, dist, nil
}
