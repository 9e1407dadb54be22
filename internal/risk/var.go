package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// =============================================================================
// VaR / Expected Shortfall (historical, over a scenario loss sample)
// =============================================================================

// VaR is the loss percentile at 100*confidence, linearly interpolated
// between order statistics. Empty input returns 0.
func VaR(losses []float64, confidence float64) float64 {
	if len(losses) == 0 {
		return 0
	}
	return Percentile(sortedCopy(losses), confidence*100)
}

// ExpectedShortfall is the mean of all losses at or above VaR.
// An empty tail falls back to VaR itself.
func ExpectedShortfall(losses []float64, confidence float64) float64 {
	v := VaR(losses, confidence)
	return tailMean(losses, v)
}

// Summarize computes VaR and CVaR with a single sort
func Summarize(losses []float64, confidence float64) VaRResult {
	if len(losses) == 0 {
		return VaRResult{Confidence: confidence}
	}

	sorted := sortedCopy(losses)
	v := Percentile(sorted, confidence*100)

	return VaRResult{
		Confidence: confidence,
		VaR:        v,
		CVaR:       tailMean(sorted, v),
	}
}

func tailMean(losses []float64, threshold float64) float64 {
	var sum float64
	var count int
	for _, l := range losses {
		if l >= threshold {
			sum += l
			count++
		}
	}
	if count == 0 {
		return threshold
	}
	return sum / float64(count)
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

// =============================================================================
// Parametric VaR (normal approximation)
// =============================================================================

// ParametricVaR fits a normal distribution to the loss sample.
// VaR = mu + z*sigma, CVaR = mu + sigma*phi(z)/(1-c).
func ParametricVaR(losses []float64, confidence float64) VaRResult {
	if len(losses) < 2 || confidence <= 0 || confidence >= 1 {
		return VaRResult{Confidence: confidence}
	}

	mu, sigma := stat.MeanStdDev(losses, nil)
	return ParametricFromMoments(mu, sigma, confidence)
}

// ParametricFromMoments computes normal VaR/CVaR from a mean and std dev
func ParametricFromMoments(mean, stdDev, confidence float64) VaRResult {
	z := distuv.UnitNormal.Quantile(confidence)
	phi := distuv.UnitNormal.Prob(z)

	return VaRResult{
		Confidence: confidence,
		VaR:        mean + z*stdDev,
		CVaR:       mean + stdDev*phi/(1-confidence),
	}
}

// =============================================================================
// Statistics utilities
// =============================================================================

// Percentile returns the p-th percentile (0..100) of an ascending slice,
// interpolating linearly between the two nearest ranks.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// linear interpolation
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Percentiles evaluates several integer percentiles of an unsorted sample
func Percentiles(values []float64, ps []int) map[int]float64 {
	sorted := sortedCopy(values)
	out := make(map[int]float64, len(ps))
	for _, p := range ps {
		out[p] = Percentile(sorted, float64(p))
	}
	return out
}
