package bond

// Analytics bundles the pricing functions with an optional schedule cache.
// The zero value is usable and generates schedules on every call.
type Analytics struct {
	cache *CashFlowCache
}

// NewAnalytics creates analytics backed by cache (nil disables caching)
func NewAnalytics(cache *CashFlowCache) Analytics {
	return Analytics{cache: cache}
}

// Cache returns the backing cache, possibly nil
func (a Analytics) Cache() *CashFlowCache {
	return a.cache
}

// Schedule returns the cash flows for t, through the cache when present
func (a Analytics) Schedule(t Terms) Schedule {
	if a.cache == nil {
		return GenerateCashFlows(t)
	}
	return a.cache.Get(t)
}

// PriceAt prices bond b at yield y
func (a Analytics) PriceAt(b Bond, y float64) float64 {
	return Price(y, a.Schedule(b.Terms()), b.Frequency)
}

// RiskMetrics derives sensitivities of b from its market price
func (a Analytics) RiskMetrics(b Bond) RiskMetrics {
	return metricsFromSchedule(b.MarketPrice, a.Schedule(b.Terms()), b.Frequency)
}

// YieldOf solves the yield of b at its market price
func (a Analytics) YieldOf(b Bond) YTMResult {
	return SolveYTM(b.MarketPrice, a.Schedule(b.Terms()), b.Frequency, DefaultGuess)
}
