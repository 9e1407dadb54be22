package bond

import (
	"math"
	"sync"
	"sync/atomic"
)

// CashFlow is one dated payment; Time is in years from valuation
type CashFlow struct {
	Time   float64 `json:"time"`
	Amount float64 `json:"amount"`
}

// Schedule is an ordered list of payments.
// The terminal entry carries the principal redemption.
type Schedule []CashFlow

// GenerateCashFlows builds the coupon schedule for the given terms.
// periods = round(maturity x frequency); zero periods yields an empty schedule.
func GenerateCashFlows(t Terms) Schedule {
	if t.Frequency <= 0 {
		return Schedule{}
	}

	freq := float64(t.Frequency)
	periods := int(math.Round(t.Maturity * freq))
	if periods <= 0 {
		return Schedule{}
	}

	coupon := t.Coupon / freq * t.Principal

	sched := make(Schedule, periods)
	for p := 1; p <= periods; p++ {
		amount := coupon
		if p == periods {
			amount += t.Principal
		}
		sched[p-1] = CashFlow{Time: float64(p) / freq, Amount: amount}
	}
	return sched
}

// =============================================================================
// Cash-flow cache
// =============================================================================

// CacheStats is a snapshot of cache activity
type CacheStats struct {
	Entries    int    `json:"entries"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Generation uint64 `json:"generation"`
}

// HitRate returns hits / (hits + misses), 0 when unused
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// CashFlowCache memoizes schedules keyed by their full Terms.
// A changed maturity produces a different key, so an aged bond can never be
// served a stale schedule. Clear drops every entry and bumps the generation.
type CashFlowCache struct {
	mu         sync.RWMutex
	entries    map[Terms]Schedule
	hits       atomic.Uint64
	misses     atomic.Uint64
	generation uint64
}

// NewCashFlowCache creates an empty cache
func NewCashFlowCache() *CashFlowCache {
	return &CashFlowCache{entries: make(map[Terms]Schedule)}
}

// Get returns the schedule for t, generating and storing it on a miss.
// The returned slice is shared and must not be modified.
func (c *CashFlowCache) Get(t Terms) Schedule {
	c.mu.RLock()
	sched, ok := c.entries[t]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return sched
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// another caller may have filled it between the two locks
	if sched, ok = c.entries[t]; ok {
		c.hits.Add(1)
		return sched
	}

	c.misses.Add(1)
	sched = GenerateCashFlows(t)
	c.entries[t] = sched
	return sched
}

// Clear drops every cached schedule and starts a new generation
func (c *CashFlowCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Terms]Schedule)
	c.generation++
}

// Len returns the number of cached schedules
func (c *CashFlowCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of hit/miss counters
func (c *CashFlowCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Entries:    len(c.entries),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Generation: c.generation,
	}
}
