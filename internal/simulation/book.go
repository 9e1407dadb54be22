package simulation

import (
	"github.com/wonny/bondcvar/internal/bond"
	"github.com/wonny/bondcvar/internal/curve"
)

// book is the simulated holding: an aged, repriced copy of the universe and
// the weights currently held
type book struct {
	universe bond.Universe
	weights  []float64
}

func newBook(u bond.Universe, weights []float64) *book {
	b := &book{
		universe: u.Clone(),
		weights:  append([]float64(nil), weights...),
	}
	b.syncWeights()
	return b
}

// age shortens every maturity by years; matured paper rolls into RolledMaturity
func (b *book) age(years float64) {
	for i := range b.universe.Bonds {
		m := b.universe.Bonds[i].Maturity - years
		if m <= 0 {
			m = RolledMaturity
		}
		b.universe.Bonds[i].Maturity = m
	}
}

// markToMarket reprices every bond at the market curve yield for its maturity
func (b *book) markToMarket(market curve.Curve, analytics bond.Analytics) {
	for i := range b.universe.Bonds {
		bd := &b.universe.Bonds[i]
		bd.MarketPrice = analytics.PriceAt(*bd, market.Yield(bd.Maturity))
	}
}

// rebalance replaces the held weights
func (b *book) rebalance(weights []float64) {
	b.weights = append(b.weights[:0], weights...)
	b.syncWeights()
}

func (b *book) syncWeights() {
	for i := range b.universe.Bonds {
		b.universe.Bonds[i].Weight = b.weights[i]
	}
}
