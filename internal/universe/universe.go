package universe

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/bondcvar/internal/bond"
)

var ErrEmpty = errors.New("universe has no bonds")

// file is the on-disk layout
//
//	bonds:
//	  - id: UST_10Y
//	    principal: 1000
//	    coupon: 0.045
//	    frequency: 2
//	    maturity: 10
//	    market_price: 1025.00
//	    quantity: 1000
type file struct {
	Bonds []bond.Bond `yaml:"bonds"`
}

// Load reads a YAML universe and returns it with the raw bytes.
// Unknown fields fail immediately.
func Load(path string) (bond.Universe, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bond.Universe{}, nil, fmt.Errorf("read universe: %w", err)
	}

	u, err := Parse(data)
	if err != nil {
		return bond.Universe{}, data, err
	}
	return u, data, nil
}

// Parse decodes and validates universe YAML.
// Bonds without an explicit weight get an equal share.
func Parse(data []byte) (bond.Universe, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return bond.Universe{}, fmt.Errorf("decode universe: %w", err)
	}
	if len(f.Bonds) == 0 {
		return bond.Universe{}, ErrEmpty
	}

	assignEqualWeights(f.Bonds)

	u, err := bond.NewUniverse(f.Bonds)
	if err != nil {
		return bond.Universe{}, fmt.Errorf("validate universe: %w", err)
	}
	return u, nil
}

func assignEqualWeights(bonds []bond.Bond) {
	for _, b := range bonds {
		if b.Weight != 0 {
			return
		}
	}
	eq := 1 / float64(len(bonds))
	for i := range bonds {
		bonds[i].Weight = eq
	}
}

// Default is the built-in US-Treasury-style ladder, equally weighted
func Default() bond.Universe {
	ids := []string{"UST_2Y", "UST_3Y", "UST_5Y", "UST_7Y", "UST_10Y", "UST_20Y", "UST_30Y"}
	coupons := []float64{0.035, 0.0375, 0.04, 0.0425, 0.045, 0.0475, 0.05}
	maturities := []float64{2, 3, 5, 7, 10, 20, 30}
	prices := []float64{985.50, 990.25, 1010.00, 1005.75, 1025.00, 960.50, 940.00}

	bonds := make([]bond.Bond, len(ids))
	for i := range ids {
		bonds[i] = bond.Bond{
			ID:          ids[i],
			Principal:   1000,
			Coupon:      coupons[i],
			Frequency:   2,
			Maturity:    maturities[i],
			MarketPrice: prices[i],
			Quantity:    1000,
		}
	}
	assignEqualWeights(bonds)

	return bond.Universe{Bonds: bonds}
}

// Weights extracts the weight column
func Weights(u bond.Universe) []float64 {
	return u.Columns().Weight
}

// WithWeights returns a copy of u carrying w
func WithWeights(u bond.Universe, w []float64) bond.Universe {
	out := u.Clone()
	for i := range out.Bonds {
		if i < len(w) {
			out.Bonds[i].Weight = w[i]
		}
	}
	return out
}
