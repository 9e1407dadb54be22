package bond

import (
	"fmt"
	"math"
)

// PriceFloor is the smallest price ever used as a divisor
const PriceFloor = 0.01

// ValidationError names the offending field of a malformed bond
type ValidationError struct {
	ID      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("bond.%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("bond[%s].%s: %s", e.ID, e.Field, e.Message)
}

// Terms are the economic terms that fully determine a cash-flow schedule
type Terms struct {
	Principal float64 `json:"principal"`
	Coupon    float64 `json:"coupon"`    // annual rate, decimal
	Frequency int     `json:"frequency"` // payments per year
	Maturity  float64 `json:"maturity"`  // years
}

// Bond is one fixed-rate instrument held in the universe
type Bond struct {
	ID          string  `json:"id" yaml:"id"`
	Principal   float64 `json:"principal" yaml:"principal"`
	Coupon      float64 `json:"coupon" yaml:"coupon"`
	Frequency   int     `json:"frequency" yaml:"frequency"`
	Maturity    float64 `json:"maturity" yaml:"maturity"`
	MarketPrice float64 `json:"market_price" yaml:"market_price"`
	Quantity    float64 `json:"quantity" yaml:"quantity"`
	Weight      float64 `json:"weight" yaml:"weight"`
}

// New builds and validates a bond
func New(id string, principal, coupon float64, frequency int, maturity, price, quantity float64) (Bond, error) {
	b := Bond{
		ID:          id,
		Principal:   principal,
		Coupon:      coupon,
		Frequency:   frequency,
		Maturity:    maturity,
		MarketPrice: price,
		Quantity:    quantity,
	}
	if err := b.Validate(); err != nil {
		return Bond{}, err
	}
	return b, nil
}

// Validate checks the structural invariants of a bond.
// A non-positive market price is allowed; it is floored at PriceFloor where divided by.
func (b Bond) Validate() error {
	if b.ID == "" {
		return &ValidationError{Field: "id", Message: "required"}
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"principal", b.Principal},
		{"coupon", b.Coupon},
		{"maturity", b.Maturity},
		{"market_price", b.MarketPrice},
		{"quantity", b.Quantity},
		{"weight", b.Weight},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ValidationError{ID: b.ID, Field: f.name, Message: "must be finite"}
		}
	}
	if b.Principal <= 0 {
		return &ValidationError{ID: b.ID, Field: "principal", Message: "must be > 0"}
	}
	if b.Coupon < 0 {
		return &ValidationError{ID: b.ID, Field: "coupon", Message: "must be >= 0"}
	}
	if b.Frequency <= 0 {
		return &ValidationError{ID: b.ID, Field: "frequency", Message: "must be > 0"}
	}
	if b.Maturity < 0 {
		return &ValidationError{ID: b.ID, Field: "maturity", Message: "must be >= 0"}
	}
	return nil
}

// Terms returns the schedule-defining terms of the bond
func (b Bond) Terms() Terms {
	return Terms{
		Principal: b.Principal,
		Coupon:    b.Coupon,
		Frequency: b.Frequency,
		Maturity:  b.Maturity,
	}
}

// FlooredPrice returns the market price floored at PriceFloor
func (b Bond) FlooredPrice() float64 {
	return math.Max(b.MarketPrice, PriceFloor)
}

// MarketValue is price x quantity
func (b Bond) MarketValue() float64 {
	return b.MarketPrice * b.Quantity
}

// =============================================================================
// Universe
// =============================================================================

// Universe is the ordered set of bonds under management.
// Positions in the slice define the weight-vector ordering everywhere.
type Universe struct {
	Bonds []Bond `json:"bonds" yaml:"bonds"`
}

// NewUniverse validates every bond and rejects duplicate ids
func NewUniverse(bonds []Bond) (Universe, error) {
	u := Universe{Bonds: append([]Bond(nil), bonds...)}
	if err := u.Validate(); err != nil {
		return Universe{}, err
	}
	return u, nil
}

// Validate checks every bond and id uniqueness
func (u Universe) Validate() error {
	seen := make(map[string]struct{}, len(u.Bonds))
	for _, b := range u.Bonds {
		if err := b.Validate(); err != nil {
			return err
		}
		if _, dup := seen[b.ID]; dup {
			return &ValidationError{ID: b.ID, Field: "id", Message: "duplicate"}
		}
		seen[b.ID] = struct{}{}
	}
	return nil
}

// Len returns the number of bonds
func (u Universe) Len() int {
	return len(u.Bonds)
}

// IDs returns bond ids in universe order
func (u Universe) IDs() []string {
	ids := make([]string, len(u.Bonds))
	for i, b := range u.Bonds {
		ids[i] = b.ID
	}
	return ids
}

// Index returns the position of id, or -1
func (u Universe) Index(id string) int {
	for i, b := range u.Bonds {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can age or reprice without aliasing
func (u Universe) Clone() Universe {
	return Universe{Bonds: append([]Bond(nil), u.Bonds...)}
}

// BaseValue is the sum of market value over all positions
func (u Universe) BaseValue() float64 {
	var total float64
	for _, b := range u.Bonds {
		total += b.MarketValue()
	}
	return total
}

// Columns is a columnar view of the universe for bulk computation.
// Every slice has the same length and ordering as Universe.Bonds.
type Columns struct {
	IDs       []string
	Principal []float64
	Coupon    []float64
	Frequency []int
	Maturity  []float64
	Price     []float64
	Quantity  []float64
	Weight    []float64
}

// Columns builds the columnar view
func (u Universe) Columns() Columns {
	n := len(u.Bonds)
	c := Columns{
		IDs:       make([]string, n),
		Principal: make([]float64, n),
		Coupon:    make([]float64, n),
		Frequency: make([]int, n),
		Maturity:  make([]float64, n),
		Price:     make([]float64, n),
		Quantity:  make([]float64, n),
		Weight:    make([]float64, n),
	}
	for i, b := range u.Bonds {
		c.IDs[i] = b.ID
		c.Principal[i] = b.Principal
		c.Coupon[i] = b.Coupon
		c.Frequency[i] = b.Frequency
		c.Maturity[i] = b.Maturity
		c.Price[i] = b.MarketPrice
		c.Quantity[i] = b.Quantity
		c.Weight[i] = b.Weight
	}
	return c
}

// Terms returns the terms of bond i
func (c Columns) Terms(i int) Terms {
	return Terms{
		Principal: c.Principal[i],
		Coupon:    c.Coupon[i],
		Frequency: c.Frequency[i],
		Maturity:  c.Maturity[i],
	}
}

// Len returns the number of rows
func (c Columns) Len() int {
	return len(c.IDs)
}
