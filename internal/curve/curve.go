package curve

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned when Nelson-Siegel parameters cannot define a curve
var ErrInvalidParams = errors.New("invalid curve parameters")

// Tenors is the fixed display grid (years)
var Tenors = []float64{0.25, 0.5, 1, 2, 3, 5, 7, 10, 20, 30}

// BenchmarkTenor is the maturity used as the reference yield (10Y)
const BenchmarkTenor = 10.0

// Params are the Nelson-Siegel factors
type Params struct {
	Beta0 float64 `json:"beta0" yaml:"beta0"` // level
	Beta1 float64 `json:"beta1" yaml:"beta1"` // slope
	Beta2 float64 `json:"beta2" yaml:"beta2"` // curvature
	Tau   float64 `json:"tau" yaml:"tau"`     // decay scale (years)
}

// Curve is an immutable Nelson-Siegel term structure.
// Scenario curves are independent values; nothing mutates a Curve after New.
type Curve struct {
	p Params
}

// Point is one (tenor, yield) pair of the display grid
type Point struct {
	Tenor float64 `json:"tenor"`
	Yield float64 `json:"yield"`
}

// New validates the parameters and builds a curve
func New(p Params) (Curve, error) {
	for _, v := range []float64{p.Beta0, p.Beta1, p.Beta2, p.Tau} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Curve{}, fmt.Errorf("%w: non-finite parameter in %+v", ErrInvalidParams, p)
		}
	}
	if p.Tau <= 0 {
		return Curve{}, fmt.Errorf("%w: tau must be > 0, got %v", ErrInvalidParams, p.Tau)
	}
	return Curve{p: p}, nil
}

// MustNew is New for compile-time constants; it panics on invalid input
func MustNew(p Params) Curve {
	c, err := New(p)
	if err != nil {
		panic(err)
	}
	return c
}

// Params returns a copy of the curve factors
func (c Curve) Params() Params {
	return c.p
}

// Yield returns the zero yield for a maturity in years.
// maturity <= 0 returns the short-end limit beta0+beta1.
func (c Curve) Yield(maturity float64) float64 {
	if maturity <= 0 {
		return c.p.Beta0 + c.p.Beta1
	}

	x := maturity / c.p.Tau
	decay := math.Exp(-x)

	term1 := (1 - decay) / x
	term2 := term1 - decay

	return c.p.Beta0 + c.p.Beta1*term1 + c.p.Beta2*term2
}

// Yields evaluates the curve at every maturity (bulk form of Yield)
func (c Curve) Yields(maturities []float64) []float64 {
	out := make([]float64, len(maturities))
	for i, m := range maturities {
		out[i] = c.Yield(m)
	}
	return out
}

// Points evaluates the curve on the standard tenor grid
func (c Curve) Points() []Point {
	points := make([]Point, len(Tenors))
	for i, t := range Tenors {
		points[i] = Point{Tenor: t, Yield: c.Yield(t)}
	}
	return points
}

// Benchmark returns the 10Y reference yield
func (c Curve) Benchmark() float64 {
	return c.Yield(BenchmarkTenor)
}

func (c Curve) String() string {
	return fmt.Sprintf("NS(b0=%.4f, b1=%.4f, b2=%.4f, tau=%.2f)", c.p.Beta0, c.p.Beta1, c.p.Beta2, c.p.Tau)
}
