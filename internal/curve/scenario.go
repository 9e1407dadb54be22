package curve

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// MinLevel floors the shocked long-run level so long rates stay positive
const MinLevel = 0.001

// ErrUnknownShock is returned by ApplyShock for an unrecognized kind.
// The base curve is still returned alongside it.
var ErrUnknownShock = errors.New("unknown shock kind")

// ShockKind names a deterministic curve transform used for stress tests
type ShockKind string

const (
	ShockParallel  ShockKind = "parallel"  // +level
	ShockSteepener ShockKind = "steepener" // +level, -slope
	ShockFlattener ShockKind = "flattener" // -level, +slope
)

// ShockKinds lists every supported deterministic shock
var ShockKinds = []ShockKind{ShockParallel, ShockSteepener, ShockFlattener}

// ParseShockKind normalizes user input ("Parallel", " steepener ") to a ShockKind
func ParseShockKind(s string) (ShockKind, error) {
	kind := ShockKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range ShockKinds {
		if k == kind {
			return k, nil
		}
	}
	return kind, fmt.Errorf("%w: %q", ErrUnknownShock, s)
}

// Generator produces stochastic and deterministic variations of a base curve
type Generator struct {
	base Curve
	seed int64
}

// NewGenerator creates a generator. The seed is the only source of
// randomness: the same (base, n, volatility, seed) always yields the same set.
func NewGenerator(base Curve, seed int64) *Generator {
	return &Generator{base: base, seed: seed}
}

// Base returns the unshocked curve
func (g *Generator) Base() Curve {
	return g.base
}

// Generate draws n independent (level, slope, curvature) shocks with the
// given standard deviation and applies them to the base factors. Tau is held
// fixed. Every call starts from a fresh source seeded with g.seed.
func (g *Generator) Generate(n int, volatility float64) []Curve {
	if n <= 0 {
		return []Curve{}
	}

	rng := rand.New(rand.NewSource(g.seed))
	base := g.base.p

	scenarios := make([]Curve, n)
	for i := 0; i < n; i++ {
		dLevel := rng.NormFloat64() * volatility
		dSlope := rng.NormFloat64() * volatility
		dCurve := rng.NormFloat64() * volatility

		scenarios[i] = Curve{p: Params{
			Beta0: math.Max(MinLevel, base.Beta0+dLevel),
			Beta1: base.Beta1 + dSlope,
			Beta2: base.Beta2 + dCurve,
			Tau:   base.Tau,
		}}
	}

	return scenarios
}

// ApplyShock returns a deterministically shocked copy of the base curve.
// An unknown kind yields the base curve unchanged together with ErrUnknownShock,
// so callers that ignore the error still get the safe default.
func (g *Generator) ApplyShock(kind ShockKind, magnitude float64) (Curve, error) {
	p := g.base.p

	switch kind {
	case ShockParallel:
		p.Beta0 += magnitude
	case ShockSteepener:
		p.Beta0 += magnitude
		p.Beta1 -= magnitude
	case ShockFlattener:
		p.Beta0 -= magnitude
		p.Beta1 += magnitude
	default:
		return g.base, fmt.Errorf("%w: %q", ErrUnknownShock, kind)
	}

	return Curve{p: p}, nil
}
