package constraints

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Mandate defaults
const (
	DefaultMaxWeight          = 1.0
	DefaultMinWeight          = 0.0
	DefaultDurationTolerance  = 0.05
	DefaultConvexityTolerance = 0.5
)

// Mandate is the investment policy the optimizer must honor.
// Nil targets mean "no constraint".
type Mandate struct {
	TargetDuration     *float64 `yaml:"target_duration" json:"target_duration,omitempty"`
	TargetConvexity    *float64 `yaml:"target_convexity" json:"target_convexity,omitempty"`
	MaxWeight          float64  `yaml:"max_weight" json:"max_weight"`
	MinWeight          float64  `yaml:"min_weight" json:"min_weight"`
	DurationTolerance  float64  `yaml:"duration_tolerance" json:"duration_tolerance"`
	ConvexityTolerance float64  `yaml:"convexity_tolerance" json:"convexity_tolerance"`
}

// DefaultMandate returns an unconstrained long-only mandate
func DefaultMandate() Mandate {
	return Mandate{
		MaxWeight:          DefaultMaxWeight,
		MinWeight:          DefaultMinWeight,
		DurationTolerance:  DefaultDurationTolerance,
		ConvexityTolerance: DefaultConvexityTolerance,
	}
}

// ReferenceMandate is the pipeline default: 7.5y duration, at most 40% per bond
func ReferenceMandate() Mandate {
	m := DefaultMandate().WithTargetDuration(7.5)
	m.MaxWeight = 0.4
	return m
}

// WithTargetDuration returns a copy with the duration target set
func (m Mandate) WithTargetDuration(d float64) Mandate {
	m.TargetDuration = &d
	return m
}

// WithTargetConvexity returns a copy with the convexity floor/target set
func (m Mandate) WithTargetConvexity(c float64) Mandate {
	m.TargetConvexity = &c
	return m
}

// ValidationError is a mandate field that cannot be used
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("mandate.%s: %s", e.Field, e.Message)
}

// Warning is a legal but questionable setting
type Warning struct {
	Code    string
	Message string
}

// LoadMandate reads a YAML mandate on top of the defaults.
// Unknown fields fail immediately so typos never silently disable a limit.
func LoadMandate(path string) (*Mandate, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read mandate: %w", err)
	}

	m, err := ParseMandate(data)
	if err != nil {
		return nil, data, err
	}
	return m, data, nil
}

// ParseMandate decodes and validates YAML mandate bytes
func ParseMandate(data []byte) (*Mandate, error) {
	m := DefaultMandate()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode mandate: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks required constraints on the mandate
func (m Mandate) Validate() error {
	check := []struct {
		field string
		value float64
	}{
		{"max_weight", m.MaxWeight},
		{"min_weight", m.MinWeight},
		{"duration_tolerance", m.DurationTolerance},
		{"convexity_tolerance", m.ConvexityTolerance},
	}
	for _, c := range check {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &ValidationError{c.field, "must be finite"}
		}
	}

	if m.MaxWeight <= 0 || m.MaxWeight > 1 {
		return &ValidationError{"max_weight", "must be in (0, 1]"}
	}
	if m.MinWeight < 0 {
		return &ValidationError{"min_weight", "must be >= 0"}
	}
	if m.MinWeight > m.MaxWeight {
		return &ValidationError{"min_weight", "must be <= max_weight"}
	}
	if m.DurationTolerance < 0 {
		return &ValidationError{"duration_tolerance", "must be >= 0"}
	}
	if m.ConvexityTolerance < 0 {
		return &ValidationError{"convexity_tolerance", "must be >= 0"}
	}
	if m.TargetDuration != nil && (*m.TargetDuration < 0 || math.IsNaN(*m.TargetDuration)) {
		return &ValidationError{"target_duration", "must be >= 0"}
	}
	if m.TargetConvexity != nil && (*m.TargetConvexity < 0 || math.IsNaN(*m.TargetConvexity)) {
		return &ValidationError{"target_convexity", "must be >= 0"}
	}
	return nil
}

// Warn flags settings that make the mandate infeasible or meaningless for n bonds
func (m Mandate) Warn(n int) []Warning {
	var warnings []Warning

	if n > 0 && float64(n)*m.MaxWeight < 1-1e-9 {
		warnings = append(warnings, Warning{
			Code:    "MAX_WEIGHT_INFEASIBLE",
			Message: fmt.Sprintf("%d bonds x max_weight %.2f < 1: budget cannot be met", n, m.MaxWeight),
		})
	}
	if n > 0 && float64(n)*m.MinWeight > 1+1e-9 {
		warnings = append(warnings, Warning{
			Code:    "MIN_WEIGHT_INFEASIBLE",
			Message: fmt.Sprintf("%d bonds x min_weight %.2f > 1: budget cannot be met", n, m.MinWeight),
		})
	}
	if m.TargetDuration != nil && m.DurationTolerance == 0 {
		warnings = append(warnings, Warning{
			Code:    "ZERO_DURATION_TOLERANCE",
			Message: "duration_tolerance 0 reports any numerical residue as a mismatch",
		})
	}
	if m.TargetDuration == nil && m.TargetConvexity == nil && m.MaxWeight == 1 {
		warnings = append(warnings, Warning{
			Code:    "UNCONSTRAINED",
			Message: "no duration, convexity or concentration limit set",
		})
	}

	return warnings
}

// Hash fingerprints the mandate (SHA-256 of canonical JSON)
func Hash(m Mandate) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
