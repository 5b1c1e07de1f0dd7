package overfit

import "fmt"

// Severity is the ordinal bucket for a penalty or degradation value.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

// String returns the report spelling of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Thresholds holds the inclusive lower bounds for each severity bucket.
// Bounds must be ordered Mild <= Moderate <= Severe.
type Thresholds struct {
	Mild     float64 `json:"mild" yaml:"mild"`
	Moderate float64 `json:"moderate" yaml:"moderate"`
	Severe   float64 `json:"severe" yaml:"severe"`
}

// DefaultThresholds returns permissive severity bounds suitable for untuned
// runs.
func DefaultThresholds() Thresholds {
	return Thresholds{Mild: 0.10, Moderate: 0.25, Severe: 0.50}
}

// ClassifySeverity buckets a value, checking from the highest threshold down
// with inclusive lower bounds.
func ClassifySeverity(value float64, th Thresholds) Severity {
	switch {
	case value >= th.Severe:
		return SeveritySevere
	case value >= th.Moderate:
		return SeverityModerate
	case value >= th.Mild:
		return SeverityMild
	default:
		return SeverityNone
	}
}
