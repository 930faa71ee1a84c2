package multihop

import (
	"fmt"
	"strings"
)

// Completeness classifies how well accumulated evidence answers a question.
type Completeness string

const (
	// CompletenessComplete means the evidence fully answers the question.
	CompletenessComplete Completeness = "complete"

	// CompletenessPartial means the evidence answers part of the question.
	CompletenessPartial Completeness = "partial"

	// CompletenessIncomplete means the evidence does not answer the question.
	CompletenessIncomplete Completeness = "incomplete"
)

// IsValid returns true if the completeness value is one of the three
// admissible verdicts.
func (c Completeness) IsValid() bool {
	switch c {
	case CompletenessComplete, CompletenessPartial, CompletenessIncomplete:
		return true
	default:
		return false
	}
}

// String returns the string representation of the verdict.
func (c Completeness) String() string {
	return string(c)
}

// ParseCompleteness parses a string into a Completeness value.
// Returns an error if the string is not a valid verdict.
func ParseCompleteness(s string) (Completeness, error) {
	c := Completeness(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid completeness: %s", s)
	}
	return c, nil
}

// NormalizeCompleteness maps free-form model output onto a valid verdict.
// Matching is case-insensitive and tolerates surrounding prose; "incomplete"
// is checked before "complete" because the former contains the latter.
// Unrecognized output maps to partial, the conservative middle ground.
func NormalizeCompleteness(s string) Completeness {
	normalized := strings.ToLower(strings.TrimSpace(s))

	switch {
	case strings.Contains(normalized, string(CompletenessIncomplete)):
		return CompletenessIncomplete
	case strings.Contains(normalized, string(CompletenessPartial)):
		return CompletenessPartial
	case strings.Contains(normalized, string(CompletenessComplete)):
		return CompletenessComplete
	default:
		return CompletenessPartial
	}
}

// AllCompleteness returns the three admissible verdicts.
func AllCompleteness() []Completeness {
	return []Completeness{
		CompletenessComplete,
		CompletenessPartial,
		CompletenessIncomplete,
	}
}
