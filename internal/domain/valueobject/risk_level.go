package valueobject

import (
	"fmt"
	"strings"
)

// RiskLevel is an immutable value object for the four-step severity scale
// shared by the risk-scoring skills.
type RiskLevel struct {
	value string
	rank  int
}

var (
	RiskLevelLow      = RiskLevel{value: "LOW", rank: 1}
	RiskLevelMedium   = RiskLevel{value: "MEDIUM", rank: 2}
	RiskLevelHigh     = RiskLevel{value: "HIGH", rank: 3}
	RiskLevelCritical = RiskLevel{value: "CRITICAL", rank: 4}
)

// RiskLevelFromString parses a level name, ignoring case. Reference tables
// use it to reject tier labels outside the scale.
func RiskLevelFromString(s string) (RiskLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return RiskLevelLow, nil
	case "MEDIUM":
		return RiskLevelMedium, nil
	case "HIGH":
		return RiskLevelHigh, nil
	case "CRITICAL":
		return RiskLevelCritical, nil
	default:
		return RiskLevel{}, fmt.Errorf("invalid risk level: %q", s)
	}
}

// String returns the string representation.
func (r RiskLevel) String() string {
	return r.value
}

// AtLeast reports whether r is as severe as other or more.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.rank >= other.rank
}

// IsZero returns true if the RiskLevel has not been set.
func (r RiskLevel) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskLevel.
func (r RiskLevel) Equal(other RiskLevel) bool {
	return r.value == other.value
}
