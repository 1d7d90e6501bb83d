package model

import (
	"fmt"
	"strings"
)

// RiskLabel is the ordinal relationship-risk classification.
type RiskLabel int

// Risk labels in increasing order of risk.
const (
	RiskLow RiskLabel = iota
	RiskMedium
	RiskHigh
)

// RiskLabels lists every label in order.
var RiskLabels = []RiskLabel{RiskLow, RiskMedium, RiskHigh}

// IsValid reports whether r is a known label.
func (r RiskLabel) IsValid() bool {
	return r >= RiskLow && r <= RiskHigh
}

func (r RiskLabel) String() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	default:
		return fmt.Sprintf("RiskLabel(%d)", int(r))
	}
}

// ParseRiskLabel parses a label name case-insensitively.
func ParseRiskLabel(s string) (RiskLabel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	default:
		return RiskLow, fmt.Errorf("unknown risk label %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r RiskLabel) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid risk label %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RiskLabel) UnmarshalText(text []byte) error {
	label, err := ParseRiskLabel(string(text))
	if err != nil {
		return err
	}
	*r = label
	return nil
}

// PriorityTier buckets a topic score for recommendation selection.
type PriorityTier string

// Priority tiers.
const (
	PriorityHigh     PriorityTier = "High"
	PriorityModerate PriorityTier = "Moderate"
	PriorityLow      PriorityTier = "Low"
)
