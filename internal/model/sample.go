package model

import "time"

// SampleSource records where a training sample came from.
type SampleSource string

// Sample sources.
const (
	SourceReal      SampleSource = "real"
	SourceSynthetic SampleSource = "synthetic"
)

// TrainingSample is one labelled couple. It is never mutated after creation.
type TrainingSample struct {
	Source      SampleSource  `json:"source" yaml:"source"`
	TopicScores []float64     `json:"topic_scores" yaml:"topic_scores"`
	Responses   ResponsePair  `json:"responses" yaml:"responses"`
	Profile     CoupleProfile `json:"profile" yaml:"profile"`
	Risk        RiskLabel     `json:"risk" yaml:"risk"`
}

// Couple is a real couple stored by the ingestion layer.
type Couple struct {
	CreatedAt time.Time     `json:"created_at" yaml:"-"`
	ID        string        `json:"id" yaml:"id,omitempty"`
	Reference string        `json:"reference,omitempty" yaml:"reference,omitempty"`
	Responses ResponsePair  `json:"responses" yaml:"responses"`
	Profile   CoupleProfile `json:"profile" yaml:"profile"`
}

// CountByRisk tallies samples per label.
func CountByRisk(samples []TrainingSample) map[RiskLabel]int {
	counts := make(map[RiskLabel]int, len(RiskLabels))
	for _, s := range samples {
		counts[s.Risk]++
	}
	return counts
}
