package engine

import (
	"sync"

	"github.com/Veraticus/concord/internal/features"
	"github.com/Veraticus/concord/internal/model"
)

// MockSnapshot is a test Snapshot that returns fixed predictions and records
// how often it was consulted.
type MockSnapshot struct {
	Err           error
	Probabilities []float64
	Topics        []float64
	FeatureLayout features.Layout
	calls         int
	Risk          model.RiskLabel
	mu            sync.Mutex
}

// NewMockSnapshot creates a mock predicting label with the given confidence
// and topic scores.
func NewMockSnapshot(layout features.Layout, label model.RiskLabel, confidence float64, topics ...float64) *MockSnapshot {
	proba := make([]float64, len(model.RiskLabels))
	rest := (1 - confidence) / float64(len(proba)-1)
	for i := range proba {
		proba[i] = rest
	}
	proba[label] = confidence
	return &MockSnapshot{
		FeatureLayout: layout,
		Risk:          label,
		Probabilities: proba,
		Topics:        topics,
	}
}

// Layout returns the configured layout.
func (m *MockSnapshot) Layout() features.Layout {
	return m.FeatureLayout
}

// PredictRisk returns the configured label and probabilities.
func (m *MockSnapshot) PredictRisk(features.Vector) (model.RiskLabel, []float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return model.RiskLow, nil, m.Err
	}
	return m.Risk, append([]float64(nil), m.Probabilities...), nil
}

// PredictTopics returns the configured topic scores.
func (m *MockSnapshot) PredictTopics(features.Vector) ([]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]float64(nil), m.Topics...), nil
}

// Calls returns how many risk predictions were requested.
func (m *MockSnapshot) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
