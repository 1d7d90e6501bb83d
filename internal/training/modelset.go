package training

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/features"
	"github.com/Veraticus/concord/internal/ml"
	"github.com/Veraticus/concord/internal/model"
)

// ModelSet is an immutable trained snapshot: the risk classifier, the
// per-topic regressors and the encoding they were fit against.
type ModelSet struct {
	TrainedAt     time.Time                `json:"trained_at"`
	Risk          *ml.ForestClassifier     `json:"risk"`
	TopicScores   *ml.MultiOutputRegressor `json:"topic_scores"`
	ClassCounts   map[string]int           `json:"class_counts"`
	ID            string                   `json:"id"`
	Questionnaire model.Questionnaire      `json:"questionnaire"`
	Warnings      []string                 `json:"warnings,omitempty"`
	Labels        ml.LabelEncoder          `json:"labels"`
	RiskParams    ml.ForestParams          `json:"risk_params"`
	TopicParams   ml.ForestParams          `json:"topic_params"`
	FeatureLayout features.Layout          `json:"layout"`
	CVAccuracy    float64                  `json:"cv_accuracy"`
	CVAccuracyStd float64                  `json:"cv_accuracy_std"`
	TopicCVMSE    float64                  `json:"topic_cv_mse"`
	SampleCount   int                      `json:"sample_count"`
	RealCount     int                      `json:"real_count"`
	Rebalanced    bool                     `json:"rebalanced"`
}

// Layout returns the feature layout the snapshot was fit on.
func (m *ModelSet) Layout() features.Layout {
	return m.FeatureLayout
}

// PredictRisk returns the predicted label and the class probabilities indexed
// by RiskLabel.
func (m *ModelSet) PredictRisk(v features.Vector) (model.RiskLabel, []float64, error) {
	if err := m.checkWidth(v); err != nil {
		return model.RiskLow, nil, err
	}

	encoded := m.Risk.PredictProba(v)
	proba := make([]float64, len(model.RiskLabels))
	for i, p := range encoded {
		label := m.Labels.Inverse(i)
		if label >= 0 && label < len(proba) {
			proba[label] = p
		}
	}

	best := model.RiskLabel(m.Labels.Inverse(argmax(encoded)))
	return best, proba, nil
}

// PredictTopics returns the raw per-topic regressor outputs.
func (m *ModelSet) PredictTopics(v features.Vector) ([]float64, error) {
	if err := m.checkWidth(v); err != nil {
		return nil, err
	}
	return m.TopicScores.Predict(v), nil
}

func (m *ModelSet) checkWidth(v features.Vector) error {
	if want := m.FeatureLayout.Width(); len(v) != want {
		return common.Encoding("feature vector has %d values, model expects %d", len(v), want)
	}
	return nil
}

// Marshal serializes the snapshot.
func (m *ModelSet) Marshal() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model set: %w", err)
	}
	return data, nil
}

// Record returns the persistence record for the snapshot.
func (m *ModelSet) Record() (model.ModelRecord, error) {
	payload, err := m.Marshal()
	if err != nil {
		return model.ModelRecord{}, err
	}
	return model.ModelRecord{
		ID:            m.ID,
		TrainedAt:     m.TrainedAt,
		Payload:       payload,
		CVAccuracy:    m.CVAccuracy,
		LayoutItems:   m.FeatureLayout.Items,
		LayoutTopics:  m.FeatureLayout.Topics,
		LayoutVersion: m.FeatureLayout.Version,
	}, nil
}

// Unmarshal restores a snapshot and checks that it can still be used with
// the current encoding rules.
func Unmarshal(data []byte) (*ModelSet, error) {
	var m ModelSet
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, common.ModelUnavailable("stored model could not be decoded", err)
	}
	if m.Risk == nil || m.TopicScores == nil || len(m.Labels.Classes) == 0 {
		return nil, common.ModelUnavailable("stored model is incomplete", nil)
	}
	if m.FeatureLayout.Version != features.EncodingVersion {
		return nil, common.ModelUnavailable(fmt.Sprintf(
			"stored model uses encoding version %d, current is %d", m.FeatureLayout.Version, features.EncodingVersion), nil)
	}
	if len(m.TopicScores.Outputs) != m.FeatureLayout.Topics {
		return nil, common.ModelUnavailable(fmt.Sprintf(
			"stored model predicts %d topics, layout has %d", len(m.TopicScores.Outputs), m.FeatureLayout.Topics), nil)
	}
	return &m, nil
}

func argmax(v []float64) int {
	best, bestV := 0, math.Inf(-1)
	for i, p := range v {
		if p > bestV {
			best, bestV = i, p
		}
	}
	return best
}
