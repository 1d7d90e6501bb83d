// Package engine reconciles the deterministic risk bucket with the trained
// model's prediction and turns the model's topic scores into priorities.
package engine

import (
	"math"

	"github.com/Veraticus/concord/internal/alignment"
	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/features"
	"github.com/Veraticus/concord/internal/model"
)

// Engine makes hybrid risk decisions. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	rules []Rule
	cfg   Config
}

// Config holds the decision thresholds.
type Config struct {
	// A deterministic Low is trusted over the model when alignment is above
	// TrustedAlignment and the conflict ratio is below TrustedConflict.
	TrustedAlignment float64 `mapstructure:"trusted_alignment"`
	TrustedConflict  float64 `mapstructure:"trusted_conflict"`
	// Topic score thresholds for the High and Moderate priority tiers.
	HighPriority     float64 `mapstructure:"high_priority"`
	ModeratePriority float64 `mapstructure:"moderate_priority"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		TrustedAlignment: 0.7,
		TrustedConflict:  0.15,
		HighPriority:     0.6,
		ModeratePriority: 0.3,
	}
}

// New creates an engine with the default configuration.
func New() *Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(cfg Config) *Engine {
	return &Engine{cfg: cfg, rules: DecisionTable(cfg)}
}

// Decision is the engine's output for one couple.
type Decision struct {
	Branch Branch
	// Probabilities are the model's class probabilities indexed by RiskLabel.
	Probabilities []float64
	// TopicScores are the regressor outputs clipped to [0,1], in topic order.
	TopicScores   []float64
	Confidence    float64
	Risk          model.RiskLabel
	Deterministic model.RiskLabel
	Model         model.RiskLabel
}

// Decide reconciles the deterministic metrics for a couple with the
// snapshot's prediction for the same couple's vector.
func (e *Engine) Decide(v features.Vector, m alignment.Metrics, snap Snapshot) (Decision, error) {
	if snap == nil {
		return Decision{}, common.ModelUnavailable("no trained model is active", nil)
	}
	if want := snap.Layout().Width(); len(v) != want {
		return Decision{}, common.Encoding("feature vector has %d values, model expects %d", len(v), want)
	}

	label, proba, err := snap.PredictRisk(v)
	if err != nil {
		return Decision{}, err
	}
	raw, err := snap.PredictTopics(v)
	if err != nil {
		return Decision{}, err
	}

	scores := make([]float64, len(raw))
	for i, s := range raw {
		scores[i] = clip(s)
	}

	confidence := 0.0
	for _, p := range proba {
		confidence = math.Max(confidence, p)
	}

	risk, branch := Reconcile(e.rules, Inputs{
		Actual:    m.Risk,
		Model:     label,
		Alignment: m.Alignment,
		Conflict:  m.ConflictRatio,
	})

	return Decision{
		Branch:        branch,
		Probabilities: proba,
		TopicScores:   scores,
		Confidence:    confidence,
		Risk:          risk,
		Deterministic: m.Risk,
		Model:         label,
	}, nil
}

func clip(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
