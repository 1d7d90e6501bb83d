package coordinator

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/concord/internal/alignment"
	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/engine"
	"github.com/Veraticus/concord/internal/features"
	"github.com/Veraticus/concord/internal/model"
)

// MetricsOverride carries alignment metrics computed by the caller. Nil
// fields are computed from the responses.
type MetricsOverride struct {
	Alignment     *float64         `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	ConflictRatio *float64         `json:"conflict_ratio,omitempty" yaml:"conflict_ratio,omitempty"`
	Risk          *model.RiskLabel `json:"risk,omitempty" yaml:"risk,omitempty"`
	Categories    []float64        `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// AnalyzeRequest is one couple to assess.
type AnalyzeRequest struct {
	Metrics   *MetricsOverride    `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	CoupleID  string              `json:"couple_id,omitempty" yaml:"couple_id,omitempty"`
	Responses model.ResponsePair  `json:"responses" yaml:"responses"`
	Profile   model.CoupleProfile `json:"profile" yaml:"profile"`
}

// Analyze assesses one couple against the active snapshot and records the
// result. A storage failure is logged and does not fail the analysis.
func (c *Coordinator) Analyze(ctx context.Context, req AnalyzeRequest) (*model.Assessment, error) {
	snap := c.active.Load()
	if snap == nil {
		return nil, common.ModelUnavailable("no trained model is active; run training first", nil)
	}

	if err := model.ValidateProfile(req.Profile); err != nil {
		return nil, err
	}
	if err := model.ValidatePair(req.Responses, snap.Questionnaire.ItemCount()); err != nil {
		return nil, err
	}

	enc, err := features.NewEncoder(snap.Questionnaire)
	if err != nil {
		return nil, common.ModelUnavailable("active model has an unusable questionnaire", err)
	}

	computed, err := enc.Metrics(req.Responses)
	if err != nil {
		return nil, err
	}
	metrics, err := applyOverride(computed, req.Metrics)
	if err != nil {
		return nil, err
	}

	v, err := enc.EncodeWithMetrics(req.Profile, req.Responses, metrics)
	if err != nil {
		return nil, err
	}

	d, err := c.engine.Decide(v, metrics, snap)
	if err != nil {
		return nil, err
	}

	priorities := c.engine.Prioritize(snap.Questionnaire.TopicNames(), d.TopicScores)
	probabilities := make(map[string]float64, len(d.Probabilities))
	for i, p := range d.Probabilities {
		probabilities[model.RiskLabel(i).String()] = p
	}

	a := &model.Assessment{
		ID:                uuid.NewString(),
		CreatedAt:         time.Now().UTC(),
		CoupleID:          req.CoupleID,
		ModelID:           snap.ID,
		Risk:              d.Risk,
		DeterministicRisk: d.Deterministic,
		ModelRisk:         d.Model,
		Branch:            string(d.Branch),
		Confidence:        d.Confidence,
		Probabilities:     probabilities,
		DisagreementRatio: computed.ConflictRatio,
		Alignment:         metrics.Alignment,
		ConflictRatio:     metrics.ConflictRatio,
		Topics:            priorities,
		FocusTopics:       engine.FocusTopics(priorities),
		Reasons:           engine.Reasons(req.Profile, metrics, d),
		Warnings:          model.Warnings(req.Profile, req.Responses),
	}

	if err := c.store.SaveAssessment(ctx, a); err != nil {
		slog.Warn("Failed to store assessment", "assessment_id", a.ID, "error", err)
	}

	common.LogDebug("Analyzed couple", common.Fields{
		"assessment_id": a.ID,
		"risk":          a.Risk.String(),
		"branch":        a.Branch,
		"confidence":    a.Confidence,
	})
	return a, nil
}

func applyOverride(m alignment.Metrics, o *MetricsOverride) (alignment.Metrics, error) {
	if o == nil {
		return m, nil
	}
	unit := func(name string, v float64) error {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return common.InputValidation("metrics.%s must be within [0,1], got %v", name, v)
		}
		return nil
	}

	if o.Alignment != nil {
		if err := unit("alignment", *o.Alignment); err != nil {
			return m, err
		}
		m.Alignment = *o.Alignment
	}
	if o.ConflictRatio != nil {
		if err := unit("conflict_ratio", *o.ConflictRatio); err != nil {
			return m, err
		}
		m.ConflictRatio = *o.ConflictRatio
		m.Risk = alignment.RiskFromRatio(m.ConflictRatio)
	}
	if o.Risk != nil {
		if !o.Risk.IsValid() {
			return m, common.InputValidation("metrics.risk is not a valid risk label")
		}
		m.Risk = *o.Risk
	}
	if o.Categories != nil {
		if len(o.Categories) != len(m.Categories) {
			return m, common.InputValidation("metrics.categories has %d values, questionnaire has %d topics",
				len(o.Categories), len(m.Categories))
		}
		for _, v := range o.Categories {
			if err := unit("categories", v); err != nil {
				return m, err
			}
		}
		m.Categories = append([]float64(nil), o.Categories...)
	}
	return m, nil
}
