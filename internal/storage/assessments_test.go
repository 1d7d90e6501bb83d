package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/model"
	"github.com/Veraticus/concord/internal/service"
)

func testAssessment(id, coupleID string, risk model.RiskLabel, at time.Time) *model.Assessment {
	return &model.Assessment{
		ID:                id,
		CoupleID:          coupleID,
		ModelID:           "model-1",
		CreatedAt:         at,
		Risk:              risk,
		DeterministicRisk: risk,
		ModelRisk:         model.RiskMedium,
		Branch:            "deterministic_default",
		Confidence:        0.71,
		DisagreementRatio: 0.25,
		Alignment:         0.7,
		ConflictRatio:     0.25,
		Probabilities:     map[string]float64{"Low": 0.1, "Medium": 0.71, "High": 0.19},
		Topics: []model.TopicPriority{
			{Topic: "Finances", Tier: model.PriorityHigh, Score: 0.8},
			{Topic: "Faith", Tier: model.PriorityLow, Score: 0.1},
		},
		FocusTopics: []string{"Finances", "Faith"},
		Reasons:     []model.Reason{{Code: model.ReasonRatioBand, Message: "ratio"}},
	}
}

func TestAssessments_RoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	at := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	want := testAssessment("a-1", "couple-1", model.RiskMedium, at)
	require.NoError(t, store.SaveAssessment(ctx, want))

	got, err := store.GetAssessment(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, want.Topics, got.Topics)
	assert.Equal(t, want.Probabilities, got.Probabilities)
	assert.Equal(t, want.Reasons, got.Reasons)
	assert.Equal(t, model.RiskMedium, got.Risk)
	assert.True(t, at.Equal(got.CreatedAt))

	_, err = store.GetAssessment(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, store.SaveAssessment(ctx, want), common.ErrDuplicateEntry)
}

func TestAssessments_List(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveAssessment(ctx, testAssessment("a-1", "c-1", model.RiskLow, base)))
	require.NoError(t, store.SaveAssessment(ctx, testAssessment("a-2", "c-1", model.RiskHigh, base.Add(time.Hour))))
	require.NoError(t, store.SaveAssessment(ctx, testAssessment("a-3", "c-2", model.RiskHigh, base.Add(2*time.Hour))))

	ids := func(as []model.Assessment) []string {
		out := make([]string, len(as))
		for i, a := range as {
			out[i] = a.ID
		}
		return out
	}

	all, err := store.ListAssessments(ctx, service.AssessmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-3", "a-2", "a-1"}, ids(all))

	byCouple, err := store.ListAssessments(ctx, service.AssessmentFilter{CoupleID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-2", "a-1"}, ids(byCouple))

	high := model.RiskHigh
	byRisk, err := store.ListAssessments(ctx, service.AssessmentFilter{Risk: &high, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-3"}, ids(byRisk))

	assert.ErrorIs(t, store.SaveAssessment(ctx, &model.Assessment{}), ErrInvalidAssessment)
	assert.ErrorIs(t, store.SaveAssessment(ctx, &model.Assessment{ID: "x", Risk: model.RiskLabel(7)}), ErrInvalidAssessment)
}
