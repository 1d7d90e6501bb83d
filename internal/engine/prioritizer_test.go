package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/concord/internal/model"
)

func TestTier(t *testing.T) {
	e := New()
	tests := []struct {
		score float64
		want  model.PriorityTier
	}{
		{0, model.PriorityLow},
		{0.3, model.PriorityLow},
		{0.31, model.PriorityModerate},
		{0.6, model.PriorityModerate},
		{0.61, model.PriorityHigh},
		{1, model.PriorityHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Tier(tt.score), "score %v", tt.score)
	}
}

func TestPrioritize(t *testing.T) {
	e := New()
	topics := []string{"Communication", "Finances", "Parenting", "Intimacy"}
	priorities := e.Prioritize(topics, []float64{0.1, 0.9, 0.45, 0.9})

	assert.Equal(t, []model.TopicPriority{
		{Topic: "Communication", Tier: model.PriorityLow, Score: 0.1},
		{Topic: "Finances", Tier: model.PriorityHigh, Score: 0.9},
		{Topic: "Parenting", Tier: model.PriorityModerate, Score: 0.45},
		{Topic: "Intimacy", Tier: model.PriorityHigh, Score: 0.9},
	}, priorities, "every topic is reported regardless of tier")

	assert.Equal(t, []string{"Finances", "Intimacy", "Parenting", "Communication"}, FocusTopics(priorities))
	assert.Len(t, e.Prioritize(topics, []float64{0.5}), 1)
}
