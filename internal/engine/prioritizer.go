package engine

import (
	"sort"

	"github.com/Veraticus/concord/internal/model"
)

// Tier maps a topic score to its priority tier.
func (e *Engine) Tier(score float64) model.PriorityTier {
	switch {
	case score > e.cfg.HighPriority:
		return model.PriorityHigh
	case score > e.cfg.ModeratePriority:
		return model.PriorityModerate
	default:
		return model.PriorityLow
	}
}

// Prioritize assigns a tier to every topic, in topic order. Topics and
// scores are paired by index; extra entries on either side are ignored.
func (e *Engine) Prioritize(topics []string, scores []float64) []model.TopicPriority {
	n := min(len(topics), len(scores))
	out := make([]model.TopicPriority, n)
	for i := 0; i < n; i++ {
		out[i] = model.TopicPriority{Topic: topics[i], Score: scores[i], Tier: e.Tier(scores[i])}
	}
	return out
}

// FocusTopics orders topic names by descending score. Ties keep topic order.
func FocusTopics(priorities []model.TopicPriority) []string {
	sorted := make([]model.TopicPriority, len(priorities))
	copy(sorted, priorities)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	names := make([]string, len(sorted))
	for i, p := range sorted {
		names[i] = p.Topic
	}
	return names
}
