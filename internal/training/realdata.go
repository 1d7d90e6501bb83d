package training

import (
	"log/slog"

	"github.com/Veraticus/concord/internal/alignment"
	"github.com/Veraticus/concord/internal/model"
)

// RealTopicScale converts a topic's weighted disagree share into the topic
// score used as the regression target for real couples.
const RealTopicScale = 2.5

// LabelReal turns a stored couple into a training sample. The risk label comes
// from the couple's alignment metrics and the topic targets average both
// partners' weighted per-topic disagreement.
func LabelReal(q model.Questionnaire, c model.Couple) (model.TrainingSample, error) {
	if err := model.ValidateProfile(c.Profile); err != nil {
		return model.TrainingSample{}, err
	}
	if err := model.ValidatePair(c.Responses, q.ItemCount()); err != nil {
		return model.TrainingSample{}, err
	}

	topicItems := q.TopicItems()
	m, err := alignment.Compute(c.Responses, topicItems)
	if err != nil {
		return model.TrainingSample{}, err
	}

	male := alignment.TopicConflict(c.Responses.Male, topicItems, alignment.NeutralWeight, RealTopicScale)
	female := alignment.TopicConflict(c.Responses.Female, topicItems, alignment.NeutralWeight, RealTopicScale)
	scores := make([]float64, len(topicItems))
	for t := range scores {
		scores[t] = (male[t] + female[t]) / 2
	}

	return model.TrainingSample{
		Source:      model.SourceReal,
		Profile:     c.Profile.Normalized(),
		Responses:   c.Responses.Clone(),
		Risk:        m.Risk,
		TopicScores: scores,
	}, nil
}

// LabelCohort labels every usable couple. Couples that fail validation are
// skipped with a warning.
func LabelCohort(q model.Questionnaire, couples []model.Couple) []model.TrainingSample {
	samples := make([]model.TrainingSample, 0, len(couples))
	for _, c := range couples {
		s, err := LabelReal(q, c)
		if err != nil {
			slog.Warn("Skipping couple that cannot be used for training",
				"couple_id", c.ID,
				"error", err)
			continue
		}
		samples = append(samples, s)
	}
	return samples
}
