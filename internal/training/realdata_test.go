package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/model"
	"github.com/Veraticus/concord/internal/testutil/cohort"
)

func TestLabelReal(t *testing.T) {
	q := cohort.QuestionnaireFor(cohort.FixtureMinimal)
	c := model.Couple{
		ID:      "c1",
		Profile: cohort.Profile(),
		Responses: model.ResponsePair{
			Male:   []model.Response{4, 4, 2, 3},
			Female: []model.Response{4, 4, 2, 2},
		},
	}

	s, err := LabelReal(q, c)
	require.NoError(t, err)
	assert.Equal(t, model.SourceReal, s.Source)
	assert.Equal(t, model.RiskHigh, s.Risk, "ratio (1 + 1 + 0.3) / 4 = 0.575")
	require.Len(t, s.TopicScores, 2)
	assert.InDelta(t, 0, s.TopicScores[0], 1e-12)
	assert.InDelta(t, 1, s.TopicScores[1], 1e-12)

	// The sample owns its responses.
	c.Responses.Male[0] = model.Disagree
	assert.Equal(t, model.Agree, s.Responses.Male[0])
}

func TestLabelReal_Partial(t *testing.T) {
	q := cohort.QuestionnaireFor(cohort.FixtureMinimal)
	c := model.Couple{
		Profile: cohort.Profile(),
		Responses: model.ResponsePair{
			Male:   []model.Response{3, 4, 4, 4},
			Female: []model.Response{4, 4, 4, 4},
		},
	}

	s, err := LabelReal(q, c)
	require.NoError(t, err)
	assert.Equal(t, model.RiskLow, s.Risk)
	// Male topic 0: 0.3 / 2 * 2.5 = 0.375, female 0.
	assert.InDelta(t, 0.1875, s.TopicScores[0], 1e-12)
	assert.InDelta(t, 0, s.TopicScores[1], 1e-12)
}

func TestLabelCohort_SkipsInvalid(t *testing.T) {
	q := cohort.QuestionnaireFor(cohort.FixtureMinimal)
	good := cohort.CoupleWithRisk(q, model.RiskMedium)
	short := cohort.CoupleWithRisk(q, model.RiskLow)
	short.Responses = cohort.PairWithRisk(3, model.RiskLow)
	young := cohort.CoupleWithRisk(q, model.RiskLow)
	young.Profile.MaleAge = 16

	samples := LabelCohort(q, []model.Couple{good, short, young})
	require.Len(t, samples, 1)
	assert.Equal(t, model.RiskMedium, samples[0].Risk)

	_, err := LabelReal(q, short)
	assert.True(t, common.IsKind(err, common.KindInputValidation))
}
