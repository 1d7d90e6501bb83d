package cohort_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concord/internal/alignment"
	"github.com/Veraticus/concord/internal/model"
	"github.com/Veraticus/concord/internal/testutil"
	"github.com/Veraticus/concord/internal/testutil/cohort"
)

func TestBuilder_WithTopics(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b cohort.Builder) cohort.Builder {
		return b.WithTopics(cohort.TopicFinances, cohort.TopicFaith).WithItemsPerTopic(3)
	})

	q, err := db.Storage.LoadQuestionnaire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Finances", "Faith"}, q.TopicNames())
	assert.Equal(t, 6, q.ItemCount())
	assert.Equal(t, db.Questionnaire, q)
}

func TestFixtures(t *testing.T) {
	tests := []struct {
		fixture cohort.Fixture
		topics  int
		items   int
	}{
		{cohort.FixtureMinimal, 2, 4},
		{cohort.FixtureStandard, 4, 20},
	}
	for _, tt := range tests {
		t.Run(tt.fixture.Name(), func(t *testing.T) {
			db := testutil.SetupTestDB(t, tt.fixture)
			assert.Len(t, db.Questionnaire.Topics, tt.topics)
			assert.Equal(t, tt.items, db.Questionnaire.ItemCount())
			require.NoError(t, db.Questionnaire.Validate())
		})
	}
}

func TestCoupleWithRisk(t *testing.T) {
	q := cohort.QuestionnaireFor(cohort.FixtureStandard)
	for _, label := range model.RiskLabels {
		c := cohort.CoupleWithRisk(q, label)
		m, err := alignment.Compute(c.Responses, q.TopicItems())
		require.NoError(t, err)
		assert.Equal(t, label, m.Risk)
		require.NoError(t, model.ValidateProfile(c.Profile))
	}
}

func TestSeedCouples(t *testing.T) {
	db := testutil.SetupTestDB(t, cohort.FixtureMinimal)
	couples := db.SeedCouples(model.RiskLow, model.RiskHigh)
	require.Len(t, couples, 2)

	n, err := db.Storage.CountCouples(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
