package synth

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concord/internal/alignment"
	"github.com/Veraticus/concord/internal/model"
)

func questionnaire(items, topics int) model.Questionnaire {
	var q model.Questionnaire
	for t := 0; t < topics; t++ {
		q.Topics = append(q.Topics, model.Topic{Name: string(rune('A' + t))})
	}
	for i := 0; i < items; i++ {
		q.Items = append(q.Items, model.Item{Code: string(rune('a'+i%26)) + string(rune('0'+i/26)), Topic: i % topics})
	}
	return q
}

func seeded(t *testing.T, items int, seed uint64) *Generator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = seed
	g, err := New(questionnaire(items, 4), cfg)
	require.NoError(t, err)
	return g
}

func assertWellFormed(t *testing.T, s model.TrainingSample, items, topics int) {
	t.Helper()
	require.NoError(t, model.ValidateProfile(s.Profile))
	require.NoError(t, model.ValidatePair(s.Responses, items))
	require.Len(t, s.TopicScores, topics)
	for _, score := range s.TopicScores {
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
	assert.Equal(t, model.SourceSynthetic, s.Source)
	assert.Equal(t, alignment.RiskFromRatio(alignment.DisagreementRatio(s.Responses.Male, s.Responses.Female)), s.Risk,
		"stored label must be the recomputed label")
	if s.Profile.CivilStatus != model.CivilLivingIn {
		assert.Zero(t, s.Profile.YearsCohabiting)
	}
}

func TestGenerate_Unconditioned(t *testing.T) {
	g := seeded(t, 20, 42)
	samples := g.Generate(300, nil)
	require.Len(t, samples, 300)

	for _, s := range samples {
		assertWellFormed(t, s, 20, 4)
		assert.GreaterOrEqual(t, s.Profile.MaleAge, 18)
		assert.LessOrEqual(t, s.Profile.MaleAge, 80)
		assert.LessOrEqual(t, s.Profile.FemaleAge, 80)
	}

	counts := model.CountByRisk(samples)
	assert.Equal(t, 300, counts[model.RiskLow]+counts[model.RiskMedium]+counts[model.RiskHigh])
	assert.Positive(t, counts[model.RiskMedium])
	assert.Positive(t, counts[model.RiskHigh])
}

// differingShare is the fraction of items on which the partners answered differently.
func differingShare(samples []model.TrainingSample) float64 {
	differ, total := 0, 0
	for _, s := range samples {
		for i := range s.Responses.Male {
			if s.Responses.Male[i] != s.Responses.Female[i] {
				differ++
			}
			total++
		}
	}
	return float64(differ) / float64(total)
}

func TestGenerate_PartnerVariation(t *testing.T) {
	samples := seeded(t, 31, 17).Generate(600, nil)
	require.Len(t, samples, 600)

	byRisk := map[model.RiskLabel][]model.TrainingSample{}
	for _, s := range samples {
		byRisk[s.Risk] = append(byRisk[s.Risk], s)
	}

	share := differingShare(samples)
	assert.Greater(t, share, 0.18, "every couple carries partner variation")
	assert.Less(t, share, 0.32)
	for label, group := range byRisk {
		if len(group) < 20 {
			continue
		}
		assert.Greater(t, differingShare(group), 0.15, "class %s", label)
	}
}

func TestGenerateClass_SingleAttemptKeepsVariation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 8
	cfg.MaxAttempts = 1
	g, err := New(questionnaire(31, 4), cfg)
	require.NoError(t, err)

	samples, err := g.GenerateClass(model.RiskHigh, 50, nil)
	require.NoError(t, err)
	assert.Greater(t, differingShare(samples), 0.15)
}

func TestAttemptSpread(t *testing.T) {
	tests := []struct {
		attempt, max int
		want         float64
	}{
		{0, 1, 1},
		{0, 25, 1},
		{12, 25, 0.5},
		{24, 25, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, attemptSpread(tt.attempt, tt.max), 1e-12, "attempt %d of %d", tt.attempt, tt.max)
	}
}

func TestDrawPriorProfile_AgeRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	lo, hi := 100, 0
	for i := 0; i < 5000; i++ {
		age := drawPriorProfile(rng).MaleAge
		lo, hi = min(lo, age), max(hi, age)
	}
	assert.Equal(t, 18, lo)
	assert.Equal(t, 70, hi, "the oldest life stage reaches its upper age")
}

func TestGenerate_Deterministic(t *testing.T) {
	a := seeded(t, 12, 7).Generate(50, nil)
	b := seeded(t, 12, 7).Generate(50, nil)
	assert.Equal(t, a, b)
}

func TestGenerate_Conditioned(t *testing.T) {
	items := 16
	reference := make([]model.TrainingSample, 0, 6)
	for i := 0; i < 6; i++ {
		pair := model.ResponsePair{Male: make([]model.Response, items), Female: make([]model.Response, items)}
		for j := 0; j < items; j++ {
			pair.Male[j] = model.Agree
			pair.Female[j] = model.Agree
		}
		reference = append(reference, model.TrainingSample{
			Profile: model.CoupleProfile{
				MaleAge: 40 + i, FemaleAge: 38 + i,
				CivilStatus: model.CivilLivingIn, YearsCohabiting: 6,
				Education: 4, Income: 3, Employment: model.EmploymentEmployed,
			},
			Responses: pair,
			Risk:      model.RiskLow,
			Source:    model.SourceReal,
		})
	}

	g := seeded(t, items, 99)
	samples := g.Generate(60, reference)
	require.Len(t, samples, 60)

	for _, s := range samples {
		assertWellFormed(t, s, items, 4)
		assert.Equal(t, model.CivilLivingIn, s.Profile.CivilStatus, "civil status resampled from the cohort")
		assert.Equal(t, 4, s.Profile.Education)
		assert.Equal(t, model.EmploymentEmployed, s.Profile.Employment)
		assert.GreaterOrEqual(t, s.Profile.YearsCohabiting, 1)
		assert.LessOrEqual(t, s.Profile.YearsCohabiting, 11)
	}
}

func TestGenerateClass_FillsMissingClasses(t *testing.T) {
	allLow := []model.TrainingSample{{
		Profile: model.CoupleProfile{
			MaleAge: 30, FemaleAge: 30, CivilStatus: model.CivilSingle,
			Education: 2, Income: 2, Employment: model.EmploymentEmployed,
		},
		Responses: model.ResponsePair{
			Male:   []model.Response{4, 4, 4, 4, 4, 4, 4, 4},
			Female: []model.Response{4, 4, 4, 4, 4, 4, 4, 4},
		},
		Risk: model.RiskLow,
	}}

	for _, items := range []int{8, 20, 59} {
		for _, label := range model.RiskLabels {
			g := seeded(t, items, uint64(items)*10+uint64(label))
			ref := allLow
			if items != 8 {
				ref = nil
			}

			samples, err := g.GenerateClass(label, 10, ref)
			require.NoError(t, err, "items=%d label=%s", items, label)
			require.Len(t, samples, 10)
			for _, s := range samples {
				assert.Equal(t, label, s.Risk)
				assertWellFormed(t, s, items, 4)
			}
		}
	}
}

func TestGenerateClass_SingleAttemptMayFail(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 5
	cfg.MaxAttempts = 1
	g, err := New(questionnaire(1, 1), cfg)
	require.NoError(t, err)

	// A single neutral item scores 0.3, which can never be Low.
	_, err = g.GenerateClass(model.RiskLow, 1, nil)
	assert.ErrorIs(t, err, ErrNoConvergence)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.PerturbOne = 1.5
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Distribution = Distribution{}
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MaxAttempts = 0
	assert.Error(t, bad.Validate())
}
