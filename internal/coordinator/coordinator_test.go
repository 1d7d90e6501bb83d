package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/engine"
	"github.com/Veraticus/concord/internal/model"
	"github.com/Veraticus/concord/internal/service"
	"github.com/Veraticus/concord/internal/testutil"
	"github.com/Veraticus/concord/internal/testutil/cohort"
	"github.com/Veraticus/concord/internal/training"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SyntheticCount = 60
	cfg.Synthetic.Seed = 11
	cfg.Training.Folds = 3
	small := training.Grid{Estimators: []int{10}, MaxDepth: []int{0}, MinSamplesSplit: []int{2}}
	cfg.Training.ClassifierGrid = small
	cfg.Training.RegressorGrid = small
	cfg.Retry.InitialDelay = time.Millisecond
	return cfg
}

func newTrained(t *testing.T) (*Coordinator, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t, cohort.FixtureMinimal)
	db.SeedCouples(model.RiskLow, model.RiskMedium, model.RiskHigh)

	c, err := New(db.Storage, testConfig())
	require.NoError(t, err)
	_, err = c.Train(context.Background())
	require.NoError(t, err)
	return c, db
}

func TestNew_Validates(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)

	_, err := New(nil, testConfig())
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	cfg := testConfig()
	cfg.Engine.ModeratePriority = 0.9
	_, err = New(db.Storage, cfg)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	cfg = testConfig()
	cfg.SyntheticCount = -1
	_, err = New(db.Storage, cfg)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestTrain_InstallsAndPersists(t *testing.T) {
	c, db := newTrained(t)
	ctx := context.Background()

	set := c.Active()
	require.NotNil(t, set)
	assert.Equal(t, 3, set.RealCount)
	assert.Positive(t, set.SampleCount)

	status := c.TrainingStatus()
	assert.False(t, status.InProgress)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, set.ID, status.ModelID)

	runs, err := db.Storage.ListTrainingRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunSucceeded, runs[0].Status)
	assert.Equal(t, set.ID, runs[0].ModelID)
	assert.Equal(t, 3, runs[0].RealCount)

	restarted, err := New(db.Storage, testConfig())
	require.NoError(t, err)
	loaded, err := restarted.LoadActive(ctx)
	require.NoError(t, err)
	require.True(t, loaded)
	assert.Equal(t, set.ID, restarted.Active().ID)
}

func TestTrain_TopsUpMissingClasses(t *testing.T) {
	db := testutil.SetupTestDB(t, cohort.FixtureStandard)
	cfg := testConfig()
	cfg.SyntheticCount = 0

	c, err := New(db.Storage, cfg)
	require.NoError(t, err)
	set, err := c.Train(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3*cfg.TopUpCount, set.SampleCount)
	assert.Zero(t, set.RealCount)
	for _, label := range model.RiskLabels {
		assert.Positive(t, set.ClassCounts[label.String()], "class %s", label)
	}
}

func TestTrain_FailureKeepsActiveModel(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	ctx := context.Background()

	c, err := New(db.Storage, testConfig())
	require.NoError(t, err)

	_, err = c.Train(ctx)
	assert.ErrorIs(t, err, common.ErrNoQuestionnaire)
	assert.Nil(t, c.Active())

	status := c.TrainingStatus()
	assert.False(t, status.InProgress)
	assert.Equal(t, "Training failed", status.Message)
	assert.NotEmpty(t, status.Error)

	runs, err := db.Storage.ListTrainingRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunFailed, runs[0].Status)

	loaded, err := c.LoadActive(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)
}

// blockingStore holds training at its first storage call until released.
type blockingStore struct {
	service.Storage
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) LoadQuestionnaire(ctx context.Context) (model.Questionnaire, error) {
	close(s.entered)
	<-s.release
	return s.Storage.LoadQuestionnaire(ctx)
}

func TestStartTraining_SingleFlight(t *testing.T) {
	db := testutil.SetupTestDB(t, cohort.FixtureMinimal)
	store := &blockingStore{Storage: db.Storage, entered: make(chan struct{}), release: make(chan struct{})}

	c, err := New(store, testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runID, err := c.StartTraining(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	<-store.entered

	_, err = c.StartTraining(context.Background())
	assert.ErrorIs(t, err, common.ErrTrainingInProgress)
	_, err = c.Train(context.Background())
	assert.ErrorIs(t, err, common.ErrTrainingInProgress)

	status := c.TrainingStatus()
	assert.True(t, status.InProgress)
	assert.Equal(t, runID, status.RunID)

	cancel()
	close(store.release)
	c.Wait()

	status = c.TrainingStatus()
	assert.False(t, status.InProgress)
	assert.Empty(t, status.Error, "canceling the request does not cancel training")
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, c.Active())
	assert.Equal(t, c.Active().ID, status.ModelID)
}

func TestAnalyze_NoModel(t *testing.T) {
	db := testutil.SetupTestDB(t, cohort.FixtureMinimal)
	c, err := New(db.Storage, testConfig())
	require.NoError(t, err)

	couple := cohort.CoupleWithRisk(db.Questionnaire, model.RiskLow)
	_, err = c.Analyze(context.Background(), AnalyzeRequest{Profile: couple.Profile, Responses: couple.Responses})
	assert.Equal(t, common.KindModelUnavailable, common.KindOf(err))
}

func TestAnalyze(t *testing.T) {
	c, db := newTrained(t)
	ctx := context.Background()

	couple := cohort.CoupleWithRisk(db.Questionnaire, model.RiskHigh)
	a, err := c.Analyze(ctx, AnalyzeRequest{CoupleID: "c-1", Profile: couple.Profile, Responses: couple.Responses})
	require.NoError(t, err)

	assert.Equal(t, model.RiskHigh, a.Risk)
	assert.Equal(t, model.RiskHigh, a.DeterministicRisk)
	assert.Equal(t, string(engine.BranchDeterministicHigh), a.Branch)
	assert.InDelta(t, 1.0, a.DisagreementRatio, 1e-9)
	assert.Equal(t, c.Active().ID, a.ModelID)
	assert.Len(t, a.Topics, 2)
	assert.Len(t, a.FocusTopics, 2)
	assert.Len(t, a.Probabilities, 3)
	for _, tp := range a.Topics {
		assert.GreaterOrEqual(t, tp.Score, 0.0)
		assert.LessOrEqual(t, tp.Score, 1.0)
	}
	assert.NotEmpty(t, a.Reasons)
	assert.Contains(t, a.Warnings, "partners gave identical responses to every item")

	stored, err := db.Storage.GetAssessment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Risk, stored.Risk)
	assert.Equal(t, "c-1", stored.CoupleID)
}

func TestAnalyze_Override(t *testing.T) {
	c, db := newTrained(t)
	ctx := context.Background()
	couple := cohort.CoupleWithRisk(db.Questionnaire, model.RiskLow)

	ratio := 0.5
	a, err := c.Analyze(ctx, AnalyzeRequest{
		Profile:   couple.Profile,
		Responses: couple.Responses,
		Metrics:   &MetricsOverride{ConflictRatio: &ratio},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RiskHigh, a.DeterministicRisk)
	assert.Equal(t, model.RiskHigh, a.Risk)
	assert.InDelta(t, 0.5, a.ConflictRatio, 1e-12)
	assert.Zero(t, a.DisagreementRatio, "the computed ratio is still reported")

	alignmentScore, conflict := 0.85, 0.05
	a, err = c.Analyze(ctx, AnalyzeRequest{
		Profile:   couple.Profile,
		Responses: cohort.PairWithRisk(db.Questionnaire.ItemCount(), model.RiskMedium),
		Metrics:   &MetricsOverride{Alignment: &alignmentScore, ConflictRatio: &conflict},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RiskLow, a.Risk)
	assert.Equal(t, string(engine.BranchTrustedLow), a.Branch)
}

func TestAnalyze_InvalidInput(t *testing.T) {
	c, db := newTrained(t)
	ctx := context.Background()
	couple := cohort.CoupleWithRisk(db.Questionnaire, model.RiskLow)

	bad := 1.5
	high := model.RiskLabel(9)
	tests := []struct {
		mutate func(*AnalyzeRequest)
		name   string
	}{
		{name: "underage", mutate: func(r *AnalyzeRequest) { r.Profile.FemaleAge = 16 }},
		{name: "wrong length", mutate: func(r *AnalyzeRequest) {
			r.Responses.Male = r.Responses.Male[1:]
			r.Responses.Female = r.Responses.Female[1:]
		}},
		{name: "bad code", mutate: func(r *AnalyzeRequest) {
			r.Responses.Male = append([]model.Response{7}, r.Responses.Male[1:]...)
		}},
		{name: "override out of range", mutate: func(r *AnalyzeRequest) { r.Metrics = &MetricsOverride{Alignment: &bad} }},
		{name: "override bad label", mutate: func(r *AnalyzeRequest) { r.Metrics = &MetricsOverride{Risk: &high} }},
		{name: "override wrong categories", mutate: func(r *AnalyzeRequest) {
			r.Metrics = &MetricsOverride{Categories: []float64{0.5}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := AnalyzeRequest{Profile: couple.Profile, Responses: couple.Responses.Clone()}
			tt.mutate(&req)
			_, err := c.Analyze(ctx, req)
			assert.Equal(t, common.KindInputValidation, common.KindOf(err), "error: %v", err)
		})
	}
}

func TestStatus(t *testing.T) {
	c, _ := newTrained(t)

	s, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, s.ModelActive)
	assert.Equal(t, c.Active().ID, s.ModelID)
	assert.Equal(t, 3, s.Couples)
	require.NotNil(t, s.TrainedAt)
	assert.False(t, s.Training.InProgress)
}
