// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/concord/internal/model"
)

// CoupleFilter defines filtering options for cohort queries.
type CoupleFilter struct {
	Since  *time.Time
	Limit  int
	Offset int
}

// AssessmentFilter defines filtering options for assessment queries.
type AssessmentFilter struct {
	CoupleID string
	Risk     *model.RiskLabel
	Limit    int
	Offset   int
}

// QuestionnaireStore persists the active questionnaire.
type QuestionnaireStore interface {
	// SaveQuestionnaire replaces the stored questionnaire and returns it with
	// storage identifiers filled in.
	SaveQuestionnaire(ctx context.Context, q model.Questionnaire) (model.Questionnaire, error)
	// LoadQuestionnaire returns common.ErrNoQuestionnaire when none is stored.
	LoadQuestionnaire(ctx context.Context) (model.Questionnaire, error)
}

// CohortStore persists real couples used as training data.
type CohortStore interface {
	SaveCouple(ctx context.Context, couple *model.Couple) error
	ListCouples(ctx context.Context, filter CoupleFilter) ([]model.Couple, error)
	CountCouples(ctx context.Context) (int, error)
}

// AssessmentStore persists analysis results.
type AssessmentStore interface {
	SaveAssessment(ctx context.Context, assessment *model.Assessment) error
	GetAssessment(ctx context.Context, id string) (*model.Assessment, error)
	ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error)
}

// TrainingRunStore persists training history.
type TrainingRunStore interface {
	// SaveTrainingRun inserts or updates a run by ID.
	SaveTrainingRun(ctx context.Context, run *model.TrainingRun) error
	ListTrainingRuns(ctx context.Context, limit int) ([]model.TrainingRun, error)
}

// ModelStore persists trained model snapshots.
type ModelStore interface {
	// SaveModel stores the record and makes it the active model.
	SaveModel(ctx context.Context, record model.ModelRecord) error
	// LoadActiveModel returns common.ErrNotFound when no model was saved.
	LoadActiveModel(ctx context.Context) (*model.ModelRecord, error)
	// ListModels returns model metadata without payloads, newest first.
	ListModels(ctx context.Context) ([]model.ModelRecord, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	QuestionnaireStore
	CohortStore
	AssessmentStore
	TrainingRunStore
	ModelStore

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
