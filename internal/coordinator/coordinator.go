package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/engine"
	"github.com/Veraticus/concord/internal/service"
	"github.com/Veraticus/concord/internal/training"
)

// Coordinator serves analyses from the active model snapshot and runs at
// most one training job at a time. It is safe for concurrent use.
type Coordinator struct {
	store   service.Storage
	engine  *engine.Engine
	active  atomic.Pointer[training.ModelSet]
	tracker training.Tracker
	workers sync.WaitGroup
	cfg     Config
}

// New creates a coordinator. No model is active until LoadActive or a
// training run installs one.
func New(store service.Storage, cfg Config) (*Coordinator, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: storage is required", common.ErrMissingConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Coordinator{
		store:  store,
		engine: engine.NewWithConfig(cfg.Engine),
		cfg:    cfg,
	}, nil
}

// LoadActive installs the persisted active model. It returns false when no
// model has been saved yet.
func (c *Coordinator) LoadActive(ctx context.Context) (bool, error) {
	record, err := c.store.LoadActiveModel(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load active model: %w", err)
	}

	set, err := training.Unmarshal(record.Payload)
	if err != nil {
		return false, err
	}
	c.active.Store(set)

	slog.Info("Loaded active model",
		"model_id", set.ID,
		"trained_at", set.TrainedAt,
		"cv_accuracy", set.CVAccuracy)
	return true, nil
}

// Active returns the active snapshot, or nil when none is installed.
func (c *Coordinator) Active() *training.ModelSet {
	return c.active.Load()
}

// Install swaps in a new active snapshot. Analyses already running keep the
// snapshot they started with.
func (c *Coordinator) Install(set *training.ModelSet) {
	c.active.Store(set)
}

// TrainingStatus returns the current training state.
func (c *Coordinator) TrainingStatus() training.Status {
	return c.tracker.Status()
}

// Wait blocks until background training workers have exited.
func (c *Coordinator) Wait() {
	c.workers.Wait()
}

// Status summarises the service state.
type Status struct {
	TrainedAt     *time.Time      `json:"trained_at,omitempty"`
	ModelID       string          `json:"model_id,omitempty"`
	Training      training.Status `json:"training"`
	CVAccuracy    float64         `json:"cv_accuracy,omitempty"`
	CVAccuracyStd float64         `json:"cv_accuracy_std,omitempty"`
	Couples       int             `json:"couples"`
	ModelActive   bool            `json:"model_active"`
}

// Status reports the active model and training state.
func (c *Coordinator) Status(ctx context.Context) (Status, error) {
	s := Status{Training: c.tracker.Status()}
	if set := c.active.Load(); set != nil {
		trainedAt := set.TrainedAt
		s.ModelActive = true
		s.ModelID = set.ID
		s.TrainedAt = &trainedAt
		s.CVAccuracy = set.CVAccuracy
		s.CVAccuracyStd = set.CVAccuracyStd
	}

	n, err := c.store.CountCouples(ctx)
	if err != nil {
		return s, fmt.Errorf("failed to count couples: %w", err)
	}
	s.Couples = n
	return s, nil
}
