package training

import (
	"sync"
	"time"

	"github.com/Veraticus/concord/internal/common"
)

// Status is a point-in-time view of the training state.
type Status struct {
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	RunID      string     `json:"run_id,omitempty"`
	Message    string     `json:"message"`
	Error      string     `json:"error,omitempty"`
	ModelID    string     `json:"model_id,omitempty"`
	Progress   int        `json:"progress"`
	InProgress bool       `json:"in_progress"`
}

// Tracker admits one training run at a time and records its progress.
// The zero value is ready to use.
type Tracker struct {
	done   chan struct{}
	status Status
	mu     sync.Mutex
}

// Begin starts a run. It fails with common.ErrTrainingInProgress while
// another run is active.
func (t *Tracker) Begin(runID string) (*Run, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkLiveness()
	if t.status.InProgress {
		return nil, common.ErrTrainingInProgress
	}

	now := time.Now().UTC()
	t.done = make(chan struct{})
	t.status = Status{
		InProgress: true,
		RunID:      runID,
		StartedAt:  &now,
		Message:    "Starting training",
	}
	return &Run{tracker: t, id: runID, done: t.done}, nil
}

// Status returns a copy of the current state.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkLiveness()
	return t.status
}

// checkLiveness fails a run whose worker exited without finishing it.
// Callers hold mu.
func (t *Tracker) checkLiveness() {
	if !t.status.InProgress || t.done == nil {
		return
	}
	select {
	case <-t.done:
		now := time.Now().UTC()
		t.status.InProgress = false
		t.status.Message = "Training failed"
		t.status.Error = "training worker exited unexpectedly"
		t.status.FinishedAt = &now
	default:
	}
}

// Run is the handle a training worker reports through.
type Run struct {
	tracker *Tracker
	done    chan struct{}
	id      string
	once    sync.Once
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.id
}

// Update records progress. Progress never moves backwards.
func (r *Run) Update(percent int, message string) {
	r.tracker.mu.Lock()
	defer r.tracker.mu.Unlock()
	if !r.current() {
		return
	}
	percent = max(0, min(100, percent))
	if percent > r.tracker.status.Progress {
		r.tracker.status.Progress = percent
	}
	if message != "" {
		r.tracker.status.Message = message
	}
}

// Finish ends the run, successfully when err is nil.
func (r *Run) Finish(modelID string, err error) {
	r.tracker.mu.Lock()
	defer r.tracker.mu.Unlock()
	if !r.current() {
		return
	}

	now := time.Now().UTC()
	s := &r.tracker.status
	s.InProgress = false
	s.FinishedAt = &now
	if err != nil {
		s.Message = "Training failed"
		s.Error = err.Error()
		return
	}
	s.Progress = 100
	s.Message = "Training complete"
	s.ModelID = modelID
}

// Exit marks the worker goroutine as gone. Workers defer it so a run that
// never reaches Finish is detected.
func (r *Run) Exit() {
	r.once.Do(func() { close(r.done) })
}

func (r *Run) current() bool {
	return r.tracker.status.RunID == r.id && r.tracker.status.InProgress
}
