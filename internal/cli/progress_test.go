package cli

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concord/internal/training"
)

// scriptedStatus replays statuses, repeating the last one.
type scriptedStatus struct {
	statuses []training.Status
	mu       sync.Mutex
}

func (s *scriptedStatus) next() training.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statuses[0]
	if len(s.statuses) > 1 {
		s.statuses = s.statuses[1:]
	}
	return st
}

func TestTrainingProgress_Follow(t *testing.T) {
	script := &scriptedStatus{statuses: []training.Status{
		{RunID: "old", InProgress: false, Progress: 100},
		{RunID: "r-1", InProgress: true, Progress: 10, Message: "Loading"},
		{RunID: "r-1", InProgress: true, Progress: 60, Message: "Fitting"},
		{RunID: "r-1", InProgress: false, Progress: 100, Message: "Training complete", ModelID: "m-1"},
	}}
	out := &syncBuffer{}

	final, err := NewTrainingProgress(out, time.Millisecond).Follow(context.Background(), "r-1", script.next)
	require.NoError(t, err)
	assert.Equal(t, "m-1", final.ModelID)
	assert.Contains(t, out.String(), "Training complete")
}

func TestTrainingProgress_FollowFailure(t *testing.T) {
	script := &scriptedStatus{statuses: []training.Status{
		{RunID: "r-1", InProgress: false, Progress: 10, Error: "boom", Message: "Training failed"},
	}}

	final, err := NewTrainingProgress(&syncBuffer{}, time.Millisecond).Follow(context.Background(), "r-1", script.next)
	require.NoError(t, err)
	assert.Equal(t, "boom", final.Error)
}

func TestTrainingProgress_FollowCanceled(t *testing.T) {
	script := &scriptedStatus{statuses: []training.Status{{RunID: "r-1", InProgress: true, Progress: 5}}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewTrainingProgress(&syncBuffer{}, time.Millisecond).Follow(ctx, "r-1", script.next)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
