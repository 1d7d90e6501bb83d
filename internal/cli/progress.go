package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/concord/internal/training"
)

// TrainingProgress renders a training run's progress as a bar.
type TrainingProgress struct {
	writer   io.Writer
	bar      *progressbar.ProgressBar
	interval time.Duration
}

// NewTrainingProgress creates a progress display polling every interval.
func NewTrainingProgress(writer io.Writer, interval time.Duration) *TrainingProgress {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &TrainingProgress{
		writer:   writer,
		interval: interval,
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Training...[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(writer); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		),
	}
}

// Follow polls status until the run identified by runID stops, and returns
// its final state. ctx only stops the display, not the run.
func (p *TrainingProgress) Follow(ctx context.Context, runID string, status func() training.Status) (training.Status, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		s := status()
		if s.RunID == runID {
			p.Update(s)
			if !s.InProgress {
				return s, nil
			}
		}

		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Update moves the bar to the reported progress.
func (p *TrainingProgress) Update(s training.Status) {
	p.bar.Describe(fmt.Sprintf("[cyan][bold]%s[reset]", s.Message))
	if !s.InProgress && s.Error == "" {
		if err := p.bar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
		return
	}
	if err := p.bar.Set(s.Progress); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}
