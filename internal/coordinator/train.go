package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/model"
	"github.com/Veraticus/concord/internal/service"
	"github.com/Veraticus/concord/internal/synth"
	"github.com/Veraticus/concord/internal/training"
)

// Progress ranges of the training stages.
const (
	progressLoaded    = 10
	progressSynthetic = 20
	progressTopUp     = 25
	progressPipeline  = 30
	progressFitted    = 95
)

// StartTraining begins a training run in the background and returns its ID.
// It fails with common.ErrTrainingInProgress while another run is active.
// The run is not tied to ctx's cancellation; Wait blocks until it exits.
func (c *Coordinator) StartTraining(ctx context.Context) (string, error) {
	run, err := c.tracker.Begin(uuid.NewString())
	if err != nil {
		return "", err
	}

	ctx = context.WithoutCancel(ctx)
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		defer run.Exit()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Training worker panicked", "run_id", run.ID(), "panic", r)
			}
		}()
		_, _ = c.execute(ctx, run)
	}()

	return run.ID(), nil
}

// Train runs training synchronously and returns the installed snapshot.
func (c *Coordinator) Train(ctx context.Context) (*training.ModelSet, error) {
	run, err := c.tracker.Begin(uuid.NewString())
	if err != nil {
		return nil, err
	}
	defer run.Exit()
	return c.execute(ctx, run)
}

func (c *Coordinator) execute(ctx context.Context, run *training.Run) (*training.ModelSet, error) {
	record := &model.TrainingRun{
		ID:        run.ID(),
		Status:    model.RunRunning,
		StartedAt: time.Now().UTC(),
		Message:   "Starting training",
	}
	c.saveRun(ctx, record)

	set, err := c.train(ctx, run, record)

	finished := time.Now().UTC()
	record.FinishedAt = &finished
	if err != nil {
		record.Status = model.RunFailed
		record.Message = "Training failed"
		record.Error = err.Error()
		common.LogError(err, "Training failed", common.Fields{"run_id": run.ID()})
	} else {
		record.Status = model.RunSucceeded
		record.Message = "Training complete"
		record.ModelID = set.ID
	}
	c.saveRun(ctx, record)

	modelID := ""
	if set != nil {
		modelID = set.ID
	}
	run.Finish(modelID, err)
	return set, err
}

func (c *Coordinator) train(ctx context.Context, run *training.Run, record *model.TrainingRun) (*training.ModelSet, error) {
	run.Update(5, "Loading questionnaire and cohort")
	q, err := c.store.LoadQuestionnaire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load questionnaire: %w", err)
	}
	couples, err := c.store.ListCouples(ctx, service.CoupleFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load cohort: %w", err)
	}
	realSamples := training.LabelCohort(q, couples)
	run.Update(progressLoaded, fmt.Sprintf("Labelled %d real couples", len(realSamples)))

	gen, err := synth.New(q, c.cfg.Synthetic)
	if err != nil {
		return nil, err
	}
	synthetic := gen.Generate(c.cfg.SyntheticCount, realSamples)
	samples := append(append([]model.TrainingSample(nil), realSamples...), synthetic...)
	run.Update(progressSynthetic, fmt.Sprintf("Generated %d synthetic couples", len(synthetic)))

	logComposition(realSamples, synthetic)

	samples = c.topUp(gen, samples, realSamples)
	run.Update(progressTopUp, "Cohort assembled")

	record.SampleCount = len(samples)
	record.RealCount = len(realSamples)

	pipeline, err := training.NewPipeline(q, c.cfg.Training)
	if err != nil {
		return nil, err
	}
	set, err := pipeline.Run(ctx, samples, func(percent int, message string) {
		run.Update(progressPipeline+percent*(progressFitted-progressPipeline)/100, message)
	})
	if err != nil {
		return nil, err
	}

	c.Install(set)
	common.LogInfo("Installed trained model", common.Fields{
		"model_id":    set.ID,
		"samples":     set.SampleCount,
		"real":        set.RealCount,
		"cv_accuracy": set.CVAccuracy,
		"rebalanced":  set.Rebalanced,
	})
	run.Update(progressFitted, "Saving model")

	if err := c.persist(ctx, set); err != nil {
		// The snapshot already serves analyses; it is lost on restart.
		common.LogWarn("Trained model could not be saved", common.Fields{
			"model_id": set.ID,
			"error":    err.Error(),
		})
	}
	return set, nil
}

// topUp adds class-targeted samples for every class absent from samples.
func (c *Coordinator) topUp(gen *synth.Generator, samples, reference []model.TrainingSample) []model.TrainingSample {
	if c.cfg.TopUpCount == 0 {
		return samples
	}
	counts := model.CountByRisk(samples)
	for _, label := range model.RiskLabels {
		if counts[label] > 0 {
			continue
		}
		extra, err := gen.GenerateClass(label, c.cfg.TopUpCount, reference)
		if err != nil {
			slog.Warn("Could not generate couples for missing class",
				"class", label.String(),
				"generated", len(extra),
				"error", err)
		}
		slog.Info("Topped up missing class", "class", label.String(), "samples", len(extra))
		samples = append(samples, extra...)
	}
	return samples
}

func (c *Coordinator) persist(ctx context.Context, set *training.ModelSet) error {
	rec, err := set.Record()
	if err != nil {
		return err
	}
	return common.WithRetry(ctx, func() error {
		return c.store.SaveModel(ctx, rec)
	}, c.cfg.Retry)
}

func (c *Coordinator) saveRun(ctx context.Context, run *model.TrainingRun) {
	if err := c.store.SaveTrainingRun(ctx, run); err != nil {
		slog.Warn("Failed to record training run", "run_id", run.ID, "error", err)
	}
}

func logComposition(realSamples, synthetic []model.TrainingSample) {
	realCounts := model.CountByRisk(realSamples)
	synthCounts := model.CountByRisk(synthetic)
	for _, label := range model.RiskLabels {
		slog.Info("Training cohort composition",
			"class", label.String(),
			"real", realCounts[label],
			"synthetic", synthCounts[label])
	}
	if len(realSamples) > 1 && len(realCounts) == 1 {
		slog.Warn("All real couples share one risk label", "couples", len(realSamples))
	}
}
