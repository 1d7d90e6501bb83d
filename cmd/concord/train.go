package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/concord/internal/cli"
	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/training"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train and activate a new model",
		Long: `Train the risk classifier and topic regressor on the stored cohort
plus synthetic couples, then activate the result. The previous model stays
active if training fails.`,
		RunE: runTrain,
	}
	cmd.Flags().Int("synthetic", -1, "synthetic couples to add (default: configured count)")
	cmd.Flags().Uint64("seed", 0, "random seed for generation and training")
	cmd.Flags().Bool("quiet", false, "do not show a progress bar")
	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	if cmd.Flags().Changed("synthetic") {
		n, _ := cmd.Flags().GetInt("synthetic")
		v.Set("coordinator.synthetic_count", n)
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		v.Set("coordinator.synthetic.seed", seed)
		v.Set("coordinator.training.seed", seed)
	}

	out := cmd.OutOrStdout()
	handler := cli.NewInterruptHandler(out, "Training cannot be cancelled; waiting for the run to finish.")
	ctx := handler.HandleInterrupts(cmd.Context())

	coord, store, err := openCoordinator(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runID, err := coord.StartTraining(ctx)
	if err != nil {
		return err
	}

	var progress *cli.TrainingProgress
	if !quiet {
		progress = cli.NewTrainingProgress(out, 200*time.Millisecond)
	}
	status := awaitTraining(ctx, coord, runID, progress)
	if status.Error != "" {
		return common.NewUserError("training failed; the previous model is still active", errors.New(status.Error))
	}

	set := coord.Active()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Model %s is active", set.ID)))
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d samples (%d real), CV accuracy %.3f ± %.3f",
		set.SampleCount, set.RealCount, set.CVAccuracy, set.CVAccuracyStd)))
	for _, w := range set.Warnings {
		fmt.Fprintln(out, cli.FormatWarning(w))
	}
	return nil
}

// trainingRun is the part of the coordinator awaitTraining needs.
type trainingRun interface {
	TrainingStatus() training.Status
	Wait()
}

// awaitTraining shows progress until ctx is done or the run stops, then waits
// for the worker to exit so the store can be closed under it.
func awaitTraining(ctx context.Context, run trainingRun, runID string, progress *cli.TrainingProgress) training.Status {
	if progress != nil {
		_, _ = progress.Follow(ctx, runID, run.TrainingStatus)
	}
	run.Wait()
	return run.TrainingStatus()
}
