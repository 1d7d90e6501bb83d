package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/concord/internal/api"
	"github.com/Veraticus/concord/internal/coordinator"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the assessment API. The persisted active model is loaded at
startup; POST /api/v1/train trains a new one in the background.`,
		RunE: runServe,
	}
	cmd.Flags().String("addr", "", "listen address (default: server.addr)")
	cmd.Flags().Bool("train-if-empty", false, "start training at startup when no model is stored")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	trainIfEmpty, _ := cmd.Flags().GetBool("train-if-empty")
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		v.Set("server.addr", addr)
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStorage(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	coord, err := coordinator.New(store, settings.Coordinator)
	if err != nil {
		return err
	}
	loaded, err := coord.LoadActive(ctx)
	if err != nil {
		return err
	}
	if !loaded {
		slog.Warn("No trained model is stored; analyses fail until training completes")
		if trainIfEmpty {
			runID, err := coord.StartTraining(ctx)
			if err != nil {
				return err
			}
			slog.Info("Started initial training", "run_id", runID)
		}
	}
	defer coord.Wait()

	server, err := api.NewServer(coord, settings.Server)
	if err != nil {
		return err
	}
	return server.ListenAndServe(ctx)
}
