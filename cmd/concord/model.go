package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/concord/internal/cli"
)

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect trained models",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the active model and cohort size",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			coord, store, err := openCoordinator(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			status, err := coord.Status(ctx)
			if err != nil {
				return err
			}
			return cli.RenderStatus(cmd.OutOrStdout(), status)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored model snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := openStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			models, err := store.ListModels(ctx)
			if err != nil {
				return err
			}
			return cli.RenderModels(cmd.OutOrStdout(), models)
		},
	})
	return cmd
}
