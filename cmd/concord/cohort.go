package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/concord/internal/cli"
	"github.com/Veraticus/concord/internal/model"
	"github.com/Veraticus/concord/internal/service"
	"github.com/Veraticus/concord/internal/synth"
	"github.com/Veraticus/concord/internal/training"
)

func cohortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cohort",
		Short: "Manage the real couple cohort",
	}
	cmd.AddCommand(cohortImportCmd())
	cmd.AddCommand(cohortListCmd())
	cmd.AddCommand(cohortSynthCmd())
	return cmd
}

func cohortImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import couples from a YAML or JSON list",
		Long: `Import a list of couples, each with a profile and both partners'
responses. The import is validated against the stored questionnaire and
is all-or-nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var couples []model.Couple
			if err := decodeFile(args[0], cmd.InOrStdin(), &couples); err != nil {
				return err
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

			q, err := loadQuestionnaire(ctx, store)
			if err != nil {
				return err
			}
			for i, c := range couples {
				if err := model.ValidateProfile(c.Profile); err != nil {
					return fmt.Errorf("couple %d: %w", i+1, err)
				}
				if err := model.ValidatePair(c.Responses, q.ItemCount()); err != nil {
					return fmt.Errorf("couple %d: %w", i+1, err)
				}
			}

			if err := store.SaveCouples(ctx, couples); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d couples", len(couples))))
			return nil
		},
	}
}

func cohortListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored couples with their derived risk labels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := openStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			q, err := loadQuestionnaire(ctx, store)
			if err != nil {
				return err
			}
			couples, err := store.ListCouples(ctx, service.CoupleFilter{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}

			labels := make([]model.RiskLabel, len(couples))
			for i, c := range couples {
				s, err := training.LabelReal(q, c)
				if err != nil {
					continue
				}
				labels[i] = s.Risk
			}
			return cli.RenderCouples(cmd.OutOrStdout(), couples, labels)
		},
	}
	cmd.Flags().Int("limit", 50, "maximum couples to list")
	cmd.Flags().Int("offset", 0, "couples to skip")
	return cmd
}

func cohortSynthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate synthetic couples without storing them",
		Long: `Generate synthetic couples for inspection. With --risk every couple
targets one class; otherwise the configured class distribution is used
and the generator is conditioned on the stored cohort.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			count, _ := cmd.Flags().GetInt("count")
			risk, _ := cmd.Flags().GetString("risk")
			seed, _ := cmd.Flags().GetUint64("seed")
			format, _ := cmd.Flags().GetString("format")

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := openStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			q, err := loadQuestionnaire(ctx, store)
			if err != nil {
				return err
			}
			couples, err := store.ListCouples(ctx, service.CoupleFilter{})
			if err != nil {
				return err
			}
			reference := training.LabelCohort(q, couples)

			cfg := settings.Coordinator.Synthetic
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			gen, err := synth.New(q, cfg)
			if err != nil {
				return err
			}

			var samples []model.TrainingSample
			if risk != "" {
				label, err := model.ParseRiskLabel(risk)
				if err != nil {
					return err
				}
				samples, err = gen.GenerateClass(label, count, reference)
				if err != nil {
					return err
				}
			} else {
				samples = gen.Generate(count, reference)
			}
			return writeFormatted(cmd.OutOrStdout(), format, samples)
		},
	}
	cmd.Flags().Int("count", 10, "number of couples to generate")
	cmd.Flags().String("risk", "", "generate only this class (Low, Medium, High)")
	cmd.Flags().Uint64("seed", 0, "random seed (default: configured seed)")
	cmd.Flags().String("format", "yaml", "output format (json, yaml)")
	return cmd
}
