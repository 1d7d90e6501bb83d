package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/concord/internal/cli"
	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/coordinator"
	"github.com/Veraticus/concord/internal/model"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Assess one couple against the active model",
		Long: `Assess a couple. The request file (YAML or JSON, "-" for stdin) holds
the profile, both partners' responses and optional precomputed metrics.

With --interactive the responses are asked item by item and the profile is
taken from flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}
	cmd.Flags().String("format", "text", "output format (text, json, yaml)")
	cmd.Flags().Bool("interactive", false, "enter responses interactively")
	cmd.Flags().String("couple-id", "", "reference recorded with the assessment")

	cmd.Flags().Int("male-age", 0, "male partner age (interactive)")
	cmd.Flags().Int("female-age", 0, "female partner age (interactive)")
	cmd.Flags().String("civil-status", string(model.CivilSingle), "civil status: Single, LivingIn, Separated, Divorced, Widowed (interactive)")
	cmd.Flags().Int("years", 0, "years living together (interactive)")
	cmd.Flags().Int("education", 0, "education level 0-4 (interactive)")
	cmd.Flags().Int("income", 0, "income bracket 0-4 (interactive)")
	cmd.Flags().String("employment", string(model.EmploymentEmployed), "employment: Unemployed, Employed, SelfEmployed (interactive)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	interactive, _ := cmd.Flags().GetBool("interactive")

	if interactive == (len(args) == 1) {
		return common.NewUserError("provide either a request file or --interactive", nil)
	}

	coord, store, err := openCoordinator(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var req coordinator.AnalyzeRequest
	if interactive {
		set := coord.Active()
		if set == nil {
			return common.NewUserError("no trained model is active; run concord train first", nil)
		}
		req.Profile = profileFromFlags(cmd)
		prompter := cli.NewResponsePrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
		req.Responses, err = prompter.PromptResponses(ctx, set.Questionnaire)
		if err != nil {
			return err
		}
	} else if err := decodeFile(args[0], cmd.InOrStdin(), &req); err != nil {
		return err
	}
	if id, _ := cmd.Flags().GetString("couple-id"); id != "" {
		req.CoupleID = id
	}

	a, err := coord.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if format == "text" {
		return cli.RenderAssessment(cmd.OutOrStdout(), a)
	}
	return writeFormatted(cmd.OutOrStdout(), format, a)
}

func profileFromFlags(cmd *cobra.Command) model.CoupleProfile {
	maleAge, _ := cmd.Flags().GetInt("male-age")
	femaleAge, _ := cmd.Flags().GetInt("female-age")
	civil, _ := cmd.Flags().GetString("civil-status")
	years, _ := cmd.Flags().GetInt("years")
	education, _ := cmd.Flags().GetInt("education")
	income, _ := cmd.Flags().GetInt("income")
	employment, _ := cmd.Flags().GetString("employment")

	return model.CoupleProfile{
		MaleAge:         maleAge,
		FemaleAge:       femaleAge,
		CivilStatus:     model.CivilStatus(civil),
		YearsCohabiting: years,
		Education:       education,
		Income:          income,
		Employment:      model.Employment(employment),
	}
}
