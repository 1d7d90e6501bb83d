package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/concord/internal/cli"
	"github.com/Veraticus/concord/internal/model"
)

func questionnaireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questionnaire",
		Short: "Manage the questionnaire",
	}
	cmd.AddCommand(questionnaireImportCmd())
	cmd.AddCommand(questionnaireShowCmd())
	return cmd
}

func questionnaireImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the questionnaire from a YAML or JSON document",
		Long: `Import a questionnaire document. Topics list their questions; a
question with sub_questions contributes one answerable item per
sub-question.

Replacing the questionnaire changes the feature layout, so any active
model must be retrained before it can analyze couples again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var doc model.QuestionnaireDocument
			if err := decodeFile(args[0], cmd.InOrStdin(), &doc); err != nil {
				return err
			}
			q, err := doc.Build()
			if err != nil {
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

			saved, err := store.SaveQuestionnaire(ctx, q)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Imported %d topics and %d items", len(saved.Topics), saved.ItemCount())))
			return nil
		},
	}
}

func questionnaireShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored questionnaire",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
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

			out := cmd.OutOrStdout()
			if format != "text" {
				return writeFormatted(out, format, q)
			}
			fmt.Fprintln(out, cli.FormatTitle("Questionnaire"))
			for ti, items := range q.TopicItems() {
				fmt.Fprintln(out, cli.BoldStyle.Render(q.Topics[ti].Name))
				for _, idx := range items {
					fmt.Fprintf(out, "  %-8s %s\n", q.Items[idx].Code, q.Items[idx].Text)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("format", "text", "output format (text, json, yaml)")
	return cmd
}
