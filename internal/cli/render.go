package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/concord/internal/coordinator"
	"github.com/Veraticus/concord/internal/model"
)

// RenderAssessment writes a human readable assessment.
func RenderAssessment(w io.Writer, a *model.Assessment) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Risk: %s  %s\n",
		RiskStyle(a.Risk).Render(a.Risk.String()),
		SubtleStyle.Render(fmt.Sprintf("(%s, confidence %.0f%%)", a.Branch, a.Confidence*100)))
	fmt.Fprintf(&b, "Deterministic: %s   Model: %s\n", a.DeterministicRisk, a.ModelRisk)
	fmt.Fprintf(&b, "Disagreement ratio: %.3f   Alignment: %.3f\n", a.DisagreementRatio, a.Alignment)

	labels := make([]string, 0, len(a.Probabilities))
	for label := range a.Probabilities {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		li, _ := model.ParseRiskLabel(labels[i])
		lj, _ := model.ParseRiskLabel(labels[j])
		return li < lj
	})
	parts := make([]string, len(labels))
	for i, label := range labels {
		parts[i] = fmt.Sprintf("%s %.2f", label, a.Probabilities[label])
	}
	fmt.Fprintf(&b, "Probabilities: %s\n", strings.Join(parts, ", "))

	if len(a.Topics) > 0 {
		b.WriteString("\n" + BoldStyle.Render("Focus topics") + "\n")
		for i, tp := range a.Topics {
			fmt.Fprintf(&b, "  %d. %-28s %s %s\n", i+1, tp.Topic,
				TierStyle(tp.Tier).Render(fmt.Sprintf("%-8s", tp.Tier)),
				scoreBar(tp.Score))
		}
	}

	if len(a.Reasons) > 0 {
		b.WriteString("\n" + BoldStyle.Render("Reasons") + "\n")
		for _, r := range a.Reasons {
			fmt.Fprintf(&b, "  • %s\n", r.Message)
		}
	}

	for _, warning := range a.Warnings {
		b.WriteString("\n" + FormatWarning(warning))
	}

	_, err := fmt.Fprintln(w, RenderBox(ChartIcon+" Couple Assessment", strings.TrimRight(b.String(), "\n")))
	return err
}

// scoreBar draws a ten-cell bar for a score in [0,1].
func scoreBar(score float64) string {
	filled := int(score*10 + 0.5)
	filled = max(0, min(10, filled))
	return strings.Repeat("█", filled) + SubtleStyle.Render(strings.Repeat("░", 10-filled)) +
		fmt.Sprintf(" %.2f", score)
}

// RenderStatus writes the service status.
func RenderStatus(w io.Writer, s coordinator.Status) error {
	var b strings.Builder
	if s.ModelActive {
		fmt.Fprintf(&b, "Active model: %s\n", s.ModelID)
		if s.TrainedAt != nil {
			fmt.Fprintf(&b, "Trained: %s\n", s.TrainedAt.Local().Format(time.DateTime))
		}
		fmt.Fprintf(&b, "CV accuracy: %.3f ± %.3f\n", s.CVAccuracy, s.CVAccuracyStd)
	} else {
		b.WriteString(WarningStyle.Render("No active model") + "\n")
	}
	fmt.Fprintf(&b, "Real couples: %d\n", s.Couples)

	t := s.Training
	switch {
	case t.InProgress:
		fmt.Fprintf(&b, "Training: %d%% %s", t.Progress, t.Message)
	case t.Error != "":
		fmt.Fprintf(&b, "Last training: %s", ErrorStyle.Render(t.Error))
	case t.RunID != "":
		fmt.Fprintf(&b, "Last training: %s", t.Message)
	default:
		b.WriteString("Training: idle")
	}

	_, err := fmt.Fprintln(w, RenderBox("Status", b.String()))
	return err
}

// RenderModels writes a table of stored model snapshots.
func RenderModels(w io.Writer, models []model.ModelRecord) error {
	if len(models) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No models have been trained"))
		return err
	}
	rows := make([][]string, len(models))
	for i, m := range models {
		active := ""
		if m.Active {
			active = SuccessIcon
		}
		rows[i] = []string{
			m.ID,
			m.TrainedAt.Local().Format(time.DateTime),
			fmt.Sprintf("%.3f", m.CVAccuracy),
			fmt.Sprintf("%d/%d", m.LayoutItems, m.LayoutTopics),
			active,
		}
	}
	_, err := fmt.Fprintln(w, newTable("ID", "Trained", "CV Accuracy", "Items/Topics", "Active").Rows(rows...))
	return err
}

// RenderCouples writes a table of stored couples with their derived labels.
func RenderCouples(w io.Writer, couples []model.Couple, labels []model.RiskLabel) error {
	if len(couples) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No couples stored"))
		return err
	}
	rows := make([][]string, len(couples))
	for i, c := range couples {
		label := ""
		if i < len(labels) {
			label = labels[i].String()
		}
		rows[i] = []string{
			c.ID,
			c.Reference,
			string(c.Profile.CivilStatus),
			fmt.Sprintf("%d/%d", c.Profile.MaleAge, c.Profile.FemaleAge),
			label,
		}
	}
	_, err := fmt.Fprintln(w, newTable("ID", "Reference", "Civil status", "Ages", "Risk").Rows(rows...))
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
}
