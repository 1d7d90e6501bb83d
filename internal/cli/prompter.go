package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/concord/internal/model"
)

// Partner names used in prompts.
const (
	PartnerMale   = "male partner"
	PartnerFemale = "female partner"
)

// ResponsePrompter collects questionnaire answers interactively.
type ResponsePrompter struct {
	writer io.Writer
	reader *NonBlockingReader
}

// NewResponsePrompter creates a prompter reading from reader and writing to writer.
func NewResponsePrompter(reader io.Reader, writer io.Writer) *ResponsePrompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &ResponsePrompter{reader: NewNonBlockingReader(reader), writer: writer}
}

// PromptResponses asks both partners every item of q, topic by topic.
func (p *ResponsePrompter) PromptResponses(ctx context.Context, q model.Questionnaire) (model.ResponsePair, error) {
	pair := model.ResponsePair{
		Male:   make([]model.Response, q.ItemCount()),
		Female: make([]model.Response, q.ItemCount()),
	}

	if _, err := fmt.Fprintln(p.writer, FormatTitle("Questionnaire")); err != nil {
		return pair, fmt.Errorf("failed to write title: %w", err)
	}
	if _, err := fmt.Fprintln(p.writer, SubtleStyle.Render("Answer d (disagree), n (neutral) or a (agree).")); err != nil {
		return pair, fmt.Errorf("failed to write instructions: %w", err)
	}

	for ti, items := range q.TopicItems() {
		if len(items) == 0 {
			continue
		}
		header := fmt.Sprintf("\n%s (%d/%d)", BoldStyle.Render(q.Topics[ti].Name), ti+1, len(q.Topics))
		if _, err := fmt.Fprintln(p.writer, header); err != nil {
			return pair, fmt.Errorf("failed to write topic header: %w", err)
		}

		for _, idx := range items {
			item := q.Items[idx]
			if _, err := fmt.Fprintf(p.writer, "%s %s\n", SubtleStyle.Render(item.Code), item.Text); err != nil {
				return pair, fmt.Errorf("failed to write item: %w", err)
			}
			male, err := p.promptResponse(ctx, PartnerMale)
			if err != nil {
				return pair, err
			}
			female, err := p.promptResponse(ctx, PartnerFemale)
			if err != nil {
				return pair, err
			}
			pair.Male[idx] = male
			pair.Female[idx] = female
		}
	}
	return pair, nil
}

func (p *ResponsePrompter) promptResponse(ctx context.Context, partner string) (model.Response, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt("  "+partner)); err != nil {
			return 0, fmt.Errorf("failed to write prompt: %w", err)
		}

		line, err := p.reader.ReadLine(ctx)
		if err != nil {
			return 0, err
		}

		if r, ok := ParseResponse(line); ok {
			return r, nil
		}
		if _, err := fmt.Fprintln(p.writer, FormatError("Please answer d, n or a")); err != nil {
			return 0, fmt.Errorf("failed to write error: %w", err)
		}
	}
}

// ParseResponse accepts d/n/a, the words, or the numeric codes 2-4.
func ParseResponse(s string) (model.Response, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "d", "disagree", "2":
		return model.Disagree, true
	case "n", "neutral", "3":
		return model.Neutral, true
	case "a", "agree", "4":
		return model.Agree, true
	default:
		return 0, false
	}
}
