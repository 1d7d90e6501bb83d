package model

import (
	"errors"
	"fmt"
	"strings"
)

// Questionnaire validation errors.
var (
	ErrEmptyQuestionnaire = errors.New("questionnaire has no items")
	ErrInvalidTopic       = errors.New("invalid topic")
	ErrInvalidItem        = errors.New("invalid item")
)

// Topic is a thematic grouping of questionnaire items.
type Topic struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	ID          int64  `json:"id,omitempty" yaml:"-"`
}

// Item is one answerable questionnaire entry. Topic indexes Questionnaire.Topics.
type Item struct {
	Code  string `json:"code" yaml:"code"`
	Text  string `json:"text" yaml:"text"`
	ID    int64  `json:"id,omitempty" yaml:"-"`
	Topic int    `json:"topic" yaml:"topic"`
}

// Questionnaire is the ordered list of topics and answerable items.
type Questionnaire struct {
	Topics []Topic `json:"topics" yaml:"topics"`
	Items  []Item  `json:"items" yaml:"items"`
}

// ItemCount returns the number of answerable items.
func (q Questionnaire) ItemCount() int {
	return len(q.Items)
}

// TopicNames returns topic names in order.
func (q Questionnaire) TopicNames() []string {
	names := make([]string, len(q.Topics))
	for i, t := range q.Topics {
		names[i] = t.Name
	}
	return names
}

// TopicItems returns, for each topic in order, the indexes of its items.
func (q Questionnaire) TopicItems() [][]int {
	groups := make([][]int, len(q.Topics))
	for i, item := range q.Items {
		if item.Topic >= 0 && item.Topic < len(groups) {
			groups[item.Topic] = append(groups[item.Topic], i)
		}
	}
	return groups
}

// Validate checks that every item maps to exactly one known topic.
func (q Questionnaire) Validate() error {
	if len(q.Items) == 0 {
		return ErrEmptyQuestionnaire
	}
	if len(q.Topics) == 0 {
		return fmt.Errorf("%w: no topics defined", ErrInvalidTopic)
	}

	seenTopics := make(map[string]bool, len(q.Topics))
	for i, t := range q.Topics {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("%w: topic %d has no name", ErrInvalidTopic, i)
		}
		if seenTopics[name] {
			return fmt.Errorf("%w: duplicate topic %q", ErrInvalidTopic, name)
		}
		seenTopics[name] = true
	}

	seenItems := make(map[string]bool, len(q.Items))
	for i, item := range q.Items {
		if strings.TrimSpace(item.Code) == "" {
			return fmt.Errorf("%w: item %d has no code", ErrInvalidItem, i)
		}
		if seenItems[item.Code] {
			return fmt.Errorf("%w: duplicate item code %q", ErrInvalidItem, item.Code)
		}
		seenItems[item.Code] = true
		if item.Topic < 0 || item.Topic >= len(q.Topics) {
			return fmt.Errorf("%w: item %q references topic %d", ErrInvalidItem, item.Code, item.Topic)
		}
	}
	return nil
}

// QuestionnaireDocument is the authoring format for a questionnaire, where a
// question may be split into sub-questions that are answered separately.
type QuestionnaireDocument struct {
	Topics []TopicDocument `json:"topics" yaml:"topics"`
}

// TopicDocument groups questions under a topic.
type TopicDocument struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	Questions   []QuestionDocument `json:"questions" yaml:"questions"`
}

// QuestionDocument is one authored question.
type QuestionDocument struct {
	Code         string   `json:"code" yaml:"code"`
	Text         string   `json:"text" yaml:"text"`
	SubQuestions []string `json:"sub_questions,omitempty" yaml:"sub_questions,omitempty"`
}

// Build flattens the document into answerable items. A question with
// sub-questions contributes one item per sub-question, coded "<code>.<n>".
func (d QuestionnaireDocument) Build() (Questionnaire, error) {
	var q Questionnaire
	for ti, td := range d.Topics {
		q.Topics = append(q.Topics, Topic{Name: td.Name, Description: td.Description})
		for _, qd := range td.Questions {
			if len(qd.SubQuestions) == 0 {
				q.Items = append(q.Items, Item{Code: qd.Code, Text: qd.Text, Topic: ti})
				continue
			}
			for si, sub := range qd.SubQuestions {
				q.Items = append(q.Items, Item{
					Code:  fmt.Sprintf("%s.%d", qd.Code, si+1),
					Text:  strings.TrimSpace(qd.Text + " " + sub),
					Topic: ti,
				})
			}
		}
	}
	if err := q.Validate(); err != nil {
		return Questionnaire{}, err
	}
	return q, nil
}
