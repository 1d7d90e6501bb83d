package cohort

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/concord/internal/model"
)

// TopicName is a strongly-typed topic name.
type TopicName string

// String returns the string representation of the topic name.
func (n TopicName) String() string {
	return string(n)
}

// Common topic names used across tests.
const (
	TopicCommunication TopicName = "Communication"
	TopicFinances      TopicName = "Finances"
	TopicParenting     TopicName = "Parenting"
	TopicIntimacy      TopicName = "Intimacy"
	TopicFaith         TopicName = "Faith"
	TopicFamily        TopicName = "Extended Family"
)

// QuestionnaireStore persists a questionnaire.
type QuestionnaireStore interface {
	SaveQuestionnaire(ctx context.Context, q model.Questionnaire) (model.Questionnaire, error)
}

// Builder provides a fluent interface for constructing test questionnaires.
type Builder interface {
	// WithTopic adds a topic.
	WithTopic(name TopicName) Builder

	// WithTopics adds several topics in order.
	WithTopics(names ...TopicName) Builder

	// WithItemsPerTopic sets how many items each topic receives.
	WithItemsPerTopic(n int) Builder

	// WithFixture replaces the topics and item count with a fixture's.
	WithFixture(f Fixture) Builder

	// Questionnaire returns the questionnaire without persisting it.
	Questionnaire() model.Questionnaire

	// Build saves the questionnaire and returns the stored copy.
	Build(ctx context.Context, store QuestionnaireStore) (model.Questionnaire, error)
}

type questionnaireBuilder struct {
	t             *testing.T
	topics        []TopicName
	itemsPerTopic int
}

// NewBuilder creates a questionnaire builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &questionnaireBuilder{t: t, itemsPerTopic: 2}
}

func (b *questionnaireBuilder) WithTopic(name TopicName) Builder {
	for _, existing := range b.topics {
		if existing == name {
			return b
		}
	}
	b.topics = append(b.topics, name)
	return b
}

func (b *questionnaireBuilder) WithTopics(names ...TopicName) Builder {
	for _, name := range names {
		b.WithTopic(name)
	}
	return b
}

func (b *questionnaireBuilder) WithItemsPerTopic(n int) Builder {
	b.itemsPerTopic = n
	return b
}

func (b *questionnaireBuilder) WithFixture(f Fixture) Builder {
	b.topics = nil
	b.itemsPerTopic = f.ItemsPerTopic()
	return b.WithTopics(f.Topics()...)
}

func (b *questionnaireBuilder) Questionnaire() model.Questionnaire {
	b.t.Helper()
	if len(b.topics) == 0 {
		b.t.Fatal("questionnaire builder has no topics")
	}
	return Questionnaire(b.itemsPerTopic, b.topics...)
}

func (b *questionnaireBuilder) Build(ctx context.Context, store QuestionnaireStore) (model.Questionnaire, error) {
	b.t.Helper()
	saved, err := store.SaveQuestionnaire(ctx, b.Questionnaire())
	if err != nil {
		return model.Questionnaire{}, fmt.Errorf("failed to seed questionnaire: %w", err)
	}
	return saved, nil
}

// Questionnaire builds a questionnaire with perTopic items for each topic,
// topic-major, coded Q1..Qn.
func Questionnaire(perTopic int, topics ...TopicName) model.Questionnaire {
	var q model.Questionnaire
	for ti, name := range topics {
		q.Topics = append(q.Topics, model.Topic{Name: name.String(), Description: "Test description for " + name.String()})
		for i := 0; i < perTopic; i++ {
			n := len(q.Items) + 1
			q.Items = append(q.Items, model.Item{
				Code:  fmt.Sprintf("Q%d", n),
				Text:  fmt.Sprintf("%s statement %d", name, i+1),
				Topic: ti,
			})
		}
	}
	return q
}
