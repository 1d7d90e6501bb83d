package cohort

import (
	"github.com/Veraticus/concord/internal/model"
)

// Fixture is a predefined questionnaire shape.
type Fixture interface {
	// Name returns the fixture's descriptive name.
	Name() string

	// Topics returns the topic names in order.
	Topics() []TopicName

	// ItemsPerTopic returns how many items each topic has.
	ItemsPerTopic() int
}

type fixture struct {
	name          string
	topics        []TopicName
	itemsPerTopic int
}

func (f *fixture) Name() string        { return f.name }
func (f *fixture) Topics() []TopicName { return f.topics }
func (f *fixture) ItemsPerTopic() int  { return f.itemsPerTopic }

// Predefined fixtures.
var (
	// FixtureMinimal has two topics with two items each.
	FixtureMinimal Fixture = &fixture{
		name:          "Minimal",
		topics:        []TopicName{TopicCommunication, TopicFinances},
		itemsPerTopic: 2,
	}

	// FixtureStandard has four topics with five items each.
	FixtureStandard Fixture = &fixture{
		name:          "Standard",
		topics:        []TopicName{TopicCommunication, TopicFinances, TopicParenting, TopicIntimacy},
		itemsPerTopic: 5,
	}
)

// QuestionnaireFor returns the fixture's questionnaire.
func QuestionnaireFor(f Fixture) model.Questionnaire {
	return Questionnaire(f.ItemsPerTopic(), f.Topics()...)
}

// Profile returns a valid profile of a cohabiting employed couple.
func Profile() model.CoupleProfile {
	return model.CoupleProfile{
		CivilStatus:     model.CivilLivingIn,
		Employment:      model.EmploymentEmployed,
		MaleAge:         34,
		FemaleAge:       31,
		YearsCohabiting: 4,
		Education:       3,
		Income:          2,
	}
}

// PairWithRisk returns a response pair for items whose deterministic label
// is label: all agree is Low, all neutral (ratio 0.3) is Medium and all
// disagree is High.
func PairWithRisk(items int, label model.RiskLabel) model.ResponsePair {
	code := model.Agree
	switch label {
	case model.RiskMedium:
		code = model.Neutral
	case model.RiskHigh:
		code = model.Disagree
	}
	pair := model.ResponsePair{Male: make([]model.Response, items), Female: make([]model.Response, items)}
	for i := 0; i < items; i++ {
		pair.Male[i] = code
		pair.Female[i] = code
	}
	return pair
}

// CoupleWithRisk returns a valid couple for q whose deterministic label is label.
func CoupleWithRisk(q model.Questionnaire, label model.RiskLabel) model.Couple {
	return model.Couple{
		Reference: "test-" + label.String(),
		Profile:   Profile(),
		Responses: PairWithRisk(q.ItemCount(), label),
	}
}
