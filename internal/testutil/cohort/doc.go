// Package cohort provides test infrastructure for questionnaires and couples.
// It offers a fluent builder for questionnaires, predefined fixtures and
// helpers that produce couples with a known deterministic risk label.
//
// # Basic Usage
//
//	q := cohort.NewBuilder(t).
//		WithFixture(cohort.FixtureStandard).
//		Questionnaire()
//
//	couple := cohort.CoupleWithRisk(q, model.RiskHigh)
//
// # Seeding Storage
//
// Build saves the questionnaire through any store that can persist one:
//
//	db := testutil.SetupTestDB(t, cohort.FixtureMinimal)
//	q := db.Questionnaire
//
// # Fixtures
//
// FixtureMinimal has two topics with two items each. FixtureStandard has four
// topics with five items each, matching the default questionnaire shape.
package cohort
