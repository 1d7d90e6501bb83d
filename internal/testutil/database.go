// Package testutil provides test utilities for concord: isolated databases
// seeded with fixture questionnaires and couples.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/concord/internal/model"
	"github.com/Veraticus/concord/internal/service"
	"github.com/Veraticus/concord/internal/storage"
	"github.com/Veraticus/concord/internal/testutil/cohort"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage       service.Storage
	t             *testing.T
	Questionnaire model.Questionnaire
}

// SetupTestDB creates a new in-memory test database seeded with the fixture's
// questionnaire. It automatically handles migrations and cleanup. A nil
// fixture leaves the database empty.
//
// Example:
//
//	db := testutil.SetupTestDB(t, cohort.FixtureStandard)
//	db.SeedCouples(model.RiskLow, model.RiskHigh)
func SetupTestDB(t *testing.T, fixture cohort.Fixture) *TestDB {
	t.Helper()

	var q model.Questionnaire
	db := SetupTestDBWithOptions(t, TestDBOptions{
		CustomSetup: func(ctx context.Context, s service.Storage) error {
			if fixture == nil {
				return nil
			}
			var err error
			q, err = cohort.NewBuilder(t).WithFixture(fixture).Build(ctx, s)
			return err
		},
	})
	db.Questionnaire = q
	return db
}

// SetupTestDBWithBuilder creates a test database using a questionnaire builder.
//
// Example:
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b cohort.Builder) cohort.Builder {
//		return b.WithTopics(cohort.TopicFinances, cohort.TopicFaith).WithItemsPerTopic(3)
//	})
func SetupTestDBWithBuilder(t *testing.T, configure func(cohort.Builder) cohort.Builder) *TestDB {
	t.Helper()

	builder := cohort.NewBuilder(t)
	if configure != nil {
		builder = configure(builder)
	}

	var q model.Questionnaire
	db := SetupTestDBWithOptions(t, TestDBOptions{
		CustomSetup: func(ctx context.Context, s service.Storage) error {
			var err error
			q, err = builder.Build(ctx, s)
			return err
		},
	})
	db.Questionnaire = q
	return db
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// SeedCouples stores one couple per label, each with that deterministic label.
func (db *TestDB) SeedCouples(labels ...model.RiskLabel) []model.Couple {
	db.t.Helper()
	ctx := context.Background()

	couples := make([]model.Couple, 0, len(labels))
	for _, label := range labels {
		c := cohort.CoupleWithRisk(db.Questionnaire, label)
		if err := db.Storage.SaveCouple(ctx, &c); err != nil {
			db.t.Fatalf("failed to seed %s couple: %v", label, err)
		}
		couples = append(couples, c)
	}
	return couples
}
