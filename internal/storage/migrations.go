package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Questionnaire topics and items",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS topics (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					description TEXT,
					position INTEGER NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS items (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					code TEXT UNIQUE NOT NULL,
					text TEXT NOT NULL,
					topic_id INTEGER NOT NULL,
					position INTEGER NOT NULL,
					FOREIGN KEY (topic_id) REFERENCES topics(id)
				)`,
				`CREATE INDEX idx_items_topic ON items(topic_id)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Real couple cohort",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS couples (
					id TEXT PRIMARY KEY,
					reference TEXT,
					civil_status TEXT NOT NULL,
					employment TEXT NOT NULL,
					male_age INTEGER NOT NULL,
					female_age INTEGER NOT NULL,
					years_cohabiting INTEGER NOT NULL DEFAULT 0,
					education INTEGER NOT NULL,
					income INTEGER NOT NULL,
					responses TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_couples_created ON couples(created_at)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Model snapshots and training history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS model_snapshots (
					id TEXT PRIMARY KEY,
					trained_at DATETIME NOT NULL,
					payload BLOB NOT NULL,
					cv_accuracy REAL NOT NULL DEFAULT 0,
					layout_items INTEGER NOT NULL,
					layout_topics INTEGER NOT NULL,
					layout_version INTEGER NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_model_snapshots_active ON model_snapshots(is_active)`,
				`CREATE TABLE IF NOT EXISTS training_runs (
					id TEXT PRIMARY KEY,
					status TEXT NOT NULL,
					message TEXT,
					error TEXT,
					model_id TEXT,
					sample_count INTEGER NOT NULL DEFAULT 0,
					real_count INTEGER NOT NULL DEFAULT 0,
					started_at DATETIME NOT NULL,
					finished_at DATETIME
				)`,
				`CREATE INDEX idx_training_runs_started ON training_runs(started_at)`,
			})
		},
	},
	{
		Version:     4,
		Description: "Assessment history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS assessments (
					id TEXT PRIMARY KEY,
					couple_id TEXT,
					model_id TEXT NOT NULL,
					risk TEXT NOT NULL,
					deterministic_risk TEXT NOT NULL,
					model_risk TEXT NOT NULL,
					branch TEXT NOT NULL,
					confidence REAL NOT NULL,
					disagreement_ratio REAL NOT NULL,
					alignment REAL NOT NULL,
					conflict_ratio REAL NOT NULL,
					body TEXT NOT NULL,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_assessments_couple ON assessments(couple_id)`,
				`CREATE INDEX idx_assessments_risk ON assessments(risk)`,
			})
		},
	},
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, version)
	}

	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
