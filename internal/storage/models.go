package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/model"
)

// SaveModel stores a snapshot and makes it the only active one.
func (s *SQLiteStorage) SaveModel(ctx context.Context, record model.ModelRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateModelRecord(record); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE model_snapshots SET is_active = 0 WHERE is_active = 1`); err != nil {
			return fmt.Errorf("failed to deactivate models: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO model_snapshots (
				id, trained_at, payload, cv_accuracy, layout_items, layout_topics, layout_version, is_active
			) VALUES (?, ?, ?, ?, ?, ?, ?, 1)
		`, record.ID, record.TrainedAt, record.Payload, record.CVAccuracy,
			record.LayoutItems, record.LayoutTopics, record.LayoutVersion)
		if err != nil {
			return fmt.Errorf("failed to save model %s: %w", record.ID, err)
		}
		return nil
	})
}

// LoadActiveModel returns the active snapshot including its payload.
func (s *SQLiteStorage) LoadActiveModel(ctx context.Context) (*model.ModelRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var r model.ModelRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trained_at, payload, cv_accuracy, layout_items, layout_topics, layout_version, is_active
		FROM model_snapshots
		WHERE is_active = 1
		ORDER BY trained_at DESC
		LIMIT 1
	`).Scan(&r.ID, &r.TrainedAt, &r.Payload, &r.CVAccuracy,
		&r.LayoutItems, &r.LayoutTopics, &r.LayoutVersion, &r.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active model: %w", err)
	}
	return &r, nil
}

// ListModels returns snapshot metadata, newest first.
func (s *SQLiteStorage) ListModels(ctx context.Context) ([]model.ModelRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trained_at, cv_accuracy, layout_items, layout_topics, layout_version, is_active
		FROM model_snapshots
		ORDER BY trained_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.ModelRecord
	for rows.Next() {
		var r model.ModelRecord
		if err := rows.Scan(&r.ID, &r.TrainedAt, &r.CVAccuracy,
			&r.LayoutItems, &r.LayoutTopics, &r.LayoutVersion, &r.Active); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
