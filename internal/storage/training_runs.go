package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/concord/internal/model"
)

// SaveTrainingRun inserts a run or updates it by ID.
func (s *SQLiteStorage) SaveTrainingRun(ctx context.Context, run *model.TrainingRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	var finished sql.NullTime
	if run.FinishedAt != nil {
		finished = sql.NullTime{Time: *run.FinishedAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO training_runs (
			id, status, message, error, model_id, sample_count, real_count, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			message = excluded.message,
			error = excluded.error,
			model_id = excluded.model_id,
			sample_count = excluded.sample_count,
			real_count = excluded.real_count,
			finished_at = excluded.finished_at
	`, run.ID, string(run.Status), nullString(run.Message), nullString(run.Error), nullString(run.ModelID),
		run.SampleCount, run.RealCount, run.StartedAt, finished)
	if err != nil {
		return wrapBusy(fmt.Errorf("failed to save training run: %w", err))
	}
	return nil
}

// ListTrainingRuns returns the most recent runs first. A limit of zero returns all.
func (s *SQLiteStorage) ListTrainingRuns(ctx context.Context, limit int) ([]model.TrainingRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, status, COALESCE(message, ''), COALESCE(error, ''), COALESCE(model_id, ''),
			sample_count, real_count, started_at, finished_at
		FROM training_runs
		ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.TrainingRun
	for rows.Next() {
		var r model.TrainingRun
		var status string
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &status, &r.Message, &r.Error, &r.ModelID,
			&r.SampleCount, &r.RealCount, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		r.Status = model.RunStatus(status)
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
