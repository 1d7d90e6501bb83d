package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/model"
	"github.com/Veraticus/concord/internal/service"
)

// SaveAssessment stores an assessment. The full record is kept as JSON next
// to the columns used for filtering.
func (s *SQLiteStorage) SaveAssessment(ctx context.Context, a *model.Assessment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAssessment(a); err != nil {
		return err
	}

	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode assessment: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (
			id, couple_id, model_id, risk, deterministic_risk, model_risk, branch,
			confidence, disagreement_ratio, alignment, conflict_ratio, body, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, nullString(a.CoupleID), a.ModelID, a.Risk.String(), a.DeterministicRisk.String(),
		a.ModelRisk.String(), a.Branch, a.Confidence, a.DisagreementRatio, a.Alignment,
		a.ConflictRatio, string(body), a.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: assessment %s", common.ErrDuplicateEntry, a.ID)
		}
		return wrapBusy(fmt.Errorf("failed to save assessment: %w", err))
	}
	return nil
}

// GetAssessment returns one assessment by ID.
func (s *SQLiteStorage) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM assessments WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return decodeAssessment(body)
}

// ListAssessments returns assessments, newest first.
func (s *SQLiteStorage) ListAssessments(ctx context.Context, filter service.AssessmentFilter) ([]model.Assessment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if filter.CoupleID != "" {
		where = append(where, "couple_id = ?")
		args = append(args, filter.CoupleID)
	}
	if filter.Risk != nil {
		where = append(where, "risk = ?")
		args = append(args, filter.Risk.String())
	}

	query := `SELECT body FROM assessments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Assessment
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		a, err := decodeAssessment(body)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func decodeAssessment(body string) (*model.Assessment, error) {
	var a model.Assessment
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		return nil, fmt.Errorf("%w: assessment body: %w", common.ErrDatabaseCorrupted, err)
	}
	return &a, nil
}
