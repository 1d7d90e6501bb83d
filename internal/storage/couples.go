package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Veraticus/concord/internal/model"
	"github.com/Veraticus/concord/internal/service"
)

// SaveCouple inserts or replaces a couple. A missing ID is generated.
func (s *SQLiteStorage) SaveCouple(ctx context.Context, couple *model.Couple) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCouple(couple); err != nil {
		return err
	}
	return s.saveCoupleTx(ctx, s.db, couple)
}

// SaveCouples stores a batch of couples atomically.
func (s *SQLiteStorage) SaveCouples(ctx context.Context, couples []model.Couple) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range couples {
		if err := validateCouple(&couples[i]); err != nil {
			return fmt.Errorf("couple at index %d: %w", i, err)
		}
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i := range couples {
			if err := s.saveCoupleTx(ctx, tx, &couples[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStorage) saveCoupleTx(ctx context.Context, q queryable, couple *model.Couple) error {
	if couple.ID == "" {
		couple.ID = uuid.NewString()
	}
	if couple.CreatedAt.IsZero() {
		couple.CreatedAt = time.Now().UTC()
	}

	responses, err := json.Marshal(couple.Responses)
	if err != nil {
		return fmt.Errorf("failed to encode responses: %w", err)
	}

	p := couple.Profile
	_, err = q.ExecContext(ctx, `
		INSERT INTO couples (
			id, reference, civil_status, employment, male_age, female_age,
			years_cohabiting, education, income, responses, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reference = excluded.reference,
			civil_status = excluded.civil_status,
			employment = excluded.employment,
			male_age = excluded.male_age,
			female_age = excluded.female_age,
			years_cohabiting = excluded.years_cohabiting,
			education = excluded.education,
			income = excluded.income,
			responses = excluded.responses
	`, couple.ID, nullString(couple.Reference), string(p.CivilStatus), string(p.Employment),
		p.MaleAge, p.FemaleAge, p.YearsCohabiting, p.Education, p.Income,
		string(responses), couple.CreatedAt)
	if err != nil {
		return wrapBusy(fmt.Errorf("failed to save couple: %w", err))
	}
	return nil
}

// ListCouples returns stored couples in insertion order.
func (s *SQLiteStorage) ListCouples(ctx context.Context, filter service.CoupleFilter) ([]model.Couple, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, COALESCE(reference, ''), civil_status, employment, male_age, female_age,
			years_cohabiting, education, income, responses, created_at
		FROM couples`
	var args []any
	if filter.Since != nil {
		query += ` WHERE created_at >= ?`
		args = append(args, *filter.Since)
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query couples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var couples []model.Couple
	for rows.Next() {
		var c model.Couple
		var civil, employment, responses string
		if err := rows.Scan(&c.ID, &c.Reference, &civil, &employment,
			&c.Profile.MaleAge, &c.Profile.FemaleAge, &c.Profile.YearsCohabiting,
			&c.Profile.Education, &c.Profile.Income, &responses, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan couple: %w", err)
		}
		c.Profile.CivilStatus = model.CivilStatus(civil)
		c.Profile.Employment = model.Employment(employment)
		if err := json.Unmarshal([]byte(responses), &c.Responses); err != nil {
			return nil, fmt.Errorf("failed to decode responses for couple %s: %w", c.ID, err)
		}
		couples = append(couples, c)
	}
	return couples, rows.Err()
}

// CountCouples returns the number of stored couples.
func (s *SQLiteStorage) CountCouples(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM couples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count couples: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
