package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidCouple     = errors.New("invalid couple")
	ErrInvalidAssessment = errors.New("invalid assessment")
	ErrInvalidModel      = errors.New("invalid model record")
	ErrInvalidRun        = errors.New("invalid training run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateCouple(c *model.Couple) error {
	if c == nil {
		return fmt.Errorf("%w: couple", ErrNilParameter)
	}
	if err := model.ValidateProfile(c.Profile); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCouple, err)
	}
	if c.Responses.Len() <= 0 {
		return fmt.Errorf("%w: responses are empty or unequal in length", ErrInvalidCouple)
	}
	return nil
}

func validateAssessment(a *model.Assessment) error {
	if a == nil {
		return fmt.Errorf("%w: assessment", ErrNilParameter)
	}
	if a.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidAssessment)
	}
	if !a.Risk.IsValid() {
		return fmt.Errorf("%w: risk %s", ErrInvalidAssessment, a.Risk)
	}
	return nil
}

func validateModelRecord(r model.ModelRecord) error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidModel)
	}
	if len(r.Payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidModel)
	}
	return nil
}

func validateRun(r *model.TrainingRun) error {
	if r == nil {
		return fmt.Errorf("%w: training run", ErrNilParameter)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	switch r.Status {
	case model.RunRunning, model.RunSucceeded, model.RunFailed:
	default:
		return fmt.Errorf("%w: status %q", ErrInvalidRun, r.Status)
	}
	return nil
}

// wrapBusy marks SQLite busy and locked errors as retryable.
func wrapBusy(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %w", common.ErrDatabaseLocked, err)
	}
	return err
}
