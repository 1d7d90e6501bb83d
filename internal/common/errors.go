// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Training errors.
	ErrTrainingInProgress = errors.New("training already in progress")
	ErrNoQuestionnaire    = errors.New("no questionnaire loaded")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Kind classifies an error for callers that need a machine-readable category.
type Kind string

// Error kinds surfaced to API and CLI callers.
const (
	KindInputValidation  Kind = "input_validation"
	KindEncoding         Kind = "encoding"
	KindTrainingData     Kind = "training_data"
	KindModelUnavailable Kind = "model_unavailable"
	KindInternal         Kind = "internal"
)

// Error carries a Kind alongside a human readable message.
type Error struct {
	Err     error
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InputValidation reports a malformed request: bad demographics, bad response codes,
// or response sequences that do not match the questionnaire.
func InputValidation(format string, args ...any) error {
	return &Error{Kind: KindInputValidation, Message: fmt.Sprintf(format, args...)}
}

// Encoding reports a violated feature-vector construction contract.
func Encoding(format string, args ...any) error {
	return &Error{Kind: KindEncoding, Message: fmt.Sprintf(format, args...)}
}

// TrainingData reports a training set that cannot be fit.
func TrainingData(format string, args ...any) error {
	return &Error{Kind: KindTrainingData, Message: fmt.Sprintf(format, args...)}
}

// ModelUnavailable reports inference attempted without a usable model snapshot.
func ModelUnavailable(message string, err error) error {
	return &Error{Kind: KindModelUnavailable, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var kindErr *Error
	if errors.As(err, &kindErr) {
		return kindErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrDatabaseLocked) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
