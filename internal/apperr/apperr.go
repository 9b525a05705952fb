// Package apperr defines the error taxonomy shared by the engine packages.
//
// Packages wrap these sentinels into their own (for example limit.ErrNotFound),
// so callers can match either the specific or the generic error with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrIntegrity = errors.New("ledger integrity violation")
)

// ValidationError reports bad caller input. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Conflict wraps err as a ConflictError.
func Conflict(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}

	return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
}

// Integrity reports an inconsistent ledger read.
func Integrity(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool  { return errors.Is(err, ErrConflict) }
func IsIntegrity(err error) bool { return errors.Is(err, ErrIntegrity) }
