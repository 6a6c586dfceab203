// Package apperr defines the error kinds shared by the ledger, reporting and
// HTTP layers. Callers match kinds with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidPeriod     = errors.New("invalid report period")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPersistence       = errors.New("persistence failure")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrDuplicate         = errors.New("duplicate record")
	ErrLookup            = errors.New("account lookup failed")
)

// ValidationError reports the specific input field that failed validation.
type ValidationError struct {
	Field   string
	Message string
	// Kind is an additional kind the error matches, e.g. ErrInvalidAmount.
	Kind error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	return e.Kind != nil && target == e.Kind
}

// Invalid builds a ValidationError for field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PersistenceError wraps a failed write or read against an external store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Persistence wraps err as a PersistenceError unless it already carries a
// domain kind the caller needs to see (not found, duplicate, transition).
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// NotFound returns an error of kind ErrNotFound naming the missing entity.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %q %w", entity, id, ErrNotFound)
}

// Transition returns an error of kind ErrInvalidTransition.
func Transition(field, from, to string) error {
	return fmt.Errorf("%s cannot move from %s to %s: %w", field, from, to, ErrInvalidTransition)
}
