package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that an update or remove target does not exist.
	// Absence is an expected outcome, so callers match it with errors.Is
	// rather than treating it as a failure.
	ErrNotFound = errors.New("transaction not found")

	// ErrImportFormat signals that an import payload is not a JSON array.
	ErrImportFormat = errors.New("import payload is not a JSON array")
)

// ValidationError wraps a domain validation failure on add or update.
type ValidationError struct {
	err error
}

func newValidationError(err error) *ValidationError {
	return &ValidationError{err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %v", e.err)
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// PersistenceError wraps a failure of the underlying key-value store. The
// in-memory list has already been rolled back to the last persisted state
// when one of these is returned.
type PersistenceError struct {
	Op  string
	err error
}

func newPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.err)
}

func (e *PersistenceError) Unwrap() error {
	return e.err
}
