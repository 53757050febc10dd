package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEntityNotFound is returned by the document capability when an
	// entity ID does not resolve.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrKeyNotFound is returned by durable stores for absent keys.
	ErrKeyNotFound = errors.New("key not found")

	// ErrStoreUnavailable signals that the durable store backend is
	// missing or unreachable. Persistence degrades to no-op; the
	// in-memory history stays fully functional.
	ErrStoreUnavailable = errors.New("durable store unavailable")

	// ErrQuotaExceeded signals a capacity refusal from the store. Not
	// retried: an over-quota write cannot succeed without intervention.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// ValidationError reports a refused command precondition. The document is
// untouched when a ValidationError is returned from Execute.
type ValidationError struct {
	Command string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Command, e.Reason)
}

// NewValidationError builds a ValidationError for a command kind.
func NewValidationError(command, reason string) *ValidationError {
	return &ValidationError{Command: command, Reason: reason}
}

// MigrationGapError means no migration step is registered to lift persisted
// data from one schema version to the next. The affected load falls back to
// factory defaults.
type MigrationGapError struct {
	From, To int
}

func (e *MigrationGapError) Error() string {
	return fmt.Sprintf("no migration registered for schema v%d -> v%d", e.From, e.To)
}
