/*
errors.go - Centralized error types for the allowance engine

PURPOSE:
  All error types in one place. Callers classify with errors.Is/errors.As;
  the API layer maps each class to an HTTP status.

ERROR CATEGORIES:
  1. Validation errors - bad user input, state left unmodified
  2. Duplicate-date errors - the one-entry-per-day invariant was violated
  3. Not-found errors - referenced entity or user state is missing
  4. Persistence errors - the gateway failed; in-memory state remains
     authoritative and the caller reports "applied locally, not durable"

USAGE:
  if errors.Is(err, allowance.ErrValidation) { ... 400 ... }
  var dup *allowance.DuplicateDateError
  if errors.As(err, &dup) { ... 409, dup.Date ... }
*/
package allowance

import (
	"errors"
	"fmt"

	"github.com/warp/allowance-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the class of all bad-input failures.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateLogDate is returned when a log mutation targets a date
	// that a different entry already occupies.
	ErrDuplicateLogDate = errors.New("log entry already exists for date")

	// ErrEntryNotFound is returned when an ID resolves to nothing.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrCategoryNotFound is returned for unknown wishlist categories.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrProtectedCategory is returned when deleting the Unassigned
	// sentinel category.
	ErrProtectedCategory = errors.New("category cannot be deleted")

	// ErrUserNotFound is returned by Gateway.Load when no state exists
	// for the user. Not a failure: callers initialize defaults.
	ErrUserNotFound = errors.New("no saved state for user")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which input failed and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DuplicateDateError identifies the log entry blocking a mutation.
type DuplicateDateError struct {
	Date       calendar.Date
	ExistingID int64
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("log entry already exists for %s (id %d)", e.Date, e.ExistingID)
}

func (e *DuplicateDateError) Unwrap() error { return ErrDuplicateLogDate }

// PersistenceError wraps a gateway failure. The mutation it wraps has
// been applied in memory; only durability failed.
type PersistenceError struct {
	Op  string // "load" or "save"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateLogDate)
}

// IsNotFound reports whether the error names a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
