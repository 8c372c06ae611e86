/*
errors.go - Centralized error types for the approval engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers branch on these with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Configuration errors - malformed PTO-type or missing relationships.
     Hard failures, never retried.
  2. Precondition results - expected caller-reachable states (e.g. deciding
     an override that was never requested). These are returned as structured
     results, not errors; see override.go.
  3. Store errors - persistence failures, wrapped with context and
     re-raised. Retries belong to the caller.

USAGE:
    if errors.Is(err, engine.ErrConfiguration) {
        // reject the submission outright
    }

SEE ALSO:
  - store.go: interfaces whose implementations produce store errors
  - override.go: structured OverrideDecision results
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration is returned when a request is missing its PTO type
	// or requesting user, or when no fallback approver is configured and
	// the chain would otherwise be empty.
	ErrConfiguration = errors.New("configuration error")

	// ErrRequestNotFound is returned when a referenced request doesn't exist.
	ErrRequestNotFound = errors.New("request not found")

	// ErrUserNotFound is returned when the directory has no such user.
	ErrUserNotFound = errors.New("user not found")

	// ErrTypeNotFound is returned when a referenced PTO type doesn't exist.
	ErrTypeNotFound = errors.New("pto type not found")

	// ErrInvalidDateRange is returned when a range ends before it starts.
	ErrInvalidDateRange = errors.New("invalid date range: end before start")

	// ErrRequestNotPending is returned when a decision targets a request
	// that has already been resolved.
	ErrRequestNotPending = errors.New("request is not pending")

	// ErrApprovalNotPending is returned when an approver acts on a row that
	// was already decided or reassigned away.
	ErrApprovalNotPending = errors.New("approval is not pending")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError names what exactly was malformed.
type ConfigurationError struct {
	RequestID RequestID
	Field     string
	Detail    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error on request %s: %s (%s)", e.RequestID, e.Field, e.Detail)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// StoreError wraps a persistence failure with the identifiers needed to
// diagnose it from logs alone.
type StoreError struct {
	Op        string
	RequestID RequestID
	UserID    UserID
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed (request=%s user=%s): %v", e.Op, e.RequestID, e.UserID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrRequestNotPending) ||
		errors.Is(err, ErrApprovalNotPending)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTypeNotFound)
}
