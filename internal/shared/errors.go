package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrInvariantViolation indicates the operation would break a data-model invariant.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrInvalidTransition indicates a status change not permitted from the current state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// NotFound wraps ErrNotFound with the entity kind and id.
func NotFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}

// Invariant wraps ErrInvariantViolation with a formatted reason.
func Invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}

// Transition wraps ErrInvalidTransition for the named entity.
func Transition(entity string, from, to any) error {
	return fmt.Errorf("%w: %s cannot move from %v to %v", ErrInvalidTransition, entity, from, to)
}

// Validation wraps ErrValidation with a formatted reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// UserSafeMessage returns a message suitable for API clients. Unknown errors
// are masked.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvariantViolation),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrIdempotencyConflict):
		return err.Error()
	default:
		return "internal error"
	}
}
