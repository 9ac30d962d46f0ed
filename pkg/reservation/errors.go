package reservation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation        = errors.New("invalid request")
	ErrNotFound          = errors.New("reservation not found")
	ErrForbidden         = errors.New("actor is not allowed to perform this action")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrWindowClosed      = errors.New("modification window closed")
	ErrQuotaExceeded     = errors.New("monthly cancellation limit reached")
	ErrDuplicateRequest  = errors.New("service already approved or pending")
	ErrAlreadyResolved   = errors.New("service request already resolved")
	ErrAlreadyLate       = errors.New("late arrival already reported")
	ErrAlreadyCompleted  = errors.New("reservation already completed")
	ErrConflict          = errors.New("reservation was modified concurrently, reload and retry")
)

// ValidationError describes a malformed intent. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, reason := range e.Fields {
		parts = append(parts, field+": "+reason)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// WindowError is returned when a reschedule or cancel arrives after the
// cutoff. SameDay is set when the service date is the current calendar day.
type WindowError struct {
	Cutoff  time.Time
	SameDay bool
}

func (e *WindowError) Error() string {
	if e.SameDay {
		return fmt.Sprintf("%s: same-day booking, cutoff was %s", ErrWindowClosed.Error(), e.Cutoff.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s: cutoff was %s", ErrWindowClosed.Error(), e.Cutoff.Format(time.RFC3339))
}

func (e *WindowError) Unwrap() error {
	return ErrWindowClosed
}

// TransitionError carries the rejected edge. It matches ErrInvalidTransition.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition.Error(), e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
