package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the reservation queue core. Callers classify with
// errors.Is after the usual fmt.Errorf("%w") wrapping.
var (
	// ErrValidation marks malformed input caught before any queue mutation.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedApplicationType marks an application whose regime the
	// queue engine does not know how to position.
	ErrUnsupportedApplicationType = errors.New("unsupported application type")

	// ErrInvalidStateTransition marks a reservation state change that the
	// allow-list forbids from the current state.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrProjectHasNoApplications marks a lottery run over a project with
	// zero eligible applications.
	ErrProjectHasNoApplications = errors.New("project has no applications")

	// ErrApplicationPeriodNotClosed marks a lottery run attempted before
	// the project's application deadline.
	ErrApplicationPeriodNotClosed = errors.New("application period not closed")

	// ErrConcurrencyConflict marks lock contention on a unit's queue. It is
	// the only error in this taxonomy that is safe to retry automatically.
	ErrConcurrencyConflict = errors.New("concurrent queue modification")

	// ErrNotFound marks a missing unit, reservation, link or project.
	ErrNotFound = errors.New("not found")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// Retriable reports whether the caller should retry the whole operation.
func Retriable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
