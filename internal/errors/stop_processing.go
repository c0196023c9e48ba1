package errors

import (
	"errors"
	"fmt"
)

// StopProcessingError means work was stopped on purpose: the curator left
// the picker, or the run's context was canceled. Callers treat it as a clean
// stop rather than a failure.
type StopProcessingError struct {
	Reason string
	Cause  error
}

func (e *StopProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Cause)
	}
	return e.Reason
}

func (e *StopProcessingError) Unwrap() error {
	return e.Cause
}

// NewStopProcessingError creates a StopProcessingError with the provided reason.
func NewStopProcessingError(reason string) *StopProcessingError {
	return &StopProcessingError{Reason: reason}
}

// StoppedBy wraps a context error as a StopProcessingError.
func StoppedBy(reason string, cause error) *StopProcessingError {
	return &StopProcessingError{Reason: reason, Cause: cause}
}

// IsStopProcessingError reports whether err is a StopProcessingError (even when wrapped).
func IsStopProcessingError(err error) bool {
	var stopErr *StopProcessingError
	return errors.As(err, &stopErr)
}
