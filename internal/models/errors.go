package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType identifies the category of failure recorded on a result.
type ErrorType string

const (
	// Controller invocation failures
	ErrTypeTransient      ErrorType = "transient"
	ErrTypePermanent      ErrorType = "permanent"
	ErrTypeRetryExhausted ErrorType = "retry_exhausted"

	// Pre-execution failures
	ErrTypeUnresolved ErrorType = "controller_unresolved"

	// Run-level interruption
	ErrTypeCancelled ErrorType = "cancelled"

	// Catch-all
	ErrTypeInternal ErrorType = "internal_error"
)

// ErrNoControllers is returned by the orchestrator when a run resolves to
// zero controllers. It is the only structural error a run can surface.
var ErrNoControllers = errors.New("no controllers resolved for run")

// TransientError marks a failure worth retrying (timeouts, rate limits,
// transient network faults).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. Returns nil if err is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Transientf formats a new retryable error.
func Transientf(format string, args ...any) error {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// PermanentError marks a failure that retrying cannot fix (invalid
// configuration, malformed workload, rejected request).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as non-retryable. Returns nil if err is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Permanentf formats a new non-retryable error.
func Permanentf(format string, args ...any) error {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err is classified as retryable. Anything not
// explicitly marked transient is treated as permanent, per the controller
// contract: unknown error kinds must not burn retry attempts.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is explicitly marked non-retryable.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ResolutionError records a registry lookup failure for an unknown
// controller type. Fatal to that controller's participation in a run,
// non-fatal to the run itself.
type ResolutionError struct {
	ControllerType string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unknown controller type: %s", e.ControllerType)
}

// RetryExhaustedError records that a retry budget ran out. It carries the
// error from the final attempt so callers can distinguish "failed after
// retries" from "genuinely empty output".
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %s", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// ClassifyError maps an error to the ErrorType recorded on a result.
func ClassifyError(err error) ErrorType {
	var ee *RetryExhaustedError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return ErrTypeCancelled
	case errors.As(err, &ee):
		return ErrTypeRetryExhausted
	case IsTransient(err):
		return ErrTypeTransient
	case IsPermanent(err):
		return ErrTypePermanent
	default:
		var re *ResolutionError
		if errors.As(err, &re) {
			return ErrTypeUnresolved
		}
		return ErrTypeInternal
	}
}

// ResultError is the serializable failure detail carried by a
// ControllerResult.
type ResultError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

// NewResultError builds a ResultError from err, classifying it. Returns nil
// for a nil error.
func NewResultError(err error) *ResultError {
	if err == nil {
		return nil
	}
	return &ResultError{
		Type:    ClassifyError(err),
		Message: err.Error(),
	}
}
