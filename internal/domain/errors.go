// Package domain defines core types, interfaces, and errors for the sync service.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict, e.g. an account that already has an
// active sync job.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// InvalidStateError indicates an operation that is not valid for the current
// job status, e.g. cancelling a job that already reached a terminal state.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return e.Message }

// UpstreamTransientError indicates a retryable upstream API failure
// (timeout, rate limit, 5xx). The executor absorbs these in its retry loop.
type UpstreamTransientError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamTransientError) Error() string {
	return fmt.Sprintf("%s: transient upstream error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// UpstreamFatalError indicates a non-retryable upstream API failure. It
// surfaces immediately as a failed job.
type UpstreamFatalError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamFatalError) Error() string {
	return fmt.Sprintf("%s: fatal upstream error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrInvalidState creates an InvalidStateError with a formatted message.
func ErrInvalidState(format string, args ...interface{}) *InvalidStateError {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}
