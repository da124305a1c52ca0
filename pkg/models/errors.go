package models

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the user declines a confirmation prompt
var ErrCancelled = errors.New("Cancelled")

// ManifestError reports a structurally invalid or missing manifest
type ManifestError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ManifestError) Error() string {
	msg := "invalid manifest"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// InvariantViolation reports a request that would break a safety rule,
// e.g. copying from the destination back to the source
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return e.Reason
}

// IOError reports a filesystem or transport failure on a specific path
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ExitCode maps an error returned by an operation to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return StatusSuccess.ExitCode()
	}
	var iv *InvariantViolation
	switch {
	case errors.Is(err, ErrCancelled):
		return StatusCancelled.ExitCode()
	case errors.As(err, &iv):
		return StatusRejected.ExitCode()
	default:
		return StatusFailed.ExitCode()
	}
}
