// Package domainerrors provides coded errors that cross layer boundaries.
//
// Stores report infrastructure facts through pkg/platform/sentinel; services
// translate those facts, plus their own rules, into coded errors that the
// transport layer can map onto wire responses without inspecting error text.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure. Values double as the machine-readable
// error codes exposed on the wire.
type Code string

const (
	// CodeInvalidFormat marks a malformed subject identifier. Caller error,
	// rejected before any record is created.
	CodeInvalidFormat Code = "INVALID_FORMAT"

	// CodeInvalidInput marks a malformed request (bad JSON, missing fields).
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeNotFound marks an unknown subject or unknown process id.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInvalidTransition marks an illegal status transition request. This
	// is a programming-contract violation, never a validation outcome.
	CodeInvalidTransition Code = "INVALID_TRANSITION"

	// CodeUnavailable marks a transient infrastructure failure. The
	// execution engine retries these with backoff.
	CodeUnavailable Code = "STORE_UNAVAILABLE"

	// CodeValidationFailed marks a definitive negative outcome from the
	// validation logic. Never retried.
	CodeValidationFailed Code = "VALIDATION_FAILED"

	// CodeTimeout marks an execution that exceeded its bound.
	CodeTimeout Code = "TIMEOUT"

	// CodeInternal marks an unexpected failure with no better class.
	CodeInternal Code = "INTERNAL"
)

// Error is a coded error. It wraps an optional cause so errors.Is/As keep
// working through the chain.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal if the
// error carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
