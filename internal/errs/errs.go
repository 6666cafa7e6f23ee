// Package errs defines the tagged error family shared across the
// ingestion and retrieval pipeline so callers can branch on failure kind
// without string matching.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for programmatic handling.
type Kind string

const (
	ConfigError        Kind = "config_error"
	IoError            Kind = "io_error"
	ParseError         Kind = "parse_error"
	StoreError         Kind = "store_error"
	EngineError        Kind = "engine_error"
	DimensionMismatch  Kind = "dimension_mismatch"
	NotFound           Kind = "not_found"
	InvariantViolation Kind = "invariant_violation"
)

// Error is the concrete error type returned by every component in this
// module. It carries a Kind for callers that need to branch, and wraps an
// underlying cause when one exists.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that wraps cause. If cause is nil, Wrap returns nil,
// so it is safe to use as `if err := Wrap(...); err != nil`.
func Wrap(kind Kind, message string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
