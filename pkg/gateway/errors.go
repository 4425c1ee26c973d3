package gateway

import (
	"errors"
	"fmt"
)

// ValidationError reports bad input caught before any exchange call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NumericParseError reports a malformed numeric string in a request field.
// The offending value is deliberately not echoed back.
type NumericParseError struct {
	Field string
	cause error
}

func (e *NumericParseError) Error() string {
	return fmt.Sprintf("invalid numeric value for %s", e.Field)
}

func (e *NumericParseError) Unwrap() error {
	return e.cause
}

// DispatchError wraps a transport or exchange-API-level failure. The original
// request payload is never attached.
type DispatchError struct {
	Op    string
	cause error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s dispatch failed: %v", e.Op, e.cause)
}

func (e *DispatchError) Unwrap() error {
	return e.cause
}

func dispatchError(op string, err error) error {
	return &DispatchError{Op: op, cause: err}
}

// Sanitize renders an error as a caller-facing string carrying the error kind
// and message only. Request arguments (which may include key material or
// signed payloads) never appear in the output.
func Sanitize(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "ValidationError: " + ve.Error()
	}
	var ne *NumericParseError
	if errors.As(err, &ne) {
		return "NumericParseError: " + ne.Error()
	}
	var de *DispatchError
	if errors.As(err, &de) {
		return "DispatchError: " + de.Error()
	}
	return "Error: " + err.Error()
}
