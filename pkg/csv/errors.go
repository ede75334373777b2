// Package csv provides error types for CSV parsing and configuration.
package csv

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a parsing or configuration failure.
type ErrorKind int

const (
	// KindMalformed is a strict-mode quoting violation in the input.
	KindMalformed ErrorKind = iota
	// KindUnterminatedQuote is a quoted field still open at Finish when
	// StrictFinish is set.
	KindUnterminatedQuote
	// KindAllocFailed is a field buffer growth failure.
	KindAllocFailed
	// KindFieldTooLarge is a field exceeding the buffer size ceiling.
	KindFieldTooLarge
	// KindInvalidConfig is a rejected configuration value.
	KindInvalidConfig
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed input"
	case KindUnterminatedQuote:
		return "unterminated quote"
	case KindAllocFailed:
		return "allocation failed"
	case KindFieldTooLarge:
		return "field too large"
	case KindInvalidConfig:
		return "invalid configuration"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinel errors. Errors returned by Parser operations wrap one of these,
// so callers can match with errors.Is.
var (
	// ErrMalformed indicates input that violates strict quoting rules.
	ErrMalformed = errors.New("csv: malformed input")

	// ErrUnterminatedQuote indicates a quoted field left open at the end
	// of the document under StrictFinish.
	ErrUnterminatedQuote = errors.New("csv: unterminated quoted field")

	// ErrAllocFailed indicates the field buffer could not be grown.
	ErrAllocFailed = errors.New("csv: field buffer allocation failed")

	// ErrFieldTooLarge indicates a single field exceeded the maximum
	// buffer size.
	ErrFieldTooLarge = errors.New("csv: field exceeds maximum size")

	// ErrInvalidConfig indicates an invalid configuration value, reported
	// at the configuration call itself, never deferred to parsing.
	ErrInvalidConfig = errors.New("csv: invalid configuration")

	// ErrShortBuffer indicates a destination buffer too small for the
	// escaped output. It is distinct from a successful zero-length result
	// and from the size-query mode of Write.
	ErrShortBuffer = errors.New("csv: destination buffer too small")
)

// ParseError reports a failure detected while feeding bytes to a Parser.
//
// Consumed is the number of bytes consumed by the failing call before the
// fault; summing the consumed counts of all prior calls gives the absolute
// byte offset of the fault within the document.
type ParseError struct {
	Kind     ErrorKind
	Consumed int
	Err      error
}

// Error returns a message naming the kind and the in-call fault offset.
func (e *ParseError) Error() string {
	return fmt.Sprintf("csv: %s after %d bytes", e.Kind, e.Consumed)
}

// Unwrap returns the sentinel matching the error kind.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// OptionsError reports an invalid option value at configuration time.
type OptionsError struct {
	Field   string
	Message string
}

func (e *OptionsError) Error() string {
	return "csv: invalid " + e.Field + ": " + e.Message
}

// Unwrap lets errors.Is match OptionsError against ErrInvalidConfig.
func (e *OptionsError) Unwrap() error {
	return ErrInvalidConfig
}
