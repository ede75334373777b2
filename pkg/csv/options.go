// Package csv provides configurable options for CSV parsing and writing.
package csv

import (
	"github.com/shapestone/stream-csv/internal/engine"
)

// Flag alters parsing behavior. Flags combine with bitwise OR and are
// replaced wholesale by SetFlags, never merged.
type Flag uint8

const (
	// Strict rejects CSV that violates strict quoting rules: a quote
	// character inside an unquoted field, or non-whitespace data after a
	// closing quote before the next delimiter or terminator.
	Strict Flag = 1 << iota

	// ReportAllNewlines emits a row event for every terminator byte seen
	// between rows, instead of swallowing blank lines and collapsing CRLF
	// into one logical row end.
	ReportAllNewlines

	// StrictFinish makes Finish fail when a quoted field was never
	// closed at end of stream.
	StrictFinish

	// AppendNull guarantees a zero byte in the backing array immediately
	// after each emitted field's data.
	AppendNull

	// EmptyIsNull delivers nil for unquoted zero-length fields,
	// distinguishing them from quoted empty fields, which arrive as a
	// non-nil zero-length slice.
	EmptyIsNull
)

// DefaultBlockSize is the default growth granularity of the internal field
// buffer, in bytes.
const DefaultBlockSize = engine.DefaultBlockSize

// ClassifierFunc reports whether a byte belongs to a character class
// (whitespace or row terminator).
type ClassifierFunc = engine.ClassifierFunc

// ReallocFunc is a pluggable growth strategy for the internal field buffer.
// It must return a buffer of exactly size bytes holding the contents of
// buf, or nil to report allocation failure.
type ReallocFunc = engine.ReallocFunc

// Options configures a Parser.
//
// The zero value of a field means "use the default" where a default exists:
// Delimiter ',', Quote '"', BlockSize DefaultBlockSize, space classifier
// space-and-tab, terminator classifier CR-and-LF.
type Options struct {
	// Delimiter is the field delimiter byte. Default: ','
	Delimiter byte

	// Quote is the quote byte. Default: '"'
	// Delimiter and Quote must differ; Validate rejects equal values.
	Quote byte

	// Flags is the active option set.
	Flags Flag

	// BlockSize is the growth granularity of the internal field buffer in
	// bytes. Zero selects DefaultBlockSize; negative values are invalid.
	BlockSize int

	// IsSpace, if not nil, replaces the whitespace classifier.
	IsSpace ClassifierFunc

	// IsTerm, if not nil, replaces the row terminator classifier.
	IsTerm ClassifierFunc

	// Realloc, if not nil, replaces the buffer growth strategy.
	Realloc ReallocFunc
}

// DefaultOptions returns the default parser configuration.
func DefaultOptions() Options {
	return Options{
		Delimiter: ',',
		Quote:     '"',
		BlockSize: DefaultBlockSize,
	}
}

// Validate checks the options. Configuration errors are reported here,
// immediately, never deferred to a later Parse call.
func (o Options) Validate() error {
	delim, quote := o.Delimiter, o.Quote
	if delim == 0 {
		delim = ','
	}
	if quote == 0 {
		quote = '"'
	}
	// Equal delimiter and quote would make every transition ambiguous, so
	// the combination is rejected up front rather than left undefined.
	if delim == quote {
		return &OptionsError{Field: "Quote", Message: "quote equals delimiter"}
	}
	if o.BlockSize < 0 {
		return &OptionsError{Field: "BlockSize", Message: "must be positive"}
	}
	return nil
}
