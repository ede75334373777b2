// Package csv provides an incremental, streaming CSV parsing and writing
// engine.
//
// A Parser consumes byte chunks of arbitrary size and emits one callback per
// completed field and one per completed row, synchronously, within the Parse
// call that completes them. Parsing state survives across calls, so input
// may be split at any byte boundary: mid-quote, mid-escape or mid-terminator.
// Finish drains the trailing field and row and resets the Parser for the
// next document.
//
// # Thread Safety
//
// A Parser owns one mutable state machine and one growable buffer
// exclusively. It is not safe for concurrent use without external
// synchronization. Distinct Parser instances are independent.
//
// # Example usage
//
//	p := csv.NewParser()
//	var record []string
//	onField := func(field []byte) { record = append(record, string(field)) }
//	onRow := func(term int) {
//		fmt.Println(record)
//		record = record[:0]
//	}
//	for _, chunk := range chunks {
//		if _, err := p.Parse(chunk, onField, onRow); err != nil {
//			// handle error
//		}
//	}
//	if err := p.Finish(onField, onRow); err != nil {
//		// handle error
//	}
package csv

import (
	"github.com/shapestone/stream-csv/internal/engine"
)

// FieldFunc receives one completed field, in document order. The slice
// aliases the Parser's internal buffer and is only valid for the duration of
// the call; copy it to retain it. Under EmptyIsNull, absent fields arrive as
// a nil slice.
type FieldFunc func(field []byte)

// RowFunc receives the terminator byte value that ended a row, or -1 when
// the row was ended by Finish at end of stream with no explicit terminator.
type RowFunc func(term int)

// Parser is a configurable, resumable CSV parser.
type Parser struct {
	m   *engine.Machine
	err error
}

// NewParser returns a Parser with the default configuration: comma
// delimiter, double-quote quote character, no flags.
func NewParser() *Parser {
	return &Parser{m: engine.New()}
}

// NewParserWithOptions returns a Parser configured by opts. Invalid options
// are reported here and never deferred to parsing.
func NewParserWithOptions(opts Options) (*Parser, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m := engine.New()
	if opts.Delimiter != 0 {
		m.SetDelim(opts.Delimiter)
	}
	if opts.Quote != 0 {
		m.SetQuote(opts.Quote)
	}
	m.SetFlags(engineFlags(opts.Flags))
	if opts.BlockSize > 0 {
		if err := m.SetBlockSize(opts.BlockSize); err != nil {
			return nil, &OptionsError{Field: "BlockSize", Message: "must be positive"}
		}
	}
	m.SetSpaceFunc(opts.IsSpace)
	m.SetTermFunc(opts.IsTerm)
	m.SetReallocFunc(opts.Realloc)
	return &Parser{m: m}, nil
}

// Delimiter returns the field delimiter byte.
func (p *Parser) Delimiter() byte { return p.m.Delim() }

// SetDelimiter sets the field delimiter byte. A delimiter equal to the
// quote byte is rejected.
func (p *Parser) SetDelimiter(c byte) error {
	if c == p.m.Quote() {
		return &OptionsError{Field: "Delimiter", Message: "delimiter equals quote"}
	}
	p.m.SetDelim(c)
	return nil
}

// Quote returns the quote byte.
func (p *Parser) Quote() byte { return p.m.Quote() }

// SetQuote sets the quote byte. A quote equal to the delimiter byte is
// rejected.
func (p *Parser) SetQuote(c byte) error {
	if c == p.m.Delim() {
		return &OptionsError{Field: "Quote", Message: "quote equals delimiter"}
	}
	p.m.SetQuote(c)
	return nil
}

// Flags returns the active option flags.
func (p *Parser) Flags() Flag { return parserFlags(p.m.Flags()) }

// SetFlags replaces the active option flags. The previous set is discarded,
// not merged.
func (p *Parser) SetFlags(f Flag) { p.m.SetFlags(engineFlags(f)) }

// BlockSize returns the growth granularity of the internal field buffer.
func (p *Parser) BlockSize() int { return p.m.BlockSize() }

// SetBlockSize sets the growth granularity. Non-positive sizes are rejected
// immediately.
func (p *Parser) SetBlockSize(n int) error {
	if err := p.m.SetBlockSize(n); err != nil {
		return &OptionsError{Field: "BlockSize", Message: "must be positive"}
	}
	return nil
}

// BufferSize returns the current capacity of the internal field buffer. It
// starts at zero and grows, never shrinking within a document.
func (p *Parser) BufferSize() int { return p.m.BufferSize() }

// SetSpaceFunc installs f as the whitespace classifier. A nil f restores
// the default (space and tab).
func (p *Parser) SetSpaceFunc(f ClassifierFunc) { p.m.SetSpaceFunc(f) }

// SetTermFunc installs f as the row terminator classifier. A nil f restores
// the default (CR and LF).
func (p *Parser) SetTermFunc(f ClassifierFunc) { p.m.SetTermFunc(f) }

// SetReallocFunc installs f as the buffer growth strategy. A nil f restores
// the default allocator.
func (p *Parser) SetReallocFunc(f ReallocFunc) { p.m.SetReallocFunc(f) }

// Parse consumes data, invoking onField and onRow synchronously, in
// document order, for every field and row boundary recognized within this
// call. Either callback may be nil when only the consumption count or error
// detection is wanted.
//
// The returned count is the number of bytes consumed: len(data) on success,
// or the number of bytes consumed before the fault when the returned error
// is a *ParseError. Once an error is latched it is sticky: further Parse
// calls consume nothing and return it until Finish or Reset.
func (p *Parser) Parse(data []byte, onField FieldFunc, onRow RowFunc) (int, error) {
	n, err := p.m.Parse(data, engine.FieldFunc(onField), engine.RowFunc(onRow))
	if err != nil {
		p.err = wrapEngineErr(err, n)
		return n, p.err
	}
	return n, nil
}

// Finish terminates the document: it emits any pending field and a final
// row event with terminator -1, then resets the Parser for reuse. A
// document with no pending input produces no events.
//
// Under StrictFinish, a quoted field still open fails with an error
// wrapping ErrUnterminatedQuote. An error latched by an earlier Parse call
// is returned instead; state is reset either way.
func (p *Parser) Finish(onField FieldFunc, onRow RowFunc) error {
	err := p.m.Finish(engine.FieldFunc(onField), engine.RowFunc(onRow))
	if err != nil {
		// An error latched by Parse was already wrapped with its
		// consumed count; keep that one.
		latched := p.err
		if latched == nil {
			latched = wrapEngineErr(err, 0)
		}
		p.err = nil
		return latched
	}
	p.err = nil
	return nil
}

// Err returns the sticky error latched by a previous Parse call, or nil.
func (p *Parser) Err() error { return p.err }

// InputOffset returns the number of bytes successfully parsed in the
// current document. Finish and Reset restart the count.
func (p *Parser) InputOffset() int64 { return p.m.InputOffset() }

// Reset returns the Parser to a fresh-document state, clearing any sticky
// error and pending field. The grown internal buffer is retained.
func (p *Parser) Reset() {
	p.m.Reset()
	p.err = nil
}

func engineFlags(f Flag) engine.Flags {
	var ef engine.Flags
	if f&Strict != 0 {
		ef |= engine.FlagStrict
	}
	if f&ReportAllNewlines != 0 {
		ef |= engine.FlagRepAllNewlines
	}
	if f&StrictFinish != 0 {
		ef |= engine.FlagStrictFinish
	}
	if f&AppendNull != 0 {
		ef |= engine.FlagAppendNull
	}
	if f&EmptyIsNull != 0 {
		ef |= engine.FlagEmptyIsNull
	}
	return ef
}

func parserFlags(ef engine.Flags) Flag {
	var f Flag
	if ef&engine.FlagStrict != 0 {
		f |= Strict
	}
	if ef&engine.FlagRepAllNewlines != 0 {
		f |= ReportAllNewlines
	}
	if ef&engine.FlagStrictFinish != 0 {
		f |= StrictFinish
	}
	if ef&engine.FlagAppendNull != 0 {
		f |= AppendNull
	}
	if ef&engine.FlagEmptyIsNull != 0 {
		f |= EmptyIsNull
	}
	return f
}

// wrapEngineErr translates an engine error into the public taxonomy.
func wrapEngineErr(err error, consumed int) error {
	var kind ErrorKind
	var sentinel error
	switch err {
	case engine.ErrParse:
		kind, sentinel = KindMalformed, ErrMalformed
	case engine.ErrUnterminated:
		kind, sentinel = KindUnterminatedQuote, ErrUnterminatedQuote
	case engine.ErrAlloc:
		kind, sentinel = KindAllocFailed, ErrAllocFailed
	case engine.ErrFieldTooBig:
		kind, sentinel = KindFieldTooLarge, ErrFieldTooLarge
	default:
		kind, sentinel = KindInvalidConfig, ErrInvalidConfig
	}
	return &ParseError{Kind: kind, Consumed: consumed, Err: sentinel}
}
