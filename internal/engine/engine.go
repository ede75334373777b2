// Package engine implements the incremental CSV parsing state machine.
//
// The machine consumes raw byte chunks of arbitrary size and emits one
// callback per completed field and one per completed row, synchronously,
// within the call that completes them. All lexical state (current field
// buffer, quoting mode, pending whitespace) survives across calls, so input
// may be split at any byte boundary, including mid-quote or mid-terminator.
//
// This package is the mechanism layer: it accepts any delimiter/quote
// combination and performs no configuration policy checks beyond the block
// size. Policy (option validation, error taxonomy) lives in pkg/csv.
package engine

import "errors"

// Flags alter parsing behavior. They combine with bitwise OR.
type Flags uint8

const (
	// FlagStrict rejects quoting-rule violations instead of treating the
	// offending bytes as literal field data.
	FlagStrict Flags = 1 << iota

	// FlagRepAllNewlines reports a row event for every terminator byte seen
	// while no row is in progress, instead of swallowing blank lines.
	FlagRepAllNewlines

	// FlagStrictFinish makes Finish fail when a quoted field was never
	// closed.
	FlagStrictFinish

	// FlagAppendNull guarantees a zero byte in the backing array
	// immediately after each emitted field's data.
	FlagAppendNull

	// FlagEmptyIsNull delivers a nil slice for fields that are empty and
	// were not quoted, distinguishing absent values from present-but-empty
	// quoted ones.
	FlagEmptyIsNull
)

// DefaultBlockSize is the granularity, in bytes, by which the field buffer
// grows when no explicit block size is configured.
const DefaultBlockSize = 128

// maxBufferSize caps field buffer growth. A single field larger than this is
// reported as ErrFieldTooBig rather than grown further.
const maxBufferSize = 1 << 30

// Parsing errors latched by the machine.
var (
	// ErrParse reports a strict-mode quoting violation.
	ErrParse = errors.New("malformed field")

	// ErrUnterminated reports a quoted field still open at Finish when
	// FlagStrictFinish is set.
	ErrUnterminated = errors.New("unterminated quoted field")

	// ErrAlloc reports a failed buffer growth, either from the default
	// allocator or a caller-supplied ReallocFunc returning nil.
	ErrAlloc = errors.New("field buffer growth failed")

	// ErrFieldTooBig reports a field exceeding the buffer size ceiling.
	ErrFieldTooBig = errors.New("field exceeds maximum buffer size")

	// ErrBlockSize reports a non-positive block size.
	ErrBlockSize = errors.New("block size must be positive")
)

// FieldFunc receives one completed field. The slice aliases the machine's
// internal buffer and is only valid for the duration of the call; it is nil
// when FlagEmptyIsNull marks the field absent.
type FieldFunc func(field []byte)

// RowFunc receives the terminator byte value that ended a row, or -1 when
// the row was ended by Finish with no explicit terminator.
type RowFunc func(term int)

// ClassifierFunc reports whether a byte belongs to a character class. It
// replaces the default whitespace or terminator classification.
type ClassifierFunc func(c byte) bool

// ReallocFunc grows a field buffer to exactly size bytes, preserving its
// contents. Returning nil reports allocation failure, which surfaces from
// Parse as ErrAlloc.
type ReallocFunc func(buf []byte, size int) []byte

func defaultRealloc(buf []byte, size int) []byte {
	next := make([]byte, size)
	copy(next, buf)
	return next
}

// state is the lexical mode of the machine between two bytes.
type state uint8

const (
	// rowNotBegun: start of the document or just after a row event.
	// Terminator bytes seen here belong to no row and are swallowed
	// unless FlagRepAllNewlines asks for them.
	rowNotBegun state = iota

	// fieldNotBegun: inside a row, just after a delimiter. A terminator
	// here still closes the pending empty field.
	fieldNotBegun

	// fieldBegun: accumulating field bytes. The quoted flag distinguishes
	// a quoted field from an unquoted one.
	fieldBegun

	// fieldMightHaveEnded: a quote byte was seen inside a quoted field
	// and buffered tentatively. The next byte decides whether it was an
	// escape (another quote), the closing quote (delimiter, terminator or
	// trailing whitespace), or stray data.
	fieldMightHaveEnded
)

// emptyField is emitted for zero-length fields so that callbacks can
// distinguish them from the nil slice used by FlagEmptyIsNull even before
// the field buffer has ever been allocated.
var emptyField = make([]byte, 0)

// Machine is a resumable CSV parser. It owns one mutable growable buffer
// and must not be used concurrently without external synchronization.
//
// The zero value is not ready for use; construct with New.
type Machine struct {
	delim   byte
	quote   byte
	flags   Flags
	blkSize int
	isSpace ClassifierFunc
	isTerm  ClassifierFunc
	realloc ReallocFunc

	pstate   state
	quoted   bool
	spaces   int // trailing whitespace bytes tentatively buffered
	entryPos int // bytes accumulated in the current field
	buf      []byte
	status   error // sticky; set once, cleared only by Reset or Finish
	offset   int64 // bytes successfully parsed in the current document
}

// New returns a Machine with comma delimiter, double-quote quote character,
// no flags and the default block size.
func New() *Machine {
	return &Machine{
		delim:   ',',
		quote:   '"',
		blkSize: DefaultBlockSize,
		realloc: defaultRealloc,
	}
}

// Delim returns the field delimiter byte.
func (m *Machine) Delim() byte { return m.delim }

// SetDelim sets the field delimiter byte.
func (m *Machine) SetDelim(c byte) { m.delim = c }

// Quote returns the quote byte.
func (m *Machine) Quote() byte { return m.quote }

// SetQuote sets the quote byte.
func (m *Machine) SetQuote(c byte) { m.quote = c }

// Flags returns the active option flags.
func (m *Machine) Flags() Flags { return m.flags }

// SetFlags replaces the active option flags.
func (m *Machine) SetFlags(f Flags) { m.flags = f }

// BlockSize returns the buffer growth granularity.
func (m *Machine) BlockSize() int { return m.blkSize }

// SetBlockSize sets the buffer growth granularity. Non-positive sizes are
// rejected immediately with ErrBlockSize.
func (m *Machine) SetBlockSize(n int) error {
	if n <= 0 {
		return ErrBlockSize
	}
	m.blkSize = n
	return nil
}

// BufferSize returns the current capacity of the internal field buffer.
func (m *Machine) BufferSize() int { return len(m.buf) }

// SetSpaceFunc installs f as the whitespace classifier. A nil f restores
// the default (space and tab).
func (m *Machine) SetSpaceFunc(f ClassifierFunc) { m.isSpace = f }

// SetTermFunc installs f as the row terminator classifier. A nil f restores
// the default (CR and LF).
func (m *Machine) SetTermFunc(f ClassifierFunc) { m.isTerm = f }

// SetReallocFunc installs f as the buffer growth strategy. A nil f restores
// the default allocator.
func (m *Machine) SetReallocFunc(f ReallocFunc) {
	if f == nil {
		f = defaultRealloc
	}
	m.realloc = f
}

// Err returns the sticky error latched by a previous Parse or Finish call,
// or nil.
func (m *Machine) Err() error { return m.status }

// InputOffset returns the number of bytes successfully parsed in the
// current document. Finish resets it for the next document.
func (m *Machine) InputOffset() int64 { return m.offset }

// Reset returns the machine to a fresh-document state, clearing any sticky
// error and pending field. The grown buffer is retained for reuse.
func (m *Machine) Reset() {
	m.pstate = rowNotBegun
	m.quoted = false
	m.spaces = 0
	m.entryPos = 0
	m.status = nil
	m.offset = 0
}

func (m *Machine) space(c byte) bool {
	if m.isSpace != nil {
		return m.isSpace(c)
	}
	return c == ' ' || c == '\t'
}

func (m *Machine) term(c byte) bool {
	if m.isTerm != nil {
		return m.isTerm(c)
	}
	return c == '\r' || c == '\n'
}

// grow ensures the field buffer holds at least need bytes, extending it in
// block-size increments through the configured realloc strategy.
func (m *Machine) grow(need int) error {
	if need <= len(m.buf) {
		return nil
	}
	size := len(m.buf)
	if size == 0 {
		size = m.blkSize
	}
	for size < need {
		if size > maxBufferSize-m.blkSize {
			return ErrFieldTooBig
		}
		size += m.blkSize
	}
	next := m.realloc(m.buf, size)
	if next == nil {
		return ErrAlloc
	}
	m.buf = next
	return nil
}

// store appends c to the current field.
func (m *Machine) store(c byte) error {
	if err := m.grow(m.entryPos + 1); err != nil {
		return err
	}
	m.buf[m.entryPos] = c
	m.entryPos++
	return nil
}

// submitField completes the current field: trims tentatively buffered
// trailing whitespace from unquoted fields, applies FlagAppendNull and
// FlagEmptyIsNull, invokes the callback and rearms for the next field.
func (m *Machine) submitField(onField FieldFunc) error {
	if !m.quoted {
		m.entryPos -= m.spaces
	}
	if m.flags&FlagAppendNull != 0 {
		if err := m.grow(m.entryPos + 1); err != nil {
			return err
		}
		m.buf[m.entryPos] = 0
	}
	if onField != nil {
		switch {
		case m.flags&FlagEmptyIsNull != 0 && !m.quoted && m.entryPos == 0:
			onField(nil)
		case m.entryPos == 0 && m.buf == nil:
			onField(emptyField)
		default:
			onField(m.buf[:m.entryPos])
		}
	}
	m.pstate = fieldNotBegun
	m.entryPos = 0
	m.spaces = 0
	m.quoted = false
	return nil
}

// submitRow completes the current row with the given terminator value.
func (m *Machine) submitRow(term int, onRow RowFunc) {
	if onRow != nil {
		onRow(term)
	}
	m.pstate = rowNotBegun
	m.entryPos = 0
	m.spaces = 0
	m.quoted = false
}

// fail latches err and accounts for the bytes consumed before the fault.
func (m *Machine) fail(err error, consumed int) (int, error) {
	m.status = err
	m.offset += int64(consumed)
	return consumed, err
}

// Parse consumes data, invoking onField and onRow for every field and row
// boundary recognized within this call. Either callback may be nil.
//
// The returned count is the number of bytes consumed: len(data) on success,
// or the offset of the offending byte when an error is latched. Once an
// error is latched, further Parse calls consume nothing and return the same
// error until Reset or Finish.
func (m *Machine) Parse(data []byte, onField FieldFunc, onRow RowFunc) (int, error) {
	if m.status != nil {
		return 0, m.status
	}

	for i := 0; i < len(data); i++ {
		c := data[i]

		switch m.pstate {
		case rowNotBegun, fieldNotBegun:
			switch {
			case c != m.delim && c != m.quote && m.space(c):
				// Whitespace before a field begins is skipped. If it
				// turns out to lead an unquoted field it never reaches
				// the buffer; trimming applies in strict and lenient
				// modes alike.
			case c == m.delim:
				if err := m.submitField(onField); err != nil {
					return m.fail(err, i)
				}
			case m.term(c):
				if m.pstate == fieldNotBegun {
					if err := m.submitField(onField); err != nil {
						return m.fail(err, i)
					}
					m.submitRow(int(c), onRow)
				} else if m.flags&FlagRepAllNewlines != 0 {
					m.submitRow(int(c), onRow)
				}
				// Terminators between rows are otherwise swallowed,
				// which also collapses CRLF into one row event.
			case c == m.quote:
				m.pstate = fieldBegun
				m.quoted = true
			default:
				m.pstate = fieldBegun
				m.quoted = false
				if err := m.store(c); err != nil {
					return m.fail(err, i)
				}
			}

		case fieldBegun:
			switch {
			case c == m.quote:
				if m.quoted {
					// Buffer the quote tentatively; the next byte
					// decides escape versus close.
					if err := m.store(c); err != nil {
						return m.fail(err, i)
					}
					m.pstate = fieldMightHaveEnded
					m.spaces = 0
				} else {
					if m.flags&FlagStrict != 0 {
						return m.fail(ErrParse, i)
					}
					m.spaces = 0
					if err := m.store(c); err != nil {
						return m.fail(err, i)
					}
				}
			case c == m.delim:
				if m.quoted {
					if err := m.store(c); err != nil {
						return m.fail(err, i)
					}
				} else if err := m.submitField(onField); err != nil {
					return m.fail(err, i)
				}
			case !m.quoted && m.term(c):
				if err := m.submitField(onField); err != nil {
					return m.fail(err, i)
				}
				m.submitRow(int(c), onRow)
			case !m.quoted && m.space(c):
				if err := m.store(c); err != nil {
					return m.fail(err, i)
				}
				m.spaces++
			default:
				if err := m.store(c); err != nil {
					return m.fail(err, i)
				}
				m.spaces = 0
			}

		case fieldMightHaveEnded:
			switch {
			case c == m.delim:
				m.entryPos -= m.spaces + 1 // drop trailing spaces and the closing quote
				if err := m.submitField(onField); err != nil {
					return m.fail(err, i)
				}
			case m.term(c):
				m.entryPos -= m.spaces + 1
				if err := m.submitField(onField); err != nil {
					return m.fail(err, i)
				}
				m.submitRow(int(c), onRow)
			case m.space(c):
				if err := m.store(c); err != nil {
					return m.fail(err, i)
				}
				m.spaces++
			case c == m.quote:
				if m.spaces == 0 {
					// Doubled quote: the tentatively buffered quote
					// stands as the literal and the field continues.
					m.pstate = fieldBegun
					break
				}
				// A quote after trailing spaces. Strict mode rejects
				// it; lenient mode buffers it as the new tentative
				// closing quote.
				if m.flags&FlagStrict != 0 {
					return m.fail(ErrParse, i)
				}
				if err := m.store(c); err != nil {
					return m.fail(err, i)
				}
				m.spaces = 0
			default:
				// Data after a closing quote. Strict mode rejects it;
				// lenient mode lets the field keep growing with the
				// earlier quote retained as literal content.
				if m.flags&FlagStrict != 0 {
					return m.fail(ErrParse, i)
				}
				m.pstate = fieldBegun
				m.spaces = 0
				if err := m.store(c); err != nil {
					return m.fail(err, i)
				}
			}
		}
	}

	m.offset += int64(len(data))
	return len(data), nil
}

// Finish terminates the document: it drains any pending field and row
// (terminator -1) and resets the machine for reuse. A document with no
// pending input produces no events.
//
// With FlagStrictFinish set, a quoted field still open fails with
// ErrUnterminated before any event is emitted. A sticky error from an
// earlier Parse call is returned instead, after resetting state.
func (m *Machine) Finish(onField FieldFunc, onRow RowFunc) error {
	if m.status != nil {
		err := m.status
		m.Reset()
		return err
	}

	if m.pstate == fieldBegun && m.quoted && m.flags&FlagStrictFinish != 0 {
		m.Reset()
		return ErrUnterminated
	}

	switch m.pstate {
	case fieldMightHaveEnded:
		// The buffered quote was the closing quote after all.
		m.entryPos -= m.spaces + 1
		fallthrough
	case fieldNotBegun, fieldBegun:
		if err := m.submitField(onField); err != nil {
			m.Reset()
			return err
		}
		m.submitRow(-1, onRow)
	case rowNotBegun:
		// Row already ended properly, or nothing was ever fed.
	}

	m.Reset()
	return nil
}
