// Package csv provides escaping of raw bytes into CSV field syntax.
package csv

import "io"

const defaultQuote = '"'

// EscapedSize returns the number of bytes Write would produce for src with
// the given quote byte: the wrapping quotes plus one extra byte per quote
// occurrence inside src.
func EscapedSize(src []byte, quote byte) int {
	n := len(src) + 2
	for _, c := range src {
		if c == quote {
			n++
		}
	}
	return n
}

// Write escapes src into dst as one CSV field: the data is wrapped in
// double quotes and every double quote inside it is doubled. It returns the
// size of the escaped form.
//
// A nil dst requests a size computation only; nothing is written and the
// required size is returned with a nil error. A non-nil dst smaller than
// the required size is left untouched and reported as ErrShortBuffer, never
// silently truncated.
func Write(dst, src []byte) (int, error) {
	return WriteWithQuote(dst, src, defaultQuote)
}

// WriteWithQuote is Write with the quote byte overridden, without touching
// any parser configuration.
func WriteWithQuote(dst, src []byte, quote byte) (int, error) {
	need := EscapedSize(src, quote)
	if dst == nil {
		return need, nil
	}
	if len(dst) < need {
		return need, ErrShortBuffer
	}
	pos := 0
	dst[pos] = quote
	pos++
	for _, c := range src {
		if c == quote {
			dst[pos] = quote
			pos++
		}
		dst[pos] = c
		pos++
	}
	dst[pos] = quote
	return need, nil
}

// AppendEscaped appends the escaped form of src to dst and returns the
// extended slice, in the manner of strconv's Append functions.
func AppendEscaped(dst, src []byte) []byte {
	return AppendEscapedWithQuote(dst, src, defaultQuote)
}

// AppendEscapedWithQuote is AppendEscaped with the quote byte overridden.
func AppendEscapedWithQuote(dst, src []byte, quote byte) []byte {
	dst = append(dst, quote)
	for _, c := range src {
		if c == quote {
			dst = append(dst, quote)
		}
		dst = append(dst, c)
	}
	return append(dst, quote)
}

// WriteStream writes the escaped form of src directly to w.
func WriteStream(w io.Writer, src []byte) error {
	return WriteStreamWithQuote(w, src, defaultQuote)
}

// WriteStreamWithQuote is WriteStream with the quote byte overridden. The
// source is written in runs split at quote occurrences, so no intermediate
// buffer is allocated.
func WriteStreamWithQuote(w io.Writer, src []byte, quote byte) error {
	q := [1]byte{quote}
	if _, err := w.Write(q[:]); err != nil {
		return err
	}
	start := 0
	for i := 0; i < len(src); i++ {
		if src[i] != quote {
			continue
		}
		// Emit up to and including the quote, then double it.
		if _, err := w.Write(src[start : i+1]); err != nil {
			return err
		}
		if _, err := w.Write(q[:]); err != nil {
			return err
		}
		start = i + 1
	}
	if start < len(src) {
		if _, err := w.Write(src[start:]); err != nil {
			return err
		}
	}
	_, err := w.Write(q[:])
	return err
}
