package csv

import (
	"io"

	"github.com/pkg/errors"
)

// Read size for the scanner's chunk buffer. 8KB balances read syscall count
// against memory held per scanner.
const defaultChunkSize = 8 * 1024

// Scanner provides a streaming interface for reading CSV records one at a
// time from an io.Reader. It is memory-efficient for large inputs: data is
// read in fixed-size chunks and fed incrementally to a Parser, so only the
// records recognized in the current chunk are ever held in memory.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	scanner := csv.NewScanner(file)
//	for scanner.Scan() {
//	    fmt.Println(scanner.Record())
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type Scanner struct {
	r      io.Reader
	p      *Parser
	buf    []byte
	cur    []string   // fields of the record being assembled
	queue  [][]string // completed records not yet delivered
	record []string   // record most recently delivered by Scan
	off    int64      // bytes consumed across all Parse calls
	err    error
	done   bool
}

// NewScanner creates a Scanner reading CSV from r with the default parser
// configuration.
func NewScanner(r io.Reader) *Scanner {
	s, _ := NewScannerWithOptions(r, DefaultOptions())
	return s
}

// NewScannerWithOptions creates a Scanner with a custom parser
// configuration.
func NewScannerWithOptions(r io.Reader, opts Options) (*Scanner, error) {
	p, err := NewParserWithOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		r:   r,
		p:   p,
		buf: make([]byte, defaultChunkSize),
	}, nil
}

// Scan advances the scanner to the next record. It returns false when there
// are no more records or an error occurs; Err reports the error, if any,
// after Scan returns false.
func (s *Scanner) Scan() bool {
	for len(s.queue) == 0 {
		if s.err != nil || s.done {
			return false
		}
		s.fill()
	}
	s.record = s.queue[0]
	s.queue = s.queue[1:]
	return true
}

// Record returns the record most recently advanced to by Scan. The slice is
// owned by the caller; it is not reused by subsequent Scan calls.
func (s *Scanner) Record() []string {
	return s.record
}

// Err returns the first error encountered while scanning, or nil. It
// returns nil at a clean end of input.
func (s *Scanner) Err() error {
	return s.err
}

// InputOffset returns the number of input bytes successfully parsed so far.
// The count survives the end of input, so it reports the document length
// after a complete scan.
func (s *Scanner) InputOffset() int64 {
	return s.off
}

// fill reads one chunk from the underlying reader and feeds it to the
// parser, queueing any records completed within the chunk.
func (s *Scanner) fill() {
	n, rerr := s.r.Read(s.buf)
	if n > 0 {
		consumed, perr := s.p.Parse(s.buf[:n], s.onField, s.onRow)
		s.off += int64(consumed)
		if perr != nil {
			s.err = perr
			s.done = true
			return
		}
	}
	switch {
	case rerr == io.EOF:
		if ferr := s.p.Finish(s.onField, s.onRow); ferr != nil {
			s.err = ferr
		}
		s.done = true
	case rerr != nil:
		s.err = errors.Wrap(rerr, "csv: reading input")
		s.done = true
	}
}

func (s *Scanner) onField(field []byte) {
	s.cur = append(s.cur, string(field))
}

func (s *Scanner) onRow(int) {
	s.queue = append(s.queue, s.cur)
	s.cur = nil
}
