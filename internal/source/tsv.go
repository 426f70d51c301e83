// Package source reads the tab-delimited sales export.
//
// The export is a plain text file: one header line, then one record per line,
// fields separated by tabs. Fields never contain embedded tabs or newlines,
// so a line scanner beats encoding/csv here (no quoting rules to trip over).
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Options controls how the export file is decoded.
type Options struct {
	// Encoding names the source character set: "" or "utf-8" (default),
	// "latin-1" / "iso-8859-1", or "windows-1252". Exports produced on
	// legacy Windows systems are typically windows-1252.
	Encoding string

	// HasHeader indicates the first line is a header and must be skipped.
	// The sales export always carries one; defaults to true via Open.
	HasHeader bool
}

// Scanner streams records from a tab-delimited export file.
//
// Usage:
//
//	s, err := source.Open(path, opts)
//	...
//	for s.Next() {
//	    fields := s.Fields()
//	    ...
//	}
//	if err := s.Err(); err != nil { ... }
type Scanner struct {
	f   *os.File
	sc  *bufio.Scanner
	ln  int
	cur []string
	err error
}

// Open opens the export file and positions the scanner past the header.
func Open(path string, opts Options) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	var r io.Reader = f
	dec, err := decoderFor(opts.Encoding)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}

	sc := bufio.NewScanner(r)
	// Lines carry whole semicolon-packed product lists; give them room.
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	s := &Scanner{f: f, sc: sc}

	if opts.HasHeader {
		if sc.Scan() {
			s.ln++
		} else if err := sc.Err(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("read header: %w", err)
		}
		// A file with only a header (or nothing at all) yields zero records.
	}
	return s, nil
}

// Next advances to the next record. It returns false at EOF or on error;
// check Err afterwards.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	if !s.sc.Scan() {
		s.err = s.sc.Err()
		return false
	}
	s.ln++

	line := s.sc.Text()
	if s.ln == 1 {
		// No header was skipped, so the BOM (if any) sits on this line.
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	line = strings.TrimRight(line, "\r")
	s.cur = strings.Split(line, "\t")
	return true
}

// Fields returns the fields of the current record. The slice is valid until
// the next call to Next.
func (s *Scanner) Fields() []string {
	return s.cur
}

// Line returns the 1-based line number of the current record (the header is
// line 1 when present).
func (s *Scanner) Line() int {
	return s.ln
}

// Err returns the first error encountered while scanning, or nil at clean EOF.
func (s *Scanner) Err() error {
	return s.err
}

// Close releases the underlying file.
func (s *Scanner) Close() error {
	return s.f.Close()
}

// decoderFor maps an encoding name to its charmap. A nil return means the
// input is already UTF-8 and needs no transform.
func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported source encoding %q", name)
	}
}
