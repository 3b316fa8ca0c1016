/*
Package fsio holds the line-oriented text scanning helper shared by dyeseq
and radiometry's list/text formats: both are whitespace-delimited record
formats in the shape poly's bio/fasta and bio/fastq parsers already handle,
so both build on the same blank-line-skipping, line-numbered scanner instead
of hand-rolling their own (SPEC_FULL.md §0 module layout).
*/
package fsio

import (
	"bufio"
	"io"
	"strings"
)

// LineScanner yields non-blank, whitespace-trimmed lines from r, tracking a
// 1-based line counter for error messages.
type LineScanner struct {
	scanner *bufio.Scanner
	Line    int
}

// NewLineScanner wraps r with a buffer large enough for the long dye-seq and
// radiometry rows these formats can produce.
func NewLineScanner(r io.Reader) *LineScanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &LineScanner{scanner: scanner}
}

// Next returns the next non-blank line and true, or "", false at EOF.
func (s *LineScanner) Next() (string, bool) {
	for s.scanner.Scan() {
		s.Line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" {
			continue
		}
		return text, true
	}
	return "", false
}
