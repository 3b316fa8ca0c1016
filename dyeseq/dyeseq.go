/*
Package dyeseq implements DyeSeq, the labeled-residue sequence that seeds an
HMM run's dye-count axes, and the whitespace-delimited list format it is read
from (spec §3, §6).

Grounded in whatprot's common/dye-seq.{h,cc}; parsing follows the scanner
style of poly's bio/fastq package (bufio.Scanner over a text format, errors
wrapped with the offending line number).
*/
package dyeseq

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/erisyon/gofluoroseq/internal/fsio"
)

// Unlabeled marks a residue position that carries no dye.
const Unlabeled = -1

// DyeSeq is a sequence of per-position channel labels: Positions[i] is the
// 0-based channel the i'th residue is labeled in, or Unlabeled.
type DyeSeq struct {
	Positions []int
}

// Parse builds a DyeSeq from the labeled-string encoding: one character per
// position, '.' for unlabeled, a decimal digit or digit run is not used —
// whatprot's format is one digit per position, so channel indices above 9
// cannot be expressed; this mirrors the original format exactly (spec §6).
func Parse(labeled string) (DyeSeq, error) {
	positions := make([]int, len(labeled))
	for i, r := range labeled {
		if r == '.' {
			positions[i] = Unlabeled
			continue
		}
		if r < '0' || r > '9' {
			return DyeSeq{}, fmt.Errorf("dyeseq: invalid label %q at position %d", r, i)
		}
		positions[i] = int(r - '0')
	}
	return DyeSeq{Positions: positions}, nil
}

// Length returns the number of residue positions.
func (d DyeSeq) Length() int {
	return len(d.Positions)
}

// ChannelAt returns the channel label at position i, or Unlabeled.
func (d DyeSeq) ChannelAt(i int) int {
	return d.Positions[i]
}

// Counts returns the initial per-channel dye count: the number of positions
// labeled in each of numChannels channels. This seeds the forward pass's
// starting PSV range (spec §4.4 step 2).
func (d DyeSeq) Counts(numChannels int) []uint {
	counts := make([]uint, numChannels)
	for _, c := range d.Positions {
		if c >= 0 && c < numChannels {
			counts[c]++
		}
	}
	return counts
}

// Record pairs a DyeSeq with the number of peptide source molecules it
// represents in a classification batch (spec §3 "DyeTrack... SourceCount").
type Record struct {
	Seq         DyeSeq
	SourceCount int
}

// ParseList reads the dye-seq list format: a channel count, a total record
// count, then one "<amino-length> <copy-count> <labeled-string>" line per
// record (spec §6).
func ParseList(r io.Reader) (records []Record, numChannels int, err error) {
	scanner := fsio.NewLineScanner(r)

	header, ok := scanner.Next()
	if !ok {
		return nil, 0, fmt.Errorf("dyeseq: empty input, expected channel count")
	}
	numChannels, err = strconv.Atoi(header)
	if err != nil {
		return nil, 0, fmt.Errorf("dyeseq: line %d: invalid channel count %q: %w", scanner.Line, header, err)
	}

	totalLine, ok := scanner.Next()
	if !ok {
		return nil, 0, fmt.Errorf("dyeseq: missing total record count")
	}
	total, err := strconv.Atoi(totalLine)
	if err != nil {
		return nil, 0, fmt.Errorf("dyeseq: line %d: invalid total count %q: %w", scanner.Line, totalLine, err)
	}

	records = make([]Record, 0, total)
	for i := 0; i < total; i++ {
		text, ok := scanner.Next()
		if !ok {
			return nil, 0, fmt.Errorf("dyeseq: line %d: expected %d records, found %d", scanner.Line, total, i)
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, 0, fmt.Errorf("dyeseq: line %d: expected 3 fields, got %d", scanner.Line, len(fields))
		}
		aminoLength, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, 0, fmt.Errorf("dyeseq: line %d: invalid amino length %q: %w", scanner.Line, fields[0], err)
		}
		copyCount, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, 0, fmt.Errorf("dyeseq: line %d: invalid copy count %q: %w", scanner.Line, fields[1], err)
		}
		labeled := fields[2]
		if len(labeled) != aminoLength {
			return nil, 0, fmt.Errorf("dyeseq: line %d: labeled string length %d does not match amino length %d", scanner.Line, len(labeled), aminoLength)
		}
		seq, err := Parse(labeled)
		if err != nil {
			return nil, 0, fmt.Errorf("dyeseq: line %d: %w", scanner.Line, err)
		}
		records = append(records, Record{Seq: seq, SourceCount: copyCount})
	}
	return records, numChannels, nil
}

// WriteList writes records in the same format ParseList reads (spec §3
// supplement).
func WriteList(w io.Writer, numChannels int, records []Record) error {
	if _, err := fmt.Fprintf(w, "%d\n%d\n", numChannels, len(records)); err != nil {
		return err
	}
	for _, rec := range records {
		labeled := rec.Seq.String()
		if _, err := fmt.Fprintf(w, "%d %d %s\n", rec.Seq.Length(), rec.SourceCount, labeled); err != nil {
			return err
		}
	}
	return nil
}

// String renders the DyeSeq back into the labeled-string encoding.
func (d DyeSeq) String() string {
	var sb strings.Builder
	sb.Grow(len(d.Positions))
	for _, c := range d.Positions {
		if c == Unlabeled {
			sb.WriteByte('.')
			continue
		}
		sb.WriteByte(byte('0' + c))
	}
	return sb.String()
}
