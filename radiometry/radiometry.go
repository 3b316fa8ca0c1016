/*
Package radiometry implements Radiometry, the observed T x C intensity
matrix, and its row-major text and binary I/O formats (spec §3, §6; binary
form restored from original_source per SPEC_FULL.md §3).
*/
package radiometry

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/erisyon/gofluoroseq/internal/fsio"
)

// Radiometry is one peptide's observed intensity matrix: Values[t][c] is the
// measured intensity at time-step t in channel c.
type Radiometry struct {
	Values [][]float64
}

// New allocates a Radiometry of the given shape, all zero.
func New(numTimesteps, numChannels int) Radiometry {
	values := make([][]float64, numTimesteps)
	for t := range values {
		values[t] = make([]float64, numChannels)
	}
	return Radiometry{Values: values}
}

// NumTimesteps returns T.
func (r Radiometry) NumTimesteps() int {
	return len(r.Values)
}

// NumChannels returns C, or 0 for an empty radiometry.
func (r Radiometry) NumChannels() int {
	if len(r.Values) == 0 {
		return 0
	}
	return len(r.Values[0])
}

// IsDegenerate reports whether every observed intensity is zero (spec §7
// "degenerate radiometry" — not an error, but a case the classifier must
// special-case rather than feed to the HMM).
func (r Radiometry) IsDegenerate() bool {
	for _, row := range r.Values {
		for _, v := range row {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// ParseText reads one Radiometry per whitespace-delimited record: the first
// line holds "<num_timesteps> <num_channels>", followed by num_timesteps
// lines of num_channels doubles (spec §6 "row-major text").
func ParseText(r io.Reader) (Radiometry, error) {
	scanner := fsio.NewLineScanner(r)
	rad, err := parseTextRecord(scanner)
	if err != nil {
		return Radiometry{}, fmt.Errorf("radiometry: %w", err)
	}
	return rad, nil
}

// WriteText writes r in the format ParseText reads.
func WriteText(w io.Writer, r Radiometry) error {
	if _, err := fmt.Fprintf(w, "%d %d\n", r.NumTimesteps(), r.NumChannels()); err != nil {
		return err
	}
	for _, row := range r.Values {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return nil
}

// ParseBinary reads a Radiometry from the binary encoding: two uint32
// little-endian dimension fields (timesteps, channels) followed by that many
// float64s in row-major order, mirroring the text format's layout for
// programs that prefer a compact on-disk representation (SPEC_FULL.md §3).
func ParseBinary(r io.Reader) (Radiometry, error) {
	var dims [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return Radiometry{}, fmt.Errorf("radiometry: reading dimensions: %w", err)
	}
	rad := New(int(dims[0]), int(dims[1]))
	for t := range rad.Values {
		if err := binary.Read(r, binary.LittleEndian, rad.Values[t]); err != nil {
			return Radiometry{}, fmt.Errorf("radiometry: reading row %d: %w", t, err)
		}
	}
	return rad, nil
}

// WriteBinary writes r in the format ParseBinary reads.
func WriteBinary(w io.Writer, r Radiometry) error {
	dims := [2]uint32{uint32(r.NumTimesteps()), uint32(r.NumChannels())}
	if err := binary.Write(w, binary.LittleEndian, dims); err != nil {
		return err
	}
	for _, row := range r.Values {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			return err
		}
	}
	return nil
}

// ParseTextAll reads a whole radiometries file: a leading record count
// followed by that many ParseText records back to back, mirroring dyeseq's
// list format so a classify run can stream one file of many radiometries
// (spec §6 "row-major text... per record").
func ParseTextAll(r io.Reader) ([]Radiometry, error) {
	scanner := fsio.NewLineScanner(r)

	totalLine, ok := scanner.Next()
	if !ok {
		return nil, fmt.Errorf("radiometry: empty input, expected record count")
	}
	total, err := strconv.Atoi(totalLine)
	if err != nil {
		return nil, fmt.Errorf("radiometry: line %d: invalid record count %q: %w", scanner.Line, totalLine, err)
	}

	records := make([]Radiometry, 0, total)
	for i := 0; i < total; i++ {
		rad, err := parseTextRecord(scanner)
		if err != nil {
			return nil, fmt.Errorf("radiometry: record %d: %w", i, err)
		}
		records = append(records, rad)
	}
	return records, nil
}

// WriteTextAll writes records in the format ParseTextAll reads.
func WriteTextAll(w io.Writer, records []Radiometry) error {
	if _, err := fmt.Fprintf(w, "%d\n", len(records)); err != nil {
		return err
	}
	for _, rad := range records {
		if err := WriteText(w, rad); err != nil {
			return err
		}
	}
	return nil
}

func parseTextRecord(scanner *fsio.LineScanner) (Radiometry, error) {
	header, ok := scanner.Next()
	if !ok {
		return Radiometry{}, fmt.Errorf("line %d: expected dimensions header", scanner.Line)
	}
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return Radiometry{}, fmt.Errorf("line %d: expected 2 dimension fields, got %d", scanner.Line, len(fields))
	}
	numTimesteps, err := strconv.Atoi(fields[0])
	if err != nil {
		return Radiometry{}, fmt.Errorf("line %d: invalid timestep count %q: %w", scanner.Line, fields[0], err)
	}
	numChannels, err := strconv.Atoi(fields[1])
	if err != nil {
		return Radiometry{}, fmt.Errorf("line %d: invalid channel count %q: %w", scanner.Line, fields[1], err)
	}

	rad := New(numTimesteps, numChannels)
	for t := 0; t < numTimesteps; t++ {
		text, ok := scanner.Next()
		if !ok {
			return Radiometry{}, fmt.Errorf("line %d: expected %d rows, found %d", scanner.Line, numTimesteps, t)
		}
		values := strings.Fields(text)
		if len(values) != numChannels {
			return Radiometry{}, fmt.Errorf("line %d: expected %d channel values, got %d", scanner.Line, numChannels, len(values))
		}
		for c, v := range values {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Radiometry{}, fmt.Errorf("line %d: invalid intensity %q: %w", scanner.Line, v, err)
			}
			rad.Values[t][c] = f
		}
	}
	return rad, nil
}

// ParseBinaryAll reads a whole binary radiometries file: a leading uint32
// record count followed by that many ParseBinary records.
func ParseBinaryAll(r io.Reader) ([]Radiometry, error) {
	var total uint32
	if err := binary.Read(r, binary.LittleEndian, &total); err != nil {
		return nil, fmt.Errorf("radiometry: reading record count: %w", err)
	}
	records := make([]Radiometry, 0, total)
	for i := uint32(0); i < total; i++ {
		rad, err := ParseBinary(r)
		if err != nil {
			return nil, fmt.Errorf("radiometry: record %d: %w", i, err)
		}
		records = append(records, rad)
	}
	return records, nil
}

// WriteBinaryAll writes records in the format ParseBinaryAll reads.
func WriteBinaryAll(w io.Writer, records []Radiometry) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(records))); err != nil {
		return err
	}
	for _, rad := range records {
		if err := WriteBinary(w, rad); err != nil {
			return err
		}
	}
	return nil
}
