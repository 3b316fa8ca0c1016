package sequencingmodel

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/erisyon/gofluoroseq/internal/fsio"
	"lukechampine.com/blake3"
)

// Save writes m as a snapshot in the format Load reads: one line for
// p_edman_failure, one for the three p_detach parameters, one for the two
// block probabilities, then one line per channel of "p_bleach p_dud mu sig"
// (spec §6 "Persistence"). whatprot's format additionally carries a
// background-sigma and cross-channel interaction terms per channel
// ("bg_sig interactions..."); this module's ChannelModel has no such fields
// (see DESIGN.md), so those positions are omitted rather than written as
// placeholder zeros.
func Save(w io.Writer, m Model) error {
	if _, err := fmt.Fprintf(w, "%s\n", formatFloat(m.PEdmanFailure)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %s %s\n",
		formatFloat(m.PDetach.Base), formatFloat(m.PDetach.Initial), formatFloat(m.PDetach.InitialDecay)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", formatFloat(m.PInitialBlock), formatFloat(m.PCyclicBlock)); err != nil {
		return err
	}
	for _, ch := range m.Channels {
		if _, err := fmt.Fprintf(w, "%s %s %s %s\n",
			formatFloat(ch.PBleach), formatFloat(ch.PDud), formatFloat(ch.Mu), formatFloat(ch.Sigma)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a snapshot written by Save. Any parse failure fails the whole
// load rather than defaulting the offending field (spec §6 "A loader that
// fails to parse must fail the command rather than default a field").
func Load(r io.Reader) (Model, error) {
	scanner := fsio.NewLineScanner(r)

	pEdmanFailure, err := nextFloat(scanner, "p_edman_failure")
	if err != nil {
		return Model{}, err
	}

	detachLine, ok := scanner.Next()
	if !ok {
		return Model{}, fmt.Errorf("sequencingmodel: line %d: missing p_detach parameters", scanner.Line)
	}
	detachFields := strings.Fields(detachLine)
	if len(detachFields) != 3 {
		return Model{}, fmt.Errorf("sequencingmodel: line %d: expected 3 p_detach fields, got %d", scanner.Line, len(detachFields))
	}
	base, err := strconv.ParseFloat(detachFields[0], 64)
	if err != nil {
		return Model{}, fmt.Errorf("sequencingmodel: line %d: invalid p_detach.base %q: %w", scanner.Line, detachFields[0], err)
	}
	initial, err := strconv.ParseFloat(detachFields[1], 64)
	if err != nil {
		return Model{}, fmt.Errorf("sequencingmodel: line %d: invalid p_detach.initial %q: %w", scanner.Line, detachFields[1], err)
	}
	initialDecay, err := strconv.ParseFloat(detachFields[2], 64)
	if err != nil {
		return Model{}, fmt.Errorf("sequencingmodel: line %d: invalid p_detach.initial_decay %q: %w", scanner.Line, detachFields[2], err)
	}

	blockLine, ok := scanner.Next()
	if !ok {
		return Model{}, fmt.Errorf("sequencingmodel: line %d: missing block probabilities", scanner.Line)
	}
	blockFields := strings.Fields(blockLine)
	if len(blockFields) != 2 {
		return Model{}, fmt.Errorf("sequencingmodel: line %d: expected 2 block fields, got %d", scanner.Line, len(blockFields))
	}
	pInitialBlock, err := strconv.ParseFloat(blockFields[0], 64)
	if err != nil {
		return Model{}, fmt.Errorf("sequencingmodel: line %d: invalid p_initial_block %q: %w", scanner.Line, blockFields[0], err)
	}
	pCyclicBlock, err := strconv.ParseFloat(blockFields[1], 64)
	if err != nil {
		return Model{}, fmt.Errorf("sequencingmodel: line %d: invalid p_cyclic_block %q: %w", scanner.Line, blockFields[1], err)
	}

	var channels []ChannelModel
	for {
		line, ok := scanner.Next()
		if !ok {
			break
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return Model{}, fmt.Errorf("sequencingmodel: line %d: expected 4 channel fields, got %d", scanner.Line, len(fields))
		}
		pBleach, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Model{}, fmt.Errorf("sequencingmodel: line %d: invalid p_bleach %q: %w", scanner.Line, fields[0], err)
		}
		pDud, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Model{}, fmt.Errorf("sequencingmodel: line %d: invalid p_dud %q: %w", scanner.Line, fields[1], err)
		}
		mu, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Model{}, fmt.Errorf("sequencingmodel: line %d: invalid mu %q: %w", scanner.Line, fields[2], err)
		}
		sigma, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return Model{}, fmt.Errorf("sequencingmodel: line %d: invalid sig %q: %w", scanner.Line, fields[3], err)
		}
		channels = append(channels, ChannelModel{PBleach: pBleach, PDud: pDud, Mu: mu, Sigma: sigma})
	}

	return Model{
		PEdmanFailure: pEdmanFailure,
		PDetach:       DetachRate{Base: base, Initial: initial, InitialDecay: initialDecay},
		PInitialBlock: pInitialBlock,
		PCyclicBlock:  pCyclicBlock,
		Channels:      channels,
	}, nil
}

// Fingerprint returns a hex-encoded blake3 checksum of m's saved snapshot,
// the same way poly's genbank reader stamps a blake3 checksum onto a parsed
// file (io/genbank.ParseMultiAndCheckSum) rather than hand-rolling a hash.
// Equal models give equal fingerprints. The fit command does not call it
// and writes no checkpoint files.
func (m Model) Fingerprint() (string, error) {
	var sb strings.Builder
	if err := Save(&sb, m); err != nil {
		return "", err
	}
	sum := blake3.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:]), nil
}

func nextFloat(scanner *fsio.LineScanner, name string) (float64, error) {
	line, ok := scanner.Next()
	if !ok {
		return 0, fmt.Errorf("sequencingmodel: line %d: missing %s", scanner.Line, name)
	}
	v, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, fmt.Errorf("sequencingmodel: line %d: invalid %s %q: %w", scanner.Line, name, line, err)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
