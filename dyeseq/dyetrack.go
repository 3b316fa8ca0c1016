package dyeseq

// DyeTrack is the latent integer dye-count matrix T x C prior to optical
// noise: Counts[t][c] is the number of active (not yet bleached, dudded,
// detached or cleaved away) dyes in channel c at time-step t. Grounded in
// whatprot's common/dye-track.{h,cc}; supplements the distilled spec with the
// simulation path's intermediate representation (SPEC_FULL.md §3).
type DyeTrack struct {
	Counts [][]uint
}

// NewDyeTrack allocates a DyeTrack for numTimesteps time-steps and
// numChannels channels, all counts zero.
func NewDyeTrack(numTimesteps, numChannels int) DyeTrack {
	counts := make([][]uint, numTimesteps)
	for t := range counts {
		counts[t] = make([]uint, numChannels)
	}
	return DyeTrack{Counts: counts}
}

// NumTimesteps returns T.
func (d DyeTrack) NumTimesteps() int {
	return len(d.Counts)
}

// NumChannels returns C, or 0 for an empty track.
func (d DyeTrack) NumChannels() int {
	if len(d.Counts) == 0 {
		return 0
	}
	return len(d.Counts[0])
}

// Key returns a structural key suitable for map-based deduplication of
// DyeTracks, replacing whatprot's custom hash of a vector-valued key (spec §9
// "custom hash of vector-valued keys"): Go's comparable array/struct keys
// cannot hold a slice, so Key flattens Counts into a string that compares
// equal iff the two DyeTracks are equal.
func (d DyeTrack) Key() string {
	buf := make([]byte, 0, d.NumTimesteps()*d.NumChannels()*3)
	for _, row := range d.Counts {
		for _, c := range row {
			buf = appendUvarint(buf, uint64(c))
		}
		buf = append(buf, ';')
	}
	return string(buf)
}

func appendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}
