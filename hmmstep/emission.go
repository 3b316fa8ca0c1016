package hmmstep

import (
	"github.com/erisyon/gofluoroseq/kdrange"
	"github.com/erisyon/gofluoroseq/psv"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
	"github.com/erisyon/gofluoroseq/tensor"
)

// PeptideEmission scales a PSV pointwise by the joint probability of
// observing this time step's per-channel radiometry intensities given each
// cell's dye counts. Unlike the other steps, it touches every channel axis
// at once rather than one axis in isolation, and it never changes which
// cells are live: forward and backward are the same pointwise scale (the
// operator is self-adjoint), so PruneForward/PruneBackward pass the range
// through unchanged. Grounded in whatprot's hmm/step/peptide-emission.{h,cc}
// and common/error_model.cc (spec §4.3.5).
type PeptideEmission struct {
	// Observed holds this time step's measured intensity for each channel.
	Observed []float64
	Channels []sequencingmodel.ChannelModel

	forwardRange  kdrange.Range
	backwardRange kdrange.Range

	// prob is not populated or read: Forward, Backward and ImproveFit
	// evaluate each channel's PDF directly through jointProb.
	prob [][]float64
}

// NewPeptideEmission builds the emission step for one time step's observed
// per-channel intensities against the current model's channel parameters.
func NewPeptideEmission(observed []float64, channels []sequencingmodel.ChannelModel) *PeptideEmission {
	return &PeptideEmission{Observed: observed, Channels: channels}
}

// PruneForward implements Step.
func (e *PeptideEmission) PruneForward(r *kdrange.Range, allowDetached *bool) {
	e.forwardRange = r.Clone()
	e.backwardRange = r.Clone()
}

// PruneBackward implements Step.
func (e *PeptideEmission) PruneBackward(r *kdrange.Range, allowDetached *bool) {
	e.backwardRange = e.backwardRange.Intersect(*r)
	*r = e.backwardRange
	e.forwardRange = e.forwardRange.Intersect(*r)
	*r = e.forwardRange
}

// jointProb returns the product, over every channel, of that channel's
// emission pdf evaluated at the cell's dye count on that channel's axis.
func (e *PeptideEmission) jointProb(loc []uint) float64 {
	total := 1.0
	for c, ch := range e.Channels {
		axis := 1 + c
		total *= ch.PDF(e.Observed[c], int(loc[axis]))
	}
	return total
}

// Forward implements Step: scales every live cell by jointProb.
func (e *PeptideEmission) Forward(numEdmans *int, p *psv.PSV) {
	it := tensor.NewOuterIterator(p.Tensor, e.backwardRange)
	for !it.Done() {
		loc := it.Loc()
		p.Tensor.Set(loc, p.Tensor.At(loc)*e.jointProb(loc))
		it.Advance()
	}
	p.Range = e.backwardRange
}

// Backward implements Step: self-adjoint, so the same pointwise scale
// applied to a separate output tensor.
func (e *PeptideEmission) Backward(input *psv.PSV, numEdmans int, output *psv.PSV) {
	it := tensor.NewOuterIterator(output.Tensor, e.forwardRange)
	for !it.Done() {
		loc := it.Loc()
		output.Tensor.Set(loc, input.Tensor.At(loc)*e.jointProb(loc))
		it.Advance()
	}
	output.Range = e.forwardRange
	output.PDetached = input.PDetached
	output.AllowDetached = input.AllowDetached
}

// ImproveFit reports one posterior-weighted (observed, state) sample per
// channel per distinct dye count found in the live range, marginalizing the
// per-cell joint posterior down to each channel's own axis before handing it
// to that channel's ChannelFitter.
func (e *PeptideEmission) ImproveFit(forward, backward, nextBackward *psv.PSV, numEdmans int, z float64, fitter *sequencingmodel.Fitter) {
	weightByState := make([]map[uint]float64, len(e.Channels))
	for c := range e.Channels {
		weightByState[c] = make(map[uint]float64)
	}

	it := tensor.NewOuterIterator(forward.Tensor, e.forwardRange)
	for !it.Done() {
		loc := it.Loc()
		pState := forward.Tensor.At(loc) * backward.Tensor.At(loc) / z
		for c := range e.Channels {
			n := loc[1+c]
			weightByState[c][n] += pState
		}
		it.Advance()
	}

	for c := range fitter.Channels {
		ch := &fitter.Channels[c]
		for n, weight := range weightByState[c] {
			ch.AddSample(e.Observed[c], int(n), weight)
		}
	}
}
