package hmmstep

import (
	"github.com/erisyon/gofluoroseq/kdrange"
	"github.com/erisyon/gofluoroseq/psv"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
	"github.com/erisyon/gofluoroseq/tensor"
)

// DetachTransition moves mass d = PDetach from every live cell into the
// distinguished detached scalar, leaving each cell scaled by (1-d).
// Grounded in whatprot's hmm/step/detach-transition.{h,cc} (spec §4.3.3).
type DetachTransition struct {
	PDetach float64

	forwardRange  kdrange.Range
	backwardRange kdrange.Range
}

// NewDetachTransition builds a DetachTransition with the given effective
// detach probability for this Edman cycle.
func NewDetachTransition(pDetach float64) *DetachTransition {
	return &DetachTransition{PDetach: pDetach}
}

// PruneForward implements Step: detach does not change which cells are
// live, only their mass and the detached scalar, and it turns on
// allow_detached from this point forward.
func (d *DetachTransition) PruneForward(r *kdrange.Range, allowDetached *bool) {
	d.forwardRange = r.Clone()
	d.backwardRange = r.Clone()
	*allowDetached = true
}

// PruneBackward implements Step.
func (d *DetachTransition) PruneBackward(r *kdrange.Range, allowDetached *bool) {
	d.backwardRange = d.backwardRange.Intersect(*r)
	*r = d.backwardRange
	d.forwardRange = d.forwardRange.Intersect(*r)
	*r = d.forwardRange
}

// Forward implements Step: p_detached += d * sum(in-range tensor); tensor
// scaled by (1-d).
func (d *DetachTransition) Forward(numEdmans *int, p *psv.PSV) {
	mass := p.Tensor.SumRange(d.forwardRange)
	p.PDetached += d.PDetach * mass
	p.Tensor.Scale(d.forwardRange, 1-d.PDetach)
	p.Range = d.backwardRange
	p.AllowDetached = true
}

// Backward implements Step: p_detached contributes d*b_detached_next to
// every cell; tensor backward is (1-d)*b.
func (d *DetachTransition) Backward(input *psv.PSV, numEdmans int, output *psv.PSV) {
	it := tensor.NewScalarIterator(output.Tensor, d.forwardRange)
	inIt := tensor.NewScalarIterator(input.Tensor, d.forwardRange)
	for !it.Done() {
		*it.Get() = (1-d.PDetach)**inIt.Get() + d.PDetach*input.PDetached
		it.Advance()
		inIt.Advance()
	}
	output.Range = d.forwardRange
	output.PDetached = input.PDetached
	output.AllowDetached = true
}

// ImproveFit accumulates this Edman cycle's contribution to the detach
// probability fit: numerator is the weighted mass that detached, and
// denominator is the weighted mass that was present to detach from.
func (d *DetachTransition) ImproveFit(forward, backward, nextBackward *psv.PSV, numEdmans int, z float64, fitter *sequencingmodel.Fitter) {
	it := tensor.NewScalarIterator(forward.Tensor, d.forwardRange)
	bIt := tensor.NewScalarIterator(backward.Tensor, d.forwardRange)
	for !it.Done() {
		fv := *it.Get()
		bv := *bIt.Get()
		pState := fv * bv / z
		fitter.PDetachBase.Denominator += pState
		pDetachTrans := fv * d.PDetach * nextBackward.PDetached / z
		fitter.PDetachBase.Numerator += pDetachTrans
		it.Advance()
		bIt.Advance()
	}
}
