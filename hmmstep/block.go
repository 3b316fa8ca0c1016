package hmmstep

import (
	"github.com/erisyon/gofluoroseq/kdrange"
	"github.com/erisyon/gofluoroseq/psv"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
	"github.com/erisyon/gofluoroseq/tensor"
)

// blockKind distinguishes the two placements of chemistry-block failure so
// ImproveFit can credit the right fitter accumulator.
type blockKind int

const (
	blockInitial blockKind = iota
	blockCyclic
)

// BlockTransition models a chemical failure that permanently prevents
// further Edman cleavage. Blocked state lives on BlockedAxis, a trailing
// tensor axis of size 2 (0 = unblocked, 1 = blocked): with probability
// PBlock an unblocked cell moves to the blocked value this step, and once
// blocked a cell stays there forever. Every other axis is left untouched, so
// a blocked cell still bleaches, detaches and emits normally — only Edman
// stops advancing it, which EdmanTransition itself does not need to know
// about since it is keyed purely to the Edman-count axis. Grounded in
// whatprot's block-state handling described in spec §4.3.4.
type BlockTransition struct {
	PBlock      float64
	Kind        blockKind
	BlockedAxis int

	forwardRange  kdrange.Range
	backwardRange kdrange.Range
}

// NewInitialBlockTransition builds the once-per-radiometry block applied
// before the first Edman cycle.
func NewInitialBlockTransition(pInitialBlock float64, blockedAxis int) *BlockTransition {
	return &BlockTransition{PBlock: pInitialBlock, Kind: blockInitial, BlockedAxis: blockedAxis}
}

// NewCyclicBlockTransition builds the once-per-cycle block applied during
// every Edman cycle.
func NewCyclicBlockTransition(pCyclicBlock float64, blockedAxis int) *BlockTransition {
	return &BlockTransition{PBlock: pCyclicBlock, Kind: blockCyclic, BlockedAxis: blockedAxis}
}

// PruneForward implements Step. BlockedAxis always spans its full domain
// {0,1} on both sides of this step, so pruning only needs to ensure that
// domain is included, never narrowed away.
func (b *BlockTransition) PruneForward(r *kdrange.Range, allowDetached *bool) {
	b.forwardRange = r.Clone()
	next := r.Clone()
	next.Min[b.BlockedAxis] = 0
	if next.Max[b.BlockedAxis] < 2 {
		next.Max[b.BlockedAxis] = 2
	}
	b.backwardRange = next
	*r = next
}

// PruneBackward implements Step.
func (b *BlockTransition) PruneBackward(r *kdrange.Range, allowDetached *bool) {
	b.backwardRange = b.backwardRange.Intersect(*r)
	*r = b.backwardRange
	widened := r.Clone()
	widened.Min[b.BlockedAxis] = 0
	if widened.Max[b.BlockedAxis] < 2 {
		widened.Max[b.BlockedAxis] = 2
	}
	b.forwardRange = b.forwardRange.Intersect(widened)
	*r = b.forwardRange
}

// Forward implements Step: splits each unblocked cell's mass between
// staying unblocked and moving to blocked, and leaves already-blocked mass
// in place.
func (b *BlockTransition) Forward(numEdmans *int, p *psv.PSV) {
	axis := b.BlockedAxis
	it := tensor.NewOuterIterator(p.Tensor, b.forwardRange, axis)
	for !it.Done() {
		loc := it.Loc()
		loc[axis] = 0
		mass0 := p.Tensor.At(loc)
		loc[axis] = 1
		mass1 := p.Tensor.At(loc)

		p.Tensor.Set(loc, mass1+b.PBlock*mass0)
		loc[axis] = 0
		p.Tensor.Set(loc, (1-b.PBlock)*mass0)

		it.Advance()
	}
	p.Range = b.backwardRange
}

// Backward implements Step, the adjoint of Forward: a blocked cell's
// backward value flows unchanged, while an unblocked cell's backward value
// is a (1-PBlock)/PBlock mixture of the unblocked and blocked outcomes.
func (b *BlockTransition) Backward(input *psv.PSV, numEdmans int, output *psv.PSV) {
	axis := b.BlockedAxis
	it := tensor.NewOuterIterator(output.Tensor, b.forwardRange, axis)
	for !it.Done() {
		loc := it.Loc()
		loc[axis] = 0
		in0 := input.Tensor.At(loc)
		loc[axis] = 1
		in1 := input.Tensor.At(loc)

		output.Tensor.Set(loc, in1)
		loc[axis] = 0
		output.Tensor.Set(loc, (1-b.PBlock)*in0+b.PBlock*in1)

		it.Advance()
	}
	output.Range = b.forwardRange
	output.PDetached = input.PDetached
	output.AllowDetached = input.AllowDetached
}

// ImproveFit accumulates real per-cell EM statistics for the unblocked-to-
// blocked transition, mirroring DetachTransition.ImproveFit's pattern of
// crediting the denominator with the pre-step unblocked posterior and the
// numerator with the posterior mass that actually took the transition.
func (b *BlockTransition) ImproveFit(forward, backward, nextBackward *psv.PSV, numEdmans int, z float64, fitter *sequencingmodel.Fitter) {
	target := &fitter.PInitialBlock
	if b.Kind == blockCyclic {
		target = &fitter.PCyclicBlock
	}
	axis := b.BlockedAxis
	it := tensor.NewOuterIterator(forward.Tensor, b.forwardRange, axis)
	for !it.Done() {
		loc := it.Loc()
		loc[axis] = 0
		fv := forward.Tensor.At(loc)
		bv := backward.Tensor.At(loc)
		pState := fv * bv / z
		target.Denominator += pState

		loc[axis] = 1
		nbv := nextBackward.Tensor.At(loc)
		pTrans := fv * b.PBlock * nbv / z
		target.Numerator += pTrans

		loc[axis] = 0
		it.Advance()
	}
}
