package hmmstep

import (
	"github.com/erisyon/gofluoroseq/kdrange"
	"github.com/erisyon/gofluoroseq/psv"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
	"github.com/erisyon/gofluoroseq/tensor"
)

// NoChannel marks a residue position that carries no dye.
const NoChannel = -1

// EdmanTransition models one Edman-cleavage attempt against the current
// N-terminal residue. A cell's Edman axis value e is the number of residues
// already cleaved, so the residue this attempt targets is Channels[e] (or
// no residue at all, once e reaches the end of Channels): the target is
// keyed to each cell's own e, never to the step's position in the
// build-time cycle loop, since a prior failed cycle can leave a live cell's
// e lagging behind the cycle count. With probability 1-PFailure the residue
// is removed, advancing e by one and, if it was labeled, decreasing that
// channel's dye-count axis by one in the same move. With probability
// PFailure, nothing changes. Once e has consumed every residue, the cell is
// pinned in place regardless of PFailure. Grounded in whatprot's Edman
// transition semantics described in spec §4.3.2.
type EdmanTransition struct {
	PFailure float64
	// Channels[i] is the 0-based channel the i'th residue is labeled in, or
	// NoChannel if unlabeled. The same slice is shared by every Edman cycle
	// of a run.
	Channels []int

	forwardRange  kdrange.Range
	backwardRange kdrange.Range
}

// NewEdmanTransition builds an EdmanTransition for a peptide whose residues
// are labeled per channels (see Channels).
func NewEdmanTransition(pFailure float64, channels []int) *EdmanTransition {
	return &EdmanTransition{PFailure: pFailure, Channels: channels}
}

// channelAxis returns the tensor axis the residue attempted at Edman count e
// occupies, or -1 if e has no residue left or that residue is unlabeled.
func (e *EdmanTransition) channelAxis(edman uint) int {
	if int(edman) >= len(e.Channels) {
		return -1
	}
	c := e.Channels[edman]
	if c < 0 {
		return -1
	}
	return 1 + c
}

// stayProb returns the probability that a cell at Edman count e does not
// advance this cycle: PFailure if a residue remains to attempt, 1 if e has
// already consumed every residue.
func (e *EdmanTransition) stayProb(edman uint) float64 {
	if int(edman) >= len(e.Channels) {
		return 1.0
	}
	return e.PFailure
}

// advanceProb is the complement of stayProb.
func (e *EdmanTransition) advanceProb(edman uint) float64 {
	return 1.0 - e.stayProb(edman)
}

// touchedAxes returns the distinct labeled-channel axes any residue in
// [eMin, eMax) could touch, used by pruning to decide which channel axes
// this step's live range must widen.
func (e *EdmanTransition) touchedAxes(eMin, eMax uint) []int {
	hi := eMax
	if uint(len(e.Channels)) < hi {
		hi = uint(len(e.Channels))
	}
	var axes []int
	seen := map[int]bool{}
	for i := eMin; i < hi; i++ {
		c := e.Channels[i]
		if c < 0 {
			continue
		}
		axis := 1 + c
		if !seen[axis] {
			seen[axis] = true
			axes = append(axes, axis)
		}
	}
	return axes
}

// PruneForward implements Step. A cleavage can only increase the Edman
// count and only decrease a touched channel's dye count, so the output
// range widens the Edman axis upward by one and widens every channel axis
// some live residue could cleave into down to zero.
func (e *EdmanTransition) PruneForward(r *kdrange.Range, allowDetached *bool) {
	e.forwardRange = r.Clone()
	next := r.Clone()
	if next.Max[0] < kdrange.MaxUint {
		next.Max[0]++
	}
	for _, axis := range e.touchedAxes(r.Min[0], r.Max[0]) {
		next.Min[axis] = 0
	}
	e.backwardRange = next
	*r = next
}

// PruneBackward implements Step.
func (e *EdmanTransition) PruneBackward(r *kdrange.Range, allowDetached *bool) {
	e.backwardRange = e.backwardRange.Intersect(*r)
	*r = e.backwardRange
	widened := r.Clone()
	if widened.Max[0] > 0 {
		widened.Max[0]--
	}
	for _, axis := range e.touchedAxes(widened.Min[0], widened.Max[0]) {
		widened.Max[axis] = kdrange.MaxUint
	}
	e.forwardRange = e.forwardRange.Intersect(widened)
	*r = e.forwardRange
}

// Forward implements Step, mutating p in place. Each Edman-axis layer is
// fully computed before the next lower layer is touched, so the e-1 source
// layer a layer e target reads from is always still pristine.
func (e *EdmanTransition) Forward(numEdmans *int, p *psv.PSV) {
	eMin, eMax := e.backwardRange.Min[0], e.backwardRange.Max[0]

	it := tensor.NewOuterIterator(p.Tensor, e.backwardRange, 0)
	for !it.Done() {
		loc := it.Loc()
		for target := eMax; target > eMin; target-- {
			edman := target - 1
			loc[0] = edman
			val := e.stayProb(edman) * p.Tensor.At(loc)
			if edman >= 1 {
				srcE := edman - 1
				if axis := e.channelAxis(srcE); axis < 0 {
					loc[0] = srcE
					val += e.advanceProb(srcE) * p.Tensor.At(loc)
					loc[0] = edman
				} else {
					nc := loc[axis]
					srcNc := nc + 1
					if srcNc < p.Tensor.Shape[axis] {
						loc[0] = srcE
						loc[axis] = srcNc
						val += e.advanceProb(srcE) * p.Tensor.At(loc)
						loc[0] = edman
						loc[axis] = nc
					}
				}
			}
			p.Tensor.Set(loc, val)
		}
		it.Advance()
	}
	p.Range = e.backwardRange
}

// Backward implements Step: output and input are distinct tensors so there
// is no write-before-read hazard to order around.
func (e *EdmanTransition) Backward(input *psv.PSV, numEdmans int, output *psv.PSV) {
	eMin, eMax := e.forwardRange.Min[0], e.forwardRange.Max[0]

	it := tensor.NewOuterIterator(output.Tensor, e.forwardRange, 0)
	for !it.Done() {
		loc := it.Loc()
		for edman := eMin; edman < eMax; edman++ {
			loc[0] = edman
			val := e.stayProb(edman) * safeAt(input.Tensor, loc, e.backwardRange)
			nextE := edman + 1
			if axis := e.channelAxis(edman); axis < 0 {
				loc[0] = nextE
				val += e.advanceProb(edman) * safeAt(input.Tensor, loc, e.backwardRange)
				loc[0] = edman
			} else if nc := loc[axis]; nc >= 1 {
				loc[0] = nextE
				loc[axis] = nc - 1
				val += e.advanceProb(edman) * safeAt(input.Tensor, loc, e.backwardRange)
				loc[0] = edman
				loc[axis] = nc
			}
			output.Tensor.Set(loc, val)
		}
		it.Advance()
	}
	output.Range = e.forwardRange
	output.PDetached = input.PDetached
	output.AllowDetached = input.AllowDetached
}

// safeAt reads t at loc if loc falls within r, or returns 0 otherwise
// (including when loc would be out of the tensor's own bounds), matching
// the "cells outside the live range are implicitly zero" contract.
func safeAt(t *tensor.Tensor, loc []uint, r kdrange.Range) float64 {
	for i := range loc {
		if loc[i] >= t.Shape[i] {
			return 0
		}
	}
	if !r.Contains(loc) {
		return 0
	}
	return t.At(loc)
}

// ImproveFit implements Step, accumulating into fitter.PEdmanFailure: for
// every live cell that still has a residue to attempt, the denominator gains
// the cell's posterior mass forward*backward/z and the numerator gains the
// posterior mass of a failed cleavage, forward*PFailure*nextBackward/z at
// the same cell.
func (e *EdmanTransition) ImproveFit(forward, backward, nextBackward *psv.PSV, numEdmans int, z float64, fitter *sequencingmodel.Fitter) {
	it := tensor.NewOuterIterator(forward.Tensor, e.forwardRange)
	for !it.Done() {
		loc := it.Loc()
		if int(loc[0]) < len(e.Channels) {
			fv := forward.Tensor.At(loc)
			fitter.PEdmanFailure.Denominator += fv * backward.Tensor.At(loc) / z
			fitter.PEdmanFailure.Numerator += fv * e.PFailure * safeAt(nextBackward.Tensor, loc, e.backwardRange) / z
		}
		it.Advance()
	}
}
