/*
Package hmmstep implements the per-step linear operators of the
fluorosequencing HMM: Edman cleavage, per-channel dud and bleach loss,
peptide detachment, initial/cyclic chemistry block, and per-time-step
emission.

Each operator implements the Step interface (forward, backward, forward/
backward pruning, and an EM fit contribution), grounded in whatprot's
hmm/step/*.{h,cc} family. Go's structural interfaces stand in for the
source's virtual-method hierarchy (spec §9 "polymorphism over steps"): every
concrete step type below satisfies Step without any shared base class.
*/
package hmmstep

import (
	"github.com/erisyon/gofluoroseq/kdrange"
	"github.com/erisyon/gofluoroseq/psv"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
)

// Step is the common contract every HMM transition and emission operator
// implements (spec §4.3).
type Step interface {
	// PruneForward propagates the incoming live range forward: it computes
	// and stores this step's forward_range and backward_range, and reports
	// the new live range (backward_range) via *r for the next step.
	PruneForward(r *kdrange.Range, allowDetached *bool)

	// PruneBackward propagates the tail live range backward: it intersects
	// the stored backward_range with *r, updates forward_range, and reports
	// the new live range (forward_range) via *r for the preceding step.
	PruneBackward(r *kdrange.Range, allowDetached *bool)

	// Forward applies the step in place to p, advancing p.Range to
	// backward_range. numEdmans is the running Edman-cleavage count and may
	// be advanced by a step that performs a cleavage.
	Forward(numEdmans *int, p *psv.PSV)

	// Backward fills output from input such that, for any forward PSV at
	// the input side, Dot(forwardPSV, output) == Dot(stepApplied, input).
	Backward(input *psv.PSV, numEdmans int, output *psv.PSV)

	// ImproveFit accumulates this step's EM contribution into fitter, given
	// the forward PSV immediately before this step, the backward PSV at
	// this step's input, the backward PSV at this step's output, the
	// running Edman count, and the sequence's total likelihood z.
	ImproveFit(forward, backward, nextBackward *psv.PSV, numEdmans int, z float64, fitter *sequencingmodel.Fitter)
}
