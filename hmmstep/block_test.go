package hmmstep

import (
	"math"
	"testing"

	"github.com/erisyon/gofluoroseq/psv"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
)

// TestBlockTransitionSplitsMassOntoBlockedAxis walks a single cell's mass
// through one block step: PBlock of it should move from the unblocked value
// (0) to the blocked value (1) on BlockedAxis, and nothing should leak onto
// any other axis.
func TestBlockTransitionSplitsMassOntoBlockedAxis(t *testing.T) {
	shape := []uint{3, 2}
	b := NewCyclicBlockTransition(0.1, 1)
	pruneRoundTrip(b, shape)

	p := psv.New(shape)
	p.Tensor.Set([]uint{1, 0}, 0.7)
	p.Range = b.forwardRange

	totalBefore := p.Tensor.SumRange(p.Range)
	b.Forward(nil, p)
	totalAfter := p.Tensor.SumRange(p.Range)

	if math.Abs(totalBefore-totalAfter) > 1e-9 {
		t.Fatalf("total mass should be conserved across block: before %v after %v", totalBefore, totalAfter)
	}

	gotUnblocked := p.Tensor.At([]uint{1, 0})
	gotBlocked := p.Tensor.At([]uint{1, 1})
	wantUnblocked := 0.9 * 0.7
	wantBlocked := 0.1 * 0.7
	if math.Abs(gotUnblocked-wantUnblocked) > 1e-9 {
		t.Errorf("unblocked mass = %v, want %v", gotUnblocked, wantUnblocked)
	}
	if math.Abs(gotBlocked-wantBlocked) > 1e-9 {
		t.Errorf("blocked mass = %v, want %v", gotBlocked, wantBlocked)
	}

	if got := p.Tensor.At([]uint{0, 0}); got != 0 {
		t.Errorf("(edman=0) = %v, want 0: block must not move mass along any other axis", got)
	}
}

// TestBlockTransitionBlockedStateIsAbsorbing checks that mass already on the
// blocked value never moves back to unblocked.
func TestBlockTransitionBlockedStateIsAbsorbing(t *testing.T) {
	shape := []uint{2, 2}
	b := NewInitialBlockTransition(0.4, 1)
	pruneRoundTrip(b, shape)

	p := psv.New(shape)
	p.Tensor.Set([]uint{0, 1}, 1.0)
	p.Range = b.forwardRange

	b.Forward(nil, p)

	if got := p.Tensor.At([]uint{0, 1}); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("blocked mass = %v, want 1 (already-blocked cells never unblock)", got)
	}
	if got := p.Tensor.At([]uint{0, 0}); got != 0 {
		t.Errorf("unblocked mass = %v, want 0", got)
	}
}

// TestInitialBlockAndCyclicBlockCreditDifferentFitters runs ImproveFit with a
// forward PSV entirely at the unblocked value and checks that the real
// per-cell posterior statistics, not PBlock itself, land in each kind's
// fitter accumulator.
func TestInitialBlockAndCyclicBlockCreditDifferentFitters(t *testing.T) {
	shape := []uint{1, 2}
	initial := NewInitialBlockTransition(0.05, 1)
	cyclic := NewCyclicBlockTransition(0.2, 1)
	pruneRoundTrip(initial, shape)
	pruneRoundTrip(cyclic, shape)

	forward := psv.New(shape)
	forward.Tensor.Set([]uint{0, 0}, 1.0)
	backward := psv.New(shape)
	backward.Tensor.Set([]uint{0, 0}, 1.0)
	backward.Tensor.Set([]uint{0, 1}, 1.0)
	nextBackward := psv.New(shape)
	nextBackward.Tensor.Set([]uint{0, 0}, 1.0)
	nextBackward.Tensor.Set([]uint{0, 1}, 1.0)

	fitter := sequencingmodel.NewFitter(0)
	initial.ImproveFit(forward, backward, nextBackward, 0, 1.0, fitter)
	cyclic.ImproveFit(forward, backward, nextBackward, 0, 1.0, fitter)

	if math.Abs(fitter.PInitialBlock.Denominator-1.0) > 1e-9 {
		t.Errorf("PInitialBlock denominator = %v, want 1.0", fitter.PInitialBlock.Denominator)
	}
	if math.Abs(fitter.PInitialBlock.Numerator-0.05) > 1e-9 {
		t.Errorf("PInitialBlock numerator = %v, want 0.05", fitter.PInitialBlock.Numerator)
	}
	if math.Abs(fitter.PCyclicBlock.Denominator-1.0) > 1e-9 {
		t.Errorf("PCyclicBlock denominator = %v, want 1.0", fitter.PCyclicBlock.Denominator)
	}
	if math.Abs(fitter.PCyclicBlock.Numerator-0.2) > 1e-9 {
		t.Errorf("PCyclicBlock numerator = %v, want 0.2", fitter.PCyclicBlock.Numerator)
	}

	if fitter.PInitialBlock.Numerator == fitter.PCyclicBlock.Numerator {
		t.Fatalf("PInitialBlock and PCyclicBlock should not alias the same accumulator")
	}
}
