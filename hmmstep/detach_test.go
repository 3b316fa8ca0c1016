package hmmstep

import (
	"math"
	"testing"

	"github.com/erisyon/gofluoroseq/psv"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
)

func TestDetachTransitionForwardMovesMassToDetached(t *testing.T) {
	shape := []uint{1, 3}
	d := NewDetachTransition(0.25)
	pruneRoundTrip(d, shape)

	p := psv.New(shape)
	p.Tensor.Set([]uint{0, 1}, 0.6)
	p.Tensor.Set([]uint{0, 2}, 0.4)
	p.Range = d.forwardRange
	p.AllowDetached = true

	totalBefore := p.Sum()
	d.Forward(nil, p)
	totalAfter := p.Sum()

	if math.Abs(totalBefore-totalAfter) > 1e-9 {
		t.Fatalf("total mass should be conserved across detach: before %v after %v", totalBefore, totalAfter)
	}
	wantDetached := 0.25 * 1.0
	if math.Abs(p.PDetached-wantDetached) > 1e-9 {
		t.Fatalf("p_detached = %v, want %v", p.PDetached, wantDetached)
	}
}

func TestDetachTransitionImproveFit(t *testing.T) {
	shape := []uint{1, 2}
	d := NewDetachTransition(0.5)
	pruneRoundTrip(d, shape)

	forward := psv.New(shape)
	forward.Tensor.Set([]uint{0, 0}, 1.0)
	backward := psv.New(shape)
	backward.Tensor.Set([]uint{0, 0}, 1.0)
	nextBackward := psv.New(shape)
	nextBackward.PDetached = 1.0

	fitter := sequencingmodel.NewFitter(0)
	d.ImproveFit(forward, backward, nextBackward, 0, 1.0, fitter)

	if fitter.PDetachBase.Denominator <= 0 {
		t.Fatalf("expected nonzero denominator")
	}
	if math.Abs(fitter.PDetachBase.Numerator-0.5) > 1e-9 {
		t.Fatalf("numerator = %v, want 0.5", fitter.PDetachBase.Numerator)
	}
}
