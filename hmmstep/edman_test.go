package hmmstep

import (
	"math"
	"testing"

	"github.com/erisyon/gofluoroseq/kdrange"
	"github.com/erisyon/gofluoroseq/psv"
)

// TestEdmanTransitionLabeledCleavage walks a single unit of mass through one
// Edman cycle on a residue labeled in channel 0, starting at (edman=0,
// dyeCount=1), and checks the closed-form split between the failure and
// success outcomes.
func TestEdmanTransitionLabeledCleavage(t *testing.T) {
	shape := []uint{2, 2}
	e := NewEdmanTransition(0.2, []int{0})

	var allowDetached bool
	r := kdrange.Full(shape)
	e.PruneForward(&r, &allowDetached)
	r = kdrange.Full(shape)
	e.PruneBackward(&r, &allowDetached)

	p := psv.New(shape)
	p.Tensor.Set([]uint{0, 1}, 1.0)
	p.Range = e.forwardRange

	e.Forward(nil, p)

	got00 := p.Tensor.At([]uint{0, 0})
	got01 := p.Tensor.At([]uint{0, 1})
	got10 := p.Tensor.At([]uint{1, 0})
	got11 := p.Tensor.At([]uint{1, 1})

	want00, want01, want10, want11 := 0.0, 0.2, 0.8, 0.0
	if math.Abs(got00-want00) > 1e-9 {
		t.Errorf("(e=0,n=0) = %v, want %v", got00, want00)
	}
	if math.Abs(got01-want01) > 1e-9 {
		t.Errorf("(e=0,n=1) = %v, want %v", got01, want01)
	}
	if math.Abs(got10-want10) > 1e-9 {
		t.Errorf("(e=1,n=0) = %v, want %v", got10, want10)
	}
	if math.Abs(got11-want11) > 1e-9 {
		t.Errorf("(e=1,n=1) = %v, want %v", got11, want11)
	}

	total := p.Tensor.SumRange(p.Range)
	if math.Abs(total-1.0) > 1e-9 {
		t.Fatalf("mass not conserved: got %v", total)
	}
}

// TestEdmanTransitionUnlabeledPassesThrough checks that an unlabeled residue
// only moves mass along the Edman axis, never the channel axis.
func TestEdmanTransitionUnlabeledPassesThrough(t *testing.T) {
	shape := []uint{2, 2}
	e := NewEdmanTransition(0.3, []int{-1})

	var allowDetached bool
	r := kdrange.Full(shape)
	e.PruneForward(&r, &allowDetached)
	r = kdrange.Full(shape)
	e.PruneBackward(&r, &allowDetached)

	p := psv.New(shape)
	p.Tensor.Set([]uint{0, 1}, 1.0)
	p.Range = e.forwardRange

	e.Forward(nil, p)

	if got := p.Tensor.At([]uint{0, 1}); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("(e=0,n=1) = %v, want 0.3", got)
	}
	if got := p.Tensor.At([]uint{1, 1}); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("(e=1,n=1) = %v, want 0.7", got)
	}
	if got := p.Tensor.At([]uint{1, 0}); got != 0 {
		t.Errorf("(e=1,n=0) = %v, want 0 (unlabeled residue never touches dye count)", got)
	}
}

// TestEdmanTransitionChannelTargetFollowsPerCellEdmanCount runs two Edman
// cycles over a two-residue, two-channel peptide ("0" then "1") with
// p_edman_failure=0.5, so a cell that fails its first cycle still has
// residue 0 left to attempt on its second. A cleavage can only ever consume
// residues in order, so (e=1,n0=1,n1=0) -- one cleavage total, but channel
// 1's dye gone while channel 0's remains -- can never receive mass: the only
// residue one cleavage can remove is residue 0.
func TestEdmanTransitionChannelTargetFollowsPerCellEdmanCount(t *testing.T) {
	shape := []uint{3, 2, 2}
	channels := []int{0, 1}
	e1 := NewEdmanTransition(0.5, channels)
	e2 := NewEdmanTransition(0.5, channels)

	var allowDetached bool
	r := kdrange.Full(shape)
	e1.PruneForward(&r, &allowDetached)
	r = kdrange.Full(shape)
	e1.PruneBackward(&r, &allowDetached)
	r = kdrange.Full(shape)
	e2.PruneForward(&r, &allowDetached)
	r = kdrange.Full(shape)
	e2.PruneBackward(&r, &allowDetached)

	p := psv.New(shape)
	p.Tensor.Set([]uint{0, 1, 1}, 1.0)
	p.Range = e1.forwardRange

	e1.Forward(nil, p)
	e2.Forward(nil, p)

	if got := p.Tensor.At([]uint{1, 1, 0}); got != 0 {
		t.Errorf("(e=1,n0=1,n1=0) = %v, want 0 (impossible: channel 1 cleaved before channel 0)", got)
	}

	want := map[[3]uint]float64{
		{0, 1, 1}: 0.25,
		{1, 0, 1}: 0.5,
		{2, 0, 0}: 0.25,
	}
	for loc, w := range want {
		got := p.Tensor.At([]uint{loc[0], loc[1], loc[2]})
		if math.Abs(got-w) > 1e-9 {
			t.Errorf("%v = %v, want %v", loc, got, w)
		}
	}

	total := p.Tensor.SumRange(p.Range)
	if math.Abs(total-1.0) > 1e-9 {
		t.Fatalf("mass not conserved: got %v", total)
	}
}
