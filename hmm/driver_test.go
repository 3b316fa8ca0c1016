package hmm

import (
	"math"
	"testing"

	"github.com/erisyon/gofluoroseq/hmmstep"
	"github.com/erisyon/gofluoroseq/kdrange"
	"github.com/erisyon/gofluoroseq/psv"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
	"github.com/erisyon/gofluoroseq/tensor"
)

// constantEmission stands in for an emission pdf that always returns 1,
// letting the literal scenarios from spec §8 exercise the driver without
// depending on ChannelModel's particular intensity distribution. Its
// forward/backward are the identity, since scaling by 1 never changes a
// cell.
type constantEmission struct {
	forwardRange, backwardRange kdrange.Range
}

func (c *constantEmission) PruneForward(r *kdrange.Range, allowDetached *bool) {
	c.forwardRange = r.Clone()
	c.backwardRange = r.Clone()
}

func (c *constantEmission) PruneBackward(r *kdrange.Range, allowDetached *bool) {
	c.backwardRange = c.backwardRange.Intersect(*r)
	*r = c.backwardRange
	c.forwardRange = c.forwardRange.Intersect(*r)
	*r = c.forwardRange
}

func (c *constantEmission) Forward(numEdmans *int, p *psv.PSV) {
	p.Range = c.backwardRange
}

func (c *constantEmission) Backward(input *psv.PSV, numEdmans int, output *psv.PSV) {
	it := tensor.NewScalarIterator(output.Tensor, c.forwardRange)
	inIt := tensor.NewScalarIterator(input.Tensor, c.forwardRange)
	for !it.Done() {
		*it.Get() = *inIt.Get()
		it.Advance()
		inIt.Advance()
	}
	output.Range = c.forwardRange
	output.PDetached = input.PDetached
	output.AllowDetached = input.AllowDetached
}

func (c *constantEmission) ImproveFit(forward, backward, nextBackward *psv.PSV, numEdmans int, z float64, fitter *sequencingmodel.Fitter) {
}

// TestScenarioNoLoss is spec §8 scenario 1: single channel, one dye, two
// time-steps, every loss probability zero. Expected Z = 1.
func TestScenarioNoLoss(t *testing.T) {
	shape := Shape(2, []uint{1})
	steps := []hmmstep.Step{
		hmmstep.NewInitialBlockTransition(0, 2),
		hmmstep.NewDudTransition(0, 0),
		&constantEmission{},
		hmmstep.NewDetachTransition(0),
		hmmstep.NewBleachTransition(0, 0),
		hmmstep.NewCyclicBlockTransition(0, 2),
		hmmstep.NewEdmanTransition(0, []int{0}),
		&constantEmission{},
		hmmstep.NewDetachTransition(0),
		hmmstep.NewBleachTransition(0, 0),
		hmmstep.NewCyclicBlockTransition(0, 2),
		hmmstep.NewEdmanTransition(0, []int{0}),
	}
	reserveBinomials(steps, 1)
	prune(steps, shape, []uint{1})

	run := &Run{Steps: steps, Shape: shape, InitialCell: []uint{0, 1, 0}}
	_, z := run.Forward()
	if math.Abs(z-1.0) > 1e-9 {
		t.Fatalf("Z = %v, want 1", z)
	}
}

// TestScenarioBleachClosedForm is spec §8 scenario 2: one bleach cycle with
// q=0.5 splits the unit mass evenly between the surviving and lost dye
// count cells.
func TestScenarioBleachClosedForm(t *testing.T) {
	shape := Shape(2, []uint{1})
	steps := []hmmstep.Step{
		hmmstep.NewInitialBlockTransition(0, 2),
		hmmstep.NewDudTransition(0, 0),
		&constantEmission{},
		hmmstep.NewDetachTransition(0),
		hmmstep.NewBleachTransition(0.5, 0),
		hmmstep.NewCyclicBlockTransition(0, 2),
		hmmstep.NewEdmanTransition(1, nil),
		&constantEmission{},
		hmmstep.NewDetachTransition(0),
		hmmstep.NewBleachTransition(0, 0),
		hmmstep.NewCyclicBlockTransition(0, 2),
		hmmstep.NewEdmanTransition(1, nil),
	}
	reserveBinomials(steps, 1)
	prune(steps, shape, []uint{1})

	run := &Run{Steps: steps, Shape: shape, InitialCell: []uint{0, 1, 0}}
	psvs, z := run.Forward()
	if math.Abs(z-1.0) > 1e-9 {
		t.Fatalf("Z = %v, want 1", z)
	}
	final := psvs[len(psvs)-1]
	got00 := final.Tensor.At([]uint{0, 0, 0})
	got01 := final.Tensor.At([]uint{0, 1, 0})
	if math.Abs(got00-0.5) > 1e-9 {
		t.Errorf("(e=0,n=0) = %v, want 0.5", got00)
	}
	if math.Abs(got01-0.5) > 1e-9 {
		t.Errorf("(e=0,n=1) = %v, want 0.5", got01)
	}
}

// TestScenarioEdmanFailure is spec §8 scenario 3: dye-seq "0",
// p_edman_failure=0.3, every other loss zero. After one Edman, row 0 mass is
// 0.3 and row 1 mass is 0.7.
func TestScenarioEdmanFailure(t *testing.T) {
	shape := Shape(1, []uint{1})
	steps := []hmmstep.Step{
		hmmstep.NewInitialBlockTransition(0, 2),
		hmmstep.NewDudTransition(0, 0),
		&constantEmission{},
		hmmstep.NewDetachTransition(0),
		hmmstep.NewBleachTransition(0, 0),
		hmmstep.NewCyclicBlockTransition(0, 2),
		hmmstep.NewEdmanTransition(0.3, []int{0}),
	}
	reserveBinomials(steps, 1)
	prune(steps, shape, []uint{1})

	run := &Run{Steps: steps, Shape: shape, InitialCell: []uint{0, 1, 0}}
	psvs, z := run.Forward()
	if math.Abs(z-1.0) > 1e-9 {
		t.Fatalf("Z = %v, want 1", z)
	}
	final := psvs[len(psvs)-1]
	row0 := final.Tensor.SumRange(kdrange.New([]uint{0, 0, 0}, []uint{1, 2, 2}))
	row1 := final.Tensor.SumRange(kdrange.New([]uint{1, 0, 0}, []uint{2, 2, 2}))
	if math.Abs(row0-0.3) > 1e-9 {
		t.Errorf("row 0 mass = %v, want 0.3", row0)
	}
	if math.Abs(row1-0.7) > 1e-9 {
		t.Errorf("row 1 mass = %v, want 0.7", row1)
	}
}

// TestForwardBackwardDotIsConstant is spec §8 scenario 6: for a two-channel,
// multi-step configuration with fixed, arbitrary probabilities,
// <forward[i], backward[i]> equals Z at
// every step boundary.
func TestForwardBackwardDotIsConstant(t *testing.T) {
	shape := Shape(2, []uint{2, 1})
	steps := []hmmstep.Step{
		hmmstep.NewInitialBlockTransition(0.05, 3),
		hmmstep.NewDudTransition(0.1, 0),
		hmmstep.NewDudTransition(0.2, 1),
		&constantEmission{},
		hmmstep.NewDetachTransition(0.05),
		hmmstep.NewBleachTransition(0.3, 0),
		hmmstep.NewBleachTransition(0.1, 1),
		hmmstep.NewCyclicBlockTransition(0.02, 3),
		hmmstep.NewEdmanTransition(0.2, []int{0, 1}),
		&constantEmission{},
		hmmstep.NewDetachTransition(0.05),
		hmmstep.NewBleachTransition(0.3, 0),
		hmmstep.NewBleachTransition(0.1, 1),
		hmmstep.NewCyclicBlockTransition(0.02, 3),
		hmmstep.NewEdmanTransition(0.2, []int{0, 1}),
	}
	reserveBinomials(steps, 2)
	prune(steps, shape, []uint{2, 1})

	run := &Run{Steps: steps, Shape: shape, InitialCell: []uint{0, 2, 1, 0}}
	forwardPSVs, z := run.Forward()
	backwardPSVs := run.Backward()

	for i := range forwardPSVs {
		got := psv.Dot(forwardPSVs[i], backwardPSVs[i])
		if math.Abs(got-z) > 1e-9 {
			t.Errorf("step %d: <forward,backward> = %v, want Z = %v", i, got, z)
		}
	}
}

func reserveBinomials(steps []hmmstep.Step, maxN uint) {
	for _, s := range steps {
		if b, ok := s.(*hmmstep.BinomialTransition); ok {
			b.Reserve(maxN)
		}
	}
}
