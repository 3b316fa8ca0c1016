/*
Package hmm is the per-radiometry HMM driver: it builds a step list from a
dye-seq, radiometry and sequencing model, prunes each step's live ranges,
then runs the forward and backward passes and the EM fit contribution.

Grounded in whatprot's hmm/hmm.{h,cc} and hmm/precomputations/
radiometry-precomputations.cc (spec §4.4).
*/
package hmm

import (
	"fmt"

	"github.com/erisyon/gofluoroseq/dyeseq"
	"github.com/erisyon/gofluoroseq/hmmstep"
	"github.com/erisyon/gofluoroseq/kdrange"
	"github.com/erisyon/gofluoroseq/psv"
	"github.com/erisyon/gofluoroseq/radiometry"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
)

// Run holds one (dye-seq, radiometry) pair's built, pruned step list, the
// tensor shape every PSV in the run shares, and the starting cell (zero
// Edman cleavages, each channel's full initial dye count).
type Run struct {
	Steps       []hmmstep.Step
	Shape       []uint
	InitialCell []uint
}

// Shape returns the tensor shape [T+1, N_0+1, ..., N_{C-1}+1, 2] for a run of
// numTimesteps Edman cycles against a dye-seq's initial per-channel counts
// (spec §5 "Memory"). The trailing axis of size 2 is the chemistry-block
// flag (0 = unblocked, 1 = blocked).
func Shape(numTimesteps int, initialCounts []uint) []uint {
	shape := make([]uint, 1+len(initialCounts)+1)
	shape[0] = uint(numTimesteps) + 1
	for c, n := range initialCounts {
		shape[1+c] = n + 1
	}
	shape[len(shape)-1] = 2
	return shape
}

// BuildSteps constructs the step list for one (dye-seq, radiometry) pair
// against model, in the canonical per-cycle order resolved in SPEC_FULL.md
// §5 (spec §9 "Open question"): InitialBlock once, then per time-step t:
// DudTransitions at t=0 only, Emission(t), Detach, per-channel Bleach,
// CyclicBlock, Edman.
//
// Every cycle's EdmanTransition shares the same residue-to-channel mapping
// (channels below): which residue a given live cell actually attempts to
// cleave is keyed to that cell's own Edman-count axis value, not to the
// cycle index t, so a cell that fell behind after an earlier failed cycle
// still targets its own next residue rather than the one t would suggest.
func BuildSteps(seq dyeseq.DyeSeq, rad radiometry.Radiometry, model sequencingmodel.Model) ([]hmmstep.Step, error) {
	numChannels := model.NumChannels()
	if rad.NumChannels() != numChannels {
		return nil, fmt.Errorf("hmm: radiometry has %d channels, model has %d", rad.NumChannels(), numChannels)
	}
	numTimesteps := rad.NumTimesteps()
	maxCounts := seq.Counts(numChannels)

	channels := make([]int, seq.Length())
	for i := range channels {
		channels[i] = seq.ChannelAt(i)
	}
	blockedAxis := 1 + numChannels

	steps := make([]hmmstep.Step, 0, 2+numTimesteps*(3+numChannels))
	steps = append(steps, hmmstep.NewInitialBlockTransition(model.PInitialBlock, blockedAxis))
	for c := 0; c < numChannels; c++ {
		if maxCounts[c] > 0 {
			steps = append(steps, hmmstep.NewDudTransition(model.Channels[c].PDud, c))
		}
	}

	for t := 0; t < numTimesteps; t++ {
		steps = append(steps, hmmstep.NewPeptideEmission(rad.Values[t], model.Channels))
		steps = append(steps, hmmstep.NewDetachTransition(model.PDetach.At(t)))
		for c := 0; c < numChannels; c++ {
			if maxCounts[c] > 0 {
				steps = append(steps, hmmstep.NewBleachTransition(model.Channels[c].PBleach, c))
			}
		}
		steps = append(steps, hmmstep.NewCyclicBlockTransition(model.PCyclicBlock, blockedAxis))
		steps = append(steps, hmmstep.NewEdmanTransition(model.PEdmanFailure, channels))
	}

	for _, s := range steps {
		if b, ok := s.(*hmmstep.BinomialTransition); ok {
			b.Reserve(maxCounts[b.Channel])
		}
	}
	return steps, nil
}

// Build constructs and prunes the step list for seq, rad and model,
// returning the Run ready for Forward/Backward/ImproveFit.
func Build(seq dyeseq.DyeSeq, rad radiometry.Radiometry, model sequencingmodel.Model) (*Run, error) {
	steps, err := BuildSteps(seq, rad, model)
	if err != nil {
		return nil, err
	}
	numChannels := model.NumChannels()
	maxCounts := seq.Counts(numChannels)
	shape := Shape(rad.NumTimesteps(), maxCounts)

	prune(steps, shape, maxCounts)

	initialCell := make([]uint, len(shape))
	copy(initialCell[1:], maxCounts)
	return &Run{Steps: steps, Shape: shape, InitialCell: initialCell}, nil
}

// prune runs the forward-then-backward pruning prepass described in spec
// §4.4 step 2: an initial range (all mass at the dye-seq's starting counts)
// propagates forward through prune_forward, then a terminal range (every
// cleavage count reachable, every dye count unbounded) propagates backward
// through prune_backward, narrowing every step's stored ranges in turn.
func prune(steps []hmmstep.Step, shape []uint, initialCounts []uint) {
	order := len(shape)

	start := kdrange.Range{Min: make([]uint, order), Max: make([]uint, order)}
	start.Max[0] = 1
	for c, n := range initialCounts {
		start.Min[1+c] = n
		start.Max[1+c] = n + 1
	}
	start.Max[order-1] = 1

	allowDetached := false
	cur := start
	for _, s := range steps {
		s.PruneForward(&cur, &allowDetached)
	}

	terminal := kdrange.Range{Min: make([]uint, order), Max: make([]uint, order)}
	terminal.Max[0] = shape[0]
	for i := 1; i < order; i++ {
		terminal.Max[i] = kdrange.MaxUint
	}
	cur = terminal
	for i := len(steps) - 1; i >= 0; i-- {
		steps[i].PruneBackward(&cur, &allowDetached)
	}
}

// Forward runs the forward pass, returning the PSV before every step (index
// i) and after the last step (index len(Steps)), along with the total
// likelihood Z = sum(final tensor) + final p_detached (spec §4.4 step 3).
func (r *Run) Forward() (psvs []*psv.PSV, z float64) {
	psvs = make([]*psv.PSV, len(r.Steps)+1)
	initialCell := r.InitialCell
	if initialCell == nil {
		initialCell = make([]uint, len(r.Shape))
	}
	psvs[0] = psv.NewInitialAt(r.Shape, initialCell)
	numEdmans := 0
	for i, s := range r.Steps {
		next := psvs[i].Clone()
		s.Forward(&numEdmans, next)
		psvs[i+1] = next
	}
	z = psvs[len(psvs)-1].Sum()
	return psvs, z
}

// Backward runs the backward pass, returning the PSV after every step (index
// i+1) and before the first step (index 0): backwardPSVs[len(Steps)] is the
// terminal unit PSV, and backwardPSVs[i] = Steps[i].Backward(backwardPSVs[i+1])
// (spec §4.4 step 4).
func (r *Run) Backward() []*psv.PSV {
	n := len(r.Steps)
	psvs := make([]*psv.PSV, n+1)

	terminalRange := kdrange.Full(r.Shape)
	psvs[n] = psv.NewUnitBackward(r.Shape, terminalRange, true)
	for i := n - 1; i >= 0; i-- {
		out := psv.New(r.Shape)
		r.Steps[i].Backward(psvs[i+1], 0, out)
		psvs[i] = out
	}
	return psvs
}

// ImproveFit runs every step's EM fit contribution given the forward and
// backward PSVs and the total likelihood z, accumulating into fitter (spec
// §4.4 step 5). If z is zero (numeric underflow for a long or
// low-probability sequence) the contribution is skipped rather than
// producing NaN accumulator updates (spec §7).
func (r *Run) ImproveFit(forwardPSVs, backwardPSVs []*psv.PSV, z float64, fitter *sequencingmodel.Fitter) {
	if z == 0 {
		return
	}
	numEdmans := 0
	for i, s := range r.Steps {
		s.ImproveFit(forwardPSVs[i], backwardPSVs[i], backwardPSVs[i+1], numEdmans, z, fitter)
	}
}
