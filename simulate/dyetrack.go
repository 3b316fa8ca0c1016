/*
Package simulate draws synthetic DyeTracks and Radiometries from a dye-seq
and sequencing model, restoring the path spec.md §1 scopes out as an external
collaborator ("the simulation path that samples synthetic observations from
the same model") and used by fit's tests to check that EM recovers known
generator parameters (spec §8 "Fitter properties").

Grounded in whatprot's simulation/generate-radiometry.{h,cc} and the
dye-track sampling it delegates to; the per-event Bernoulli/log-normal draws
mirror the same physical events hmmstep models as linear operators, just run
generatively instead of as a sum over a state tensor.
*/
package simulate

import (
	"math"
	"math/rand"

	"github.com/erisyon/gofluoroseq/dyeseq"
	"github.com/erisyon/gofluoroseq/radiometry"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
)

// GenerateDyeTrack samples one latent per-time-step, per-channel dye-count
// trajectory for seq under model across numTimesteps Edman cycles, applying
// the same events in the canonical per-cycle order SPEC_FULL.md §5 resolves
// for the HMM engine: initial block and dud once, then per cycle emission
// (recorded counts), detach, bleach, cyclic block, Edman.
func GenerateDyeTrack(seq dyeseq.DyeSeq, model sequencingmodel.Model, numTimesteps int, rng *rand.Rand) dyeseq.DyeTrack {
	numChannels := model.NumChannels()
	track := dyeseq.NewDyeTrack(numTimesteps, numChannels)

	active := make([]bool, seq.Length())
	for i := range active {
		active[i] = seq.ChannelAt(i) != dyeseq.Unlabeled
	}
	for i := range active {
		c := seq.ChannelAt(i)
		if c == dyeseq.Unlabeled {
			continue
		}
		if rng.Float64() < model.Channels[c].PDud {
			active[i] = false
		}
	}

	blocked := rng.Float64() < model.PInitialBlock
	detached := false
	nextResidue := 0

	currentCounts := func() []uint {
		counts := make([]uint, numChannels)
		if detached {
			return counts
		}
		for i := nextResidue; i < seq.Length(); i++ {
			if active[i] {
				counts[seq.ChannelAt(i)]++
			}
		}
		return counts
	}

	for t := 0; t < numTimesteps; t++ {
		copy(track.Counts[t], currentCounts())

		if detached {
			continue
		}

		if rng.Float64() < model.PDetach.At(t) {
			detached = true
			continue
		}

		for i := nextResidue; i < seq.Length(); i++ {
			if !active[i] {
				continue
			}
			c := seq.ChannelAt(i)
			if rng.Float64() < model.Channels[c].PBleach {
				active[i] = false
			}
		}

		if !blocked && rng.Float64() < model.PCyclicBlock {
			blocked = true
		}
		if !blocked && nextResidue < seq.Length() && rng.Float64() >= model.PEdmanFailure {
			nextResidue++
		}
	}

	return track
}

// GenerateRadiometry samples a DyeTrack via GenerateDyeTrack and then an
// observed Radiometry from it using each channel's log-normal intensity
// model (mirroring ChannelModel.PDF's parameterization: mean Mu*state,
// log-space spread Sigma). ok is false when the track is trivial — every
// channel's count is zero at t=0, and so for every later t too, since counts
// can only decrease (generate-radiometry.cc: "Ignore any DyeTrack with all
// 0s... any DyeTrack with all 0s at the 0th timestep will have all 0s
// throughout").
func GenerateRadiometry(seq dyeseq.DyeSeq, model sequencingmodel.Model, numTimesteps int, rng *rand.Rand) (rad radiometry.Radiometry, ok bool) {
	track := GenerateDyeTrack(seq, model, numTimesteps, rng)

	trivial := true
	for c := 0; c < track.NumChannels(); c++ {
		if track.Counts[0][c] != 0 {
			trivial = false
			break
		}
	}
	if trivial {
		return radiometry.Radiometry{}, false
	}

	rad = radiometry.New(numTimesteps, model.NumChannels())
	for t := 0; t < numTimesteps; t++ {
		for c := 0; c < model.NumChannels(); c++ {
			rad.Values[t][c] = sampleIntensity(model.Channels[c], track.Counts[t][c], rng)
		}
	}
	return rad, true
}

func sampleIntensity(ch sequencingmodel.ChannelModel, state uint, rng *rand.Rand) float64 {
	if state == 0 {
		return 0
	}
	logMean := math.Log(ch.Mu * float64(state))
	return math.Exp(logMean + ch.Sigma*rng.NormFloat64())
}
