/*
Package sequencingmodel holds the immutable physical parameters of a
fluorosequencing run (SequencingModel) and the mutable EM accumulator used to
refit them from a posteriori state probabilities (SequencingModelFitter).

Grounded in whatprot's parameterization/model/sequencing-model.{h,cc} and
parameterization/model/channel-model.{h,cc}; the per-channel intensity pdf is
modernized onto gonum.org/v1/gonum/stat/distuv.LogNormal, the one dependency
this module adds beyond its teacher's own stack (see DESIGN.md).
*/
package sequencingmodel

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DetachRate is the decaying-rate model for per-cycle detachment
// probability: p_detach(k) = Base + Initial * InitialDecay^k.
type DetachRate struct {
	Base         float64
	Initial      float64
	InitialDecay float64
}

// At returns the effective detach probability at Edman step k.
func (d DetachRate) At(k int) float64 {
	return d.Base + d.Initial*math.Pow(d.InitialDecay, float64(k))
}

// Distance returns the maximum absolute difference between the components
// of two DetachRate models.
func (d DetachRate) Distance(other DetachRate) float64 {
	return maxAbs(
		math.Abs(d.Base-other.Base),
		math.Abs(d.Initial-other.Initial),
		math.Abs(d.InitialDecay-other.InitialDecay),
	)
}

// ChannelModel holds one fluorescence channel's loss rates and intensity
// distribution.
type ChannelModel struct {
	PBleach float64
	PDud    float64
	Mu      float64
	Sigma   float64
}

// PDF returns the probability density of observing intensity `observed`
// given `state` active dyes in this channel.
//
// For state == 0, the model is degenerate: whatprot's log-normal pdf
// collapses to an indicator at observed == 0 rather than evaluating a
// log-normal at a zero mean (see SPEC_FULL.md §5, the "mu(0) = sig(mu)"
// open question). For state > 0, intensity is modeled as log-normal around
// a mean of Mu*state.
func (c ChannelModel) PDF(observed float64, state int) float64 {
	if state <= 0 {
		if observed == 0.0 {
			return 1.0
		}
		return 0.0
	}
	if observed <= 0.0 {
		return 0.0
	}
	mean := c.Mu * float64(state)
	if c.Sigma <= 0 || mean <= 0 {
		return 0.0
	}
	ln := distuv.LogNormal{Mu: math.Log(mean), Sigma: c.Sigma}
	return ln.Prob(observed)
}

// Distance returns the max absolute difference between the scalar
// components of two ChannelModels.
func (c ChannelModel) Distance(other ChannelModel) float64 {
	return maxAbs(
		math.Abs(c.PBleach-other.PBleach),
		math.Abs(c.PDud-other.PDud),
		math.Abs(c.Mu-other.Mu),
		math.Abs(c.Sigma-other.Sigma),
	)
}

// Model is the complete, immutable set of physical parameters for one
// sequencing run. The HMM engine must never mutate a Model it is given
// (spec §6); every step that needs a scalar reads it, never writes it.
type Model struct {
	PEdmanFailure  float64
	PDetach        DetachRate
	PInitialBlock  float64
	PCyclicBlock   float64
	Channels       []ChannelModel
}

// NumChannels returns the channel count C.
func (m Model) NumChannels() int {
	return len(m.Channels)
}

// Distance returns the maximum absolute difference across every scalar
// component of m and other, including per-channel components. Per spec §8,
// this must be a metric: nonnegative, symmetric, and zero iff equal.
func (m Model) Distance(other Model) float64 {
	d := maxAbs(
		math.Abs(m.PEdmanFailure-other.PEdmanFailure),
		m.PDetach.Distance(other.PDetach),
		math.Abs(m.PInitialBlock-other.PInitialBlock),
		math.Abs(m.PCyclicBlock-other.PCyclicBlock),
	)
	for i := range m.Channels {
		cd := m.Channels[i].Distance(other.Channels[i])
		if cd > d {
			d = cd
		}
	}
	return d
}

func maxAbs(vals ...float64) float64 {
	max := 0.0
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	return max
}
