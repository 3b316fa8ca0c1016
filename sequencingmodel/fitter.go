package sequencingmodel

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ScalarFitter accumulates EM sufficient statistics for one scalar
// probability parameter: a running numerator and denominator whose ratio is
// the updated value. Grounded in whatprot's parameterization/fit/
// parameter-fitter.{h,cc}.
type ScalarFitter struct {
	Numerator   float64
	Denominator float64
}

// Get returns the fitted ratio. A zero denominator (no evidence seen for
// this parameter in the batch) leaves the ratio at zero rather than
// producing NaN, matching the "NaN adjusted score" handling in spec §7.
func (f *ScalarFitter) Get() float64 {
	if f.Denominator == 0 {
		return 0
	}
	return f.Numerator / f.Denominator
}

// Combine adds other's accumulated statistics into f. Fitters across
// radiometries are purely additive (spec §5), so this is the reduction step
// at the end of a parallel epoch.
func (f *ScalarFitter) Combine(other *ScalarFitter) {
	f.Numerator += other.Numerator
	f.Denominator += other.Denominator
}

// ChannelFitter accumulates weighted (observed, state) samples for one
// channel's intensity distribution, to be refit at epoch end. Grounded in
// whatprot's hmm/fit/log-normal-distribution-fitter.{h,cc}, modernized onto
// gonum's distuv.LogNormal.Fit rather than a hand-rolled running-moments
// accumulator (see DESIGN.md).
type ChannelFitter struct {
	PBleach ScalarFitter
	PDud    ScalarFitter

	samples []float64
	weights []float64
}

// AddSample records one posterior-weighted (observed intensity, active dye
// count) pair. Samples with state == 0 carry no information about Mu/Sigma
// (the channel is silent there, per ChannelModel.PDF) and are dropped.
func (f *ChannelFitter) AddSample(observed float64, state int, weight float64) {
	if state <= 0 || observed <= 0 || weight <= 0 {
		return
	}
	f.samples = append(f.samples, observed/float64(state))
	f.weights = append(f.weights, weight)
}

// Combine merges other's accumulated samples and scalar statistics into f.
func (f *ChannelFitter) Combine(other *ChannelFitter) {
	f.PBleach.Combine(&other.PBleach)
	f.PDud.Combine(&other.PDud)
	f.samples = append(f.samples, other.samples...)
	f.weights = append(f.weights, other.weights...)
}

// Fit returns the refit (Mu, Sigma) pair for this channel, or the provided
// fallback if no samples were accumulated (degenerate batch, spec §7).
func (f *ChannelFitter) Fit(fallbackMu, fallbackSigma float64) (mu, sigma float64) {
	if len(f.samples) == 0 {
		return fallbackMu, fallbackSigma
	}
	var ln distuv.LogNormal
	ln.Fit(f.samples, f.weights)
	return math.Exp(ln.Mu), ln.Sigma
}
