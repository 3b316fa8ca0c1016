package sequencingmodel

// Fitter accumulates one epoch's worth of EM sufficient statistics across
// every scalar and per-channel parameter of a Model. It lives across an
// entire batch of radiometries; every step's improve_fit appends to it
// (spec §3 "Lifecycle").
type Fitter struct {
	PEdmanFailure ScalarFitter
	PDetachBase   ScalarFitter
	PInitialBlock ScalarFitter
	PCyclicBlock  ScalarFitter
	Channels      []ChannelFitter
}

// NewFitter allocates a Fitter with one ChannelFitter per channel.
func NewFitter(numChannels int) *Fitter {
	return &Fitter{Channels: make([]ChannelFitter, numChannels)}
}

// Combine merges other's accumulated statistics into f, the reduction
// whatprot's "sync point at the end of each epoch" performs across worker
// threads (spec §5).
func (f *Fitter) Combine(other *Fitter) {
	f.PEdmanFailure.Combine(&other.PEdmanFailure)
	f.PDetachBase.Combine(&other.PDetachBase)
	f.PInitialBlock.Combine(&other.PInitialBlock)
	f.PCyclicBlock.Combine(&other.PCyclicBlock)
	for i := range f.Channels {
		f.Channels[i].Combine(&other.Channels[i])
	}
}

// Next produces a freshly refit Model from the accumulated statistics,
// falling back to the corresponding field of prev wherever a parameter saw
// no evidence this epoch (spec §7 "skip its contribution rather than
// produce NaN").
func (f *Fitter) Next(prev Model) Model {
	next := Model{
		PEdmanFailure: ratioOr(&f.PEdmanFailure, prev.PEdmanFailure),
		PDetach: DetachRate{
			Base:         ratioOr(&f.PDetachBase, prev.PDetach.Base),
			Initial:      prev.PDetach.Initial,
			InitialDecay: prev.PDetach.InitialDecay,
		},
		PInitialBlock: ratioOr(&f.PInitialBlock, prev.PInitialBlock),
		PCyclicBlock:  ratioOr(&f.PCyclicBlock, prev.PCyclicBlock),
		Channels:      make([]ChannelModel, len(prev.Channels)),
	}
	for i, prevChannel := range prev.Channels {
		cf := &f.Channels[i]
		mu, sigma := cf.Fit(prevChannel.Mu, prevChannel.Sigma)
		next.Channels[i] = ChannelModel{
			PBleach: ratioOr(&cf.PBleach, prevChannel.PBleach),
			PDud:    ratioOr(&cf.PDud, prevChannel.PDud),
			Mu:      mu,
			Sigma:   sigma,
		}
	}
	return next
}

func ratioOr(f *ScalarFitter, fallback float64) float64 {
	if f.Denominator == 0 {
		return fallback
	}
	return f.Get()
}
