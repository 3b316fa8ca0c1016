package sequencingmodel

import "testing"

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestDetachRateAt(t *testing.T) {
	d := DetachRate{Base: 0.01, Initial: 0.5, InitialDecay: 0.5}
	if got := d.At(0); !approxEqual(got, 0.51, 1e-12) {
		t.Fatalf("At(0) = %v, want 0.51", got)
	}
	if got := d.At(1); !approxEqual(got, 0.26, 1e-12) {
		t.Fatalf("At(1) = %v, want 0.26", got)
	}
}

func TestChannelModelPDFZeroState(t *testing.T) {
	c := ChannelModel{Mu: 1000, Sigma: 0.1}
	if got := c.PDF(0.0, 0); got != 1.0 {
		t.Fatalf("PDF(0, 0) = %v, want 1.0", got)
	}
	if got := c.PDF(500.0, 0); got != 0.0 {
		t.Fatalf("PDF(500, 0) = %v, want 0.0", got)
	}
}

func TestChannelModelPDFPositiveStatePeaksNearMean(t *testing.T) {
	c := ChannelModel{Mu: 1000, Sigma: 0.2}
	atMean := c.PDF(1000, 1)
	atFarOff := c.PDF(3000, 1)
	if atMean <= atFarOff {
		t.Fatalf("expected density at mean (%v) to exceed density far off (%v)", atMean, atFarOff)
	}
}

func TestDistanceIsMetric(t *testing.T) {
	a := Model{
		PEdmanFailure: 0.1,
		PDetach:       DetachRate{Base: 0.05, Initial: 0.1, InitialDecay: 0.5},
		PInitialBlock: 0.02,
		PCyclicBlock:  0.03,
		Channels:      []ChannelModel{{PBleach: 0.1, PDud: 0.05, Mu: 1000, Sigma: 0.2}},
	}
	b := a
	b.PEdmanFailure = 0.3

	if got := a.Distance(a); got != 0 {
		t.Fatalf("Distance(a, a) = %v, want 0", got)
	}
	if got := a.Distance(b); !approxEqual(got, 0.2, 1e-12) {
		t.Fatalf("Distance(a, b) = %v, want 0.2", got)
	}
	if a.Distance(b) != b.Distance(a) {
		t.Fatalf("distance not symmetric")
	}
}

func TestScalarFitterRatio(t *testing.T) {
	f := ScalarFitter{Numerator: 3, Denominator: 10}
	if got := f.Get(); !approxEqual(got, 0.3, 1e-12) {
		t.Fatalf("Get() = %v, want 0.3", got)
	}
	empty := ScalarFitter{}
	if got := empty.Get(); got != 0 {
		t.Fatalf("Get() on empty fitter = %v, want 0", got)
	}
}

func TestScalarFitterCombine(t *testing.T) {
	a := ScalarFitter{Numerator: 1, Denominator: 2}
	b := ScalarFitter{Numerator: 3, Denominator: 4}
	a.Combine(&b)
	if a.Numerator != 4 || a.Denominator != 6 {
		t.Fatalf("Combine produced %+v", a)
	}
}

func TestFitterNextFallsBackOnNoEvidence(t *testing.T) {
	prev := Model{
		PEdmanFailure: 0.2,
		PDetach:       DetachRate{Base: 0.1, Initial: 0.0, InitialDecay: 0.9},
		PInitialBlock: 0.05,
		PCyclicBlock:  0.07,
		Channels:      []ChannelModel{{PBleach: 0.1, PDud: 0.05, Mu: 1000, Sigma: 0.2}},
	}
	fitter := NewFitter(1)
	next := fitter.Next(prev)
	if next.Distance(prev) != 0 {
		t.Fatalf("expected no-evidence epoch to reproduce prev model exactly, distance = %v", next.Distance(prev))
	}
}
