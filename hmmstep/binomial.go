package hmmstep

import (
	"github.com/erisyon/gofluoroseq/kdrange"
	"github.com/erisyon/gofluoroseq/psv"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
	"github.com/erisyon/gofluoroseq/tensor"
)

// Kind distinguishes the two BinomialTransition instantiations so
// ImproveFit can credit the right fitter accumulator.
type Kind int

const (
	// KindDud models a dye that never fluoresces from the start.
	KindDud Kind = iota
	// KindBleach models irreversible photodamage during one Edman cycle.
	KindBleach
)

// BinomialTransition models independent per-dye loss along one channel's
// axis with retention probability Q (loss probability 1-Q). Both
// DudTransition and BleachTransition are instances of this template,
// grounded in whatprot's hmm/step/binomial-transition.{h,cc} (spec §4.3.1).
type BinomialTransition struct {
	Q       float64
	Channel int
	Kind    Kind

	// table holds B(i, j), the probability that exactly j of i dyes
	// survive, as a triangular array: table[i] has length i+1.
	table [][]float64

	forwardRange  kdrange.Range
	backwardRange kdrange.Range
}

// NewDudTransition builds a BinomialTransition modeling dud probability
// pDud on the given channel.
func NewDudTransition(pDud float64, channel int) *BinomialTransition {
	return newBinomialTransition(1-pDud, channel, KindDud)
}

// NewBleachTransition builds a BinomialTransition modeling bleach
// probability pBleach on the given channel.
func NewBleachTransition(pBleach float64, channel int) *BinomialTransition {
	return newBinomialTransition(1-pBleach, channel, KindBleach)
}

func newBinomialTransition(q float64, channel int, kind Kind) *BinomialTransition {
	b := &BinomialTransition{
		Q:       q,
		Channel: channel,
		Kind:    kind,
		table:   [][]float64{{1.0}},
	}
	return b
}

// Reserve grows the triangular probability table up to i = maxN, following
// the recurrence B(i,0) = B(i-1,0)*p, B(i,j) = B(i-1,j)*p + B(i-1,j-1)*q for
// 0<j<i, B(i,i) = B(i-1,i-1)*q, B(0,0) = 1, where q = Q is the per-dye
// survival probability and p = 1-Q the per-dye loss probability.
func (b *BinomialTransition) Reserve(maxN uint) {
	if int(maxN)+1 <= len(b.table) {
		return
	}
	p := 1 - b.Q
	for i := len(b.table); i <= int(maxN); i++ {
		row := make([]float64, i+1)
		prev := b.table[i-1]
		row[0] = prev[0] * p
		for j := 1; j < i; j++ {
			row[j] = prev[j]*p + prev[j-1]*b.Q
		}
		row[i] = prev[i-1] * b.Q
		b.table = append(b.table, row)
	}
}

func (b *BinomialTransition) prob(from, to uint) float64 {
	return b.table[from][to]
}

func (b *BinomialTransition) axis() int {
	return 1 + b.Channel
}

// PruneForward implements Step: bleaches (and duds) can only decrease
// counts, so forward_range is the unmodified input, and backward_range
// widens the possibility down to zero on this axis.
func (b *BinomialTransition) PruneForward(r *kdrange.Range, allowDetached *bool) {
	b.forwardRange = r.Clone()
	next := r.Clone()
	next.Min[b.axis()] = 0
	b.backwardRange = next
	*r = next
}

// PruneBackward implements Step: intersects backward_range with the tail
// live region, then widens the axis upward so every source that could have
// produced a live target is included in forward_range.
func (b *BinomialTransition) PruneBackward(r *kdrange.Range, allowDetached *bool) {
	b.backwardRange = b.backwardRange.Intersect(*r)
	*r = b.backwardRange
	widened := r.Clone()
	widened.Max[b.axis()] = kdrange.MaxUint
	b.forwardRange = b.forwardRange.Intersect(widened)
	*r = b.forwardRange
}

// Forward implements Step.
func (b *BinomialTransition) Forward(numEdmans *int, p *psv.PSV) {
	axis := b.axis()
	toMin, toMax := b.backwardRange.Min[axis], b.backwardRange.Max[axis]
	fromMinBound, fromMax := b.forwardRange.Min[axis], b.forwardRange.Max[axis]

	it := tensor.NewOuterIterator(p.Tensor, b.forwardRange, axis)
	for !it.Done() {
		loc := it.Loc()
		for to := toMin; to < toMax; to++ {
			fromMin := fromMinBound
			if to > fromMin {
				fromMin = to
			}
			total := 0.0
			for from := fromMin; from < fromMax; from++ {
				loc[axis] = from
				total += b.prob(from, to) * p.Tensor.At(loc)
			}
			loc[axis] = to
			p.Tensor.Set(loc, total)
		}
		it.Advance()
	}
	p.Range = b.backwardRange
}

// Backward implements Step.
func (b *BinomialTransition) Backward(input *psv.PSV, numEdmans int, output *psv.PSV) {
	axis := b.axis()
	fromMin, fromMax := b.forwardRange.Min[axis], b.forwardRange.Max[axis]
	toMinBound, toMaxBound := b.backwardRange.Min[axis], b.backwardRange.Max[axis]

	it := tensor.NewOuterIterator(input.Tensor, b.forwardRange, axis)
	for !it.Done() {
		loc := it.Loc()
		for from := fromMax; from > fromMin; from-- {
			f := from - 1
			toMax := toMaxBound
			if f+1 < toMax {
				toMax = f + 1
			}
			total := 0.0
			for to := toMinBound; to < toMax; to++ {
				loc[axis] = to
				total += b.prob(f, to) * input.Tensor.At(loc)
			}
			loc[axis] = f
			output.Tensor.Set(loc, total)
		}
		it.Advance()
	}
	output.Range = b.forwardRange
	output.PDetached = input.PDetached
	output.AllowDetached = input.AllowDetached
}

// ImproveFit implements Step.
func (b *BinomialTransition) ImproveFit(forward, backward, nextBackward *psv.PSV, numEdmans int, z float64, fitter *sequencingmodel.Fitter) {
	target := &fitter.Channels[b.Channel].PDud
	if b.Kind == KindBleach {
		target = &fitter.Channels[b.Channel].PBleach
	}
	axis := b.axis()

	fMin, fMax := b.forwardRange.Min[axis], b.forwardRange.Max[axis]
	it := tensor.NewOuterIterator(forward.Tensor, b.forwardRange, axis)
	for !it.Done() {
		loc := it.Loc()
		for f := fMax; f > fMin; f-- {
			f := f - 1
			if f == 0 {
				continue
			}
			loc[axis] = f
			fv := forward.Tensor.At(loc)
			bv := backward.Tensor.At(loc)
			pState := fv * bv / z
			target.Denominator += pState * float64(f)

			toMax := b.backwardRange.Max[axis]
			if f < toMax {
				toMax = f
			}
			for to := b.backwardRange.Min[axis]; to < toMax; to++ {
				loc[axis] = to
				nbv := nextBackward.Tensor.At(loc)
				pTrans := fv * b.prob(f, to) * nbv / z
				target.Numerator += pTrans * float64(f-to)
			}
			loc[axis] = f
		}
		it.Advance()
	}
}
