/*
Package psv implements PeptideStateVector, the unit of state the HMM engine
passes from step to step: a dense tensor over (Edman-count, dye-count per
channel), a scalar mass for the detached peptide population, and the
rectangular sub-range of the tensor that is currently live.

Grounded in whatprot's hmm/state-vector/peptide-state-vector.{h,cc}.
*/
package psv

import (
	"github.com/erisyon/gofluoroseq/kdrange"
	"github.com/erisyon/gofluoroseq/tensor"
)

// PSV is a PeptideStateVector: the joint (tensor, detached-mass) state
// propagated by the forward and backward passes.
type PSV struct {
	Tensor        *tensor.Tensor
	Range         kdrange.Range
	PDetached     float64
	AllowDetached bool
}

// New allocates a PSV with the given shape, initially empty (Range collapsed
// to zero-size) and with detached mass disallowed until a step turns it on.
func New(shape []uint) *PSV {
	t := tensor.New(shape)
	zero := make([]uint, len(shape))
	return &PSV{
		Tensor:        t,
		Range:         kdrange.New(zero, zero),
		PDetached:     0,
		AllowDetached: false,
	}
}

// NewInitial builds the forward pass's starting PSV: all mass (1.0) at the
// all-zero cell (zero Edman cleavages, zero dyes remaining in every channel),
// detached mass zero but allowed to grow.
func NewInitial(shape []uint) *PSV {
	return NewInitialAt(shape, make([]uint, len(shape)))
}

// NewInitialAt builds the forward pass's starting PSV with all mass (1.0) at
// cell, generalizing NewInitial to a dye-seq's actual starting dye counts: a
// run starts with zero Edman cleavages (cell[0] == 0) and each channel's
// full initial dye count still present, not zero (spec §4.4 step 3).
func NewInitialAt(shape []uint, cell []uint) *PSV {
	p := New(shape)
	p.Tensor.Set(cell, 1.0)
	p.Range = kdrange.New(cell, addOne(cell))
	p.AllowDetached = true
	return p
}

// NewUnitBackward builds the backward pass's starting PSV: 1.0 at every cell
// within r (the terminal live range) and, if allowDetached, PDetached = 1.0.
func NewUnitBackward(shape []uint, r kdrange.Range, allowDetached bool) *PSV {
	p := New(shape)
	it := tensor.NewScalarIterator(p.Tensor, r)
	for !it.Done() {
		*it.Get() = 1.0
		it.Advance()
	}
	p.Range = r
	p.AllowDetached = allowDetached
	if allowDetached {
		p.PDetached = 1.0
	}
	return p
}

func addOne(loc []uint) []uint {
	out := make([]uint, len(loc))
	for i, v := range loc {
		out[i] = v + 1
	}
	return out
}

// Sum returns the total live mass: the in-range tensor sum plus the detached
// mass when it is allowed to be nonzero. This is the quantity the forward
// and backward invariants in spec §8 are stated over.
func (p *PSV) Sum() float64 {
	total := p.Tensor.SumRange(p.Range)
	if p.AllowDetached {
		total += p.PDetached
	}
	return total
}

// Dot computes the inner product of two PSVs: the sum, over the intersection
// of their live ranges (a cell outside either range contributes zero), of
// the pointwise tensor products, plus the product of
// detached masses when both allow it. Used to verify the ⟨forward,
// backward⟩ = Z invariant in tests.
func Dot(a, b *PSV) float64 {
	r := a.Range.Intersect(b.Range)
	total := 0.0
	ita := tensor.NewScalarIterator(a.Tensor, r)
	itb := tensor.NewScalarIterator(b.Tensor, r)
	for !ita.Done() {
		total += *ita.Get() * *itb.Get()
		ita.Advance()
		itb.Advance()
	}
	if a.AllowDetached && b.AllowDetached {
		total += a.PDetached * b.PDetached
	}
	return total
}

// Add accumulates other into p, pointwise, over the union of their ranges.
// Both PSVs must share the same allocated tensor shape (true of every PSV
// derived from one radiometry's step list); cells outside a PSV's own Range
// are always zero in the underlying buffer, so summing blindly over the
// union is exact without needing to special-case the missing side. Used to
// sum two bleach-channel contributions during the backward pass (spec
// §4.2).
func (p *PSV) Add(other *PSV) {
	union := unionRange(p.Range, other.Range)
	ita := tensor.NewScalarIterator(p.Tensor, union)
	itb := tensor.NewScalarIterator(other.Tensor, union)
	for !ita.Done() {
		*ita.Get() += *itb.Get()
		ita.Advance()
		itb.Advance()
	}
	p.Range = union
	p.PDetached += other.PDetached
	p.AllowDetached = p.AllowDetached || other.AllowDetached
}

func unionRange(a, b kdrange.Range) kdrange.Range {
	out := kdrange.Range{Min: make([]uint, a.Order()), Max: make([]uint, a.Order())}
	for i := range a.Min {
		lo := a.Min[i]
		if b.Min[i] < lo {
			lo = b.Min[i]
		}
		hi := a.Max[i]
		if b.Max[i] > hi {
			hi = b.Max[i]
		}
		out.Min[i] = lo
		out.Max[i] = hi
	}
	return out
}

// Clone returns a deep copy of the PSV.
func (p *PSV) Clone() *PSV {
	return &PSV{
		Tensor:        p.Tensor.Clone(),
		Range:         p.Range.Clone(),
		PDetached:     p.PDetached,
		AllowDetached: p.AllowDetached,
	}
}
