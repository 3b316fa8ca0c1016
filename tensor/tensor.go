/*
Package tensor implements the dense, order-(1+C) array at the core of the
fluorosequencing HMM: a contiguous row-major buffer holding the unnormalized
probability mass at every (Edman-count, dye-count[0], ..., dye-count[C-1])
cell. The rectangular sub-range of currently live cells is not stored on the
Tensor; callers pass a kdrange.Range to the range-aware helpers and
iterators (psv.PSV keeps it alongside its Tensor).

Ported from whatprot's tensor/tensor.{h,cc}, reshaped around Go slices
instead of raw owning pointers, per the "raw owning arrays" design note: a
Tensor owns one []float64 and indexes into it with bounds-checked helpers.
*/
package tensor

import (
	"fmt"

	"github.com/erisyon/gofluoroseq/kdrange"
)

// Tensor is a dense array of shape Shape, addressed by a multi-index of
// length Order. Strides are row-major: the last axis has stride 1.
type Tensor struct {
	Shape   []uint
	Strides []int
	Values  []float64
}

// New allocates a zeroed tensor with the given shape.
func New(shape []uint) *Tensor {
	order := len(shape)
	t := &Tensor{
		Shape:   append([]uint(nil), shape...),
		Strides: make([]int, order),
	}
	size := 1
	for i := order - 1; i >= 0; i-- {
		t.Strides[i] = size
		size *= int(shape[i])
	}
	t.Values = make([]float64, size)
	return t
}

// NewFromRange allocates a tensor sized and strided to exactly cover r
// (whatprot's `Tensor(const KDRange&)` constructor). The HMM driver does not
// use it: its forward and backward PSVs are allocated at the full shape.
func NewFromRange(r kdrange.Range) *Tensor {
	shape := make([]uint, r.Order())
	for i := range shape {
		shape[i] = r.Max[i] - r.Min[i]
	}
	return New(shape)
}

// Order returns the number of axes.
func (t *Tensor) Order() int {
	return len(t.Shape)
}

// index converts a multi-index (relative to the tensor's own min, which is
// always the origin for an undisplaced Tensor) into a flat buffer offset.
func (t *Tensor) index(loc []uint) int {
	if len(loc) != t.Order() {
		panic(fmt.Sprintf("tensor: index order mismatch: %d vs %d", len(loc), t.Order()))
	}
	idx := 0
	for i, l := range loc {
		if l >= t.Shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of bounds (shape %d) on axis %d", l, t.Shape[i], i))
		}
		idx += t.Strides[i] * int(l)
	}
	return idx
}

// At returns the value at loc.
func (t *Tensor) At(loc []uint) float64 {
	return t.Values[t.index(loc)]
}

// Set stores v at loc.
func (t *Tensor) Set(loc []uint, v float64) {
	t.Values[t.index(loc)] = v
}

// Ptr returns a pointer to the cell at loc, for in-place accumulation.
func (t *Tensor) Ptr(loc []uint) *float64 {
	return &t.Values[t.index(loc)]
}

// Sum returns the total of every allocated cell, including cells outside any
// caller-tracked live range.
func (t *Tensor) Sum() float64 {
	total := 0.0
	for _, v := range t.Values {
		total += v
	}
	return total
}

// SumRange returns the total of cells within r (r must be expressed in this
// tensor's own index space, i.e. already offset to an origin of zero).
func (t *Tensor) SumRange(r kdrange.Range) float64 {
	total := 0.0
	it := NewScalarIterator(t, r)
	for !it.Done() {
		total += *it.Get()
		it.Advance()
	}
	return total
}

// Scale multiplies every cell in r by factor, in place.
func (t *Tensor) Scale(r kdrange.Range, factor float64) {
	it := NewScalarIterator(t, r)
	for !it.Done() {
		*it.Get() *= factor
		it.Advance()
	}
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{
		Shape:   append([]uint(nil), t.Shape...),
		Strides: append([]int(nil), t.Strides...),
		Values:  append([]float64(nil), t.Values...),
	}
	return out
}
