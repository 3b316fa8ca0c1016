package tensor

import "github.com/erisyon/gofluoroseq/kdrange"

// ScalarIterator walks every cell of a Tensor within a KDRange in row-major
// order, mirroring whatprot's TensorIterator/ConstTensorIterator. Unlike the
// original, it is a stack-allocated struct (the "iterator lifecycle" design
// note) rather than a heap-owned object requiring explicit deletion.
type ScalarIterator struct {
	t       *Tensor
	rng     kdrange.Range
	loc     []uint
	offset  int
	done    bool
}

// NewScalarIterator builds an iterator over r within t.
func NewScalarIterator(t *Tensor, r kdrange.Range) *ScalarIterator {
	it := &ScalarIterator{
		t:   t,
		rng: r,
		loc: append([]uint(nil), r.Min...),
	}
	if r.Empty() {
		it.done = true
		return it
	}
	it.offset = t.index(it.loc)
	return it
}

// Done reports whether iteration has finished.
func (it *ScalarIterator) Done() bool {
	return it.done
}

// Get returns a pointer to the current cell.
func (it *ScalarIterator) Get() *float64 {
	return &it.t.Values[it.offset]
}

// Advance moves to the next cell in row-major order (the last axis moves
// fastest), recomputing the flat offset incrementally via strides.
func (it *ScalarIterator) Advance() {
	order := it.t.Order()
	for axis := order - 1; axis >= 0; axis-- {
		it.loc[axis]++
		it.offset += it.t.Strides[axis]
		if it.loc[axis] < it.rng.Max[axis] {
			return
		}
		it.offset -= it.t.Strides[axis] * int(it.loc[axis]-it.rng.Min[axis])
		it.loc[axis] = it.rng.Min[axis]
	}
	it.done = true
}

// Vector is a strided one-dimensional view into a Tensor's buffer: the
// sequence of cells obtained by walking a single axis while every other
// index is held fixed. It corresponds to whatprot's tensor/vector.h.
type Vector struct {
	values []float64
	base   int
	stride int
	length int
}

// Len returns the number of elements in the vector.
func (v Vector) Len() int {
	return v.length
}

// At returns the i'th element along the vector's axis.
func (v Vector) At(i int) float64 {
	return v.values[v.base+i*v.stride]
}

// Set stores x as the i'th element along the vector's axis.
func (v Vector) Set(i int, x float64) {
	v.values[v.base+i*v.stride] = x
}

// VectorIterator walks a KDRange with one axis ("the vector dimension") held
// out: each Advance moves the outer indices to the next combination while
// the vector dimension spans its own full range.
type VectorIterator struct {
	t      *Tensor
	rng    kdrange.Range
	axis   int
	loc    []uint
	offset int
	done   bool
}

// NewVectorIterator builds a VectorIterator over r, walking along axis.
func NewVectorIterator(t *Tensor, r kdrange.Range, axis int) *VectorIterator {
	it := &VectorIterator{t: t, rng: r, axis: axis, loc: append([]uint(nil), r.Min...)}
	if r.Empty() {
		it.done = true
		return it
	}
	it.offset = t.index(it.loc)
	return it
}

// Done reports whether iteration has finished.
func (it *VectorIterator) Done() bool {
	return it.done
}

// Get returns the Vector at the current outer position.
func (it *VectorIterator) Get() Vector {
	return Vector{
		values: it.t.Values,
		base:   it.offset,
		stride: it.t.Strides[it.axis],
		length: int(it.rng.Max[it.axis] - it.rng.Min[it.axis]),
	}
}

// Advance moves to the next outer index combination, skipping the vector
// axis (which Get already spans in full).
func (it *VectorIterator) Advance() {
	order := it.t.Order()
	for axis := order - 1; axis >= 0; axis-- {
		if axis == it.axis {
			continue
		}
		it.loc[axis]++
		it.offset += it.t.Strides[axis]
		if it.loc[axis] < it.rng.Max[axis] {
			return
		}
		it.offset -= it.t.Strides[axis] * int(it.loc[axis]-it.rng.Min[axis])
		it.loc[axis] = it.rng.Min[axis]
	}
	it.done = true
}

// OuterIterator enumerates every combination of indices over all axes of a
// KDRange except one distinguished `axis`, exposing the live multi-index so
// the caller can vary that axis freely (including outside the range's own
// bound on it) before reading or writing through the tensor directly. This
// is the access pattern the binomial, Edman and block step operators need:
// they address a channel or Edman axis with bounds that differ from the
// outer iteration range (spec §4.3.1's "from"/"to" bounds), so a plain
// VectorIterator's fixed-length view does not fit.
type OuterIterator struct {
	t        *Tensor
	rng      kdrange.Range
	excluded map[int]bool
	loc      []uint
	done     bool
}

// NewOuterIterator builds an OuterIterator over r, excluding the given axes
// (one axis for the binomial transitions and for Edman, which excludes the
// Edman-count axis and reads the shifted channel axis through loc itself;
// none when every cell is visited on its own, as in emission).
func NewOuterIterator(t *Tensor, r kdrange.Range, excludeAxes ...int) *OuterIterator {
	excluded := make(map[int]bool, len(excludeAxes))
	for _, a := range excludeAxes {
		excluded[a] = true
	}
	it := &OuterIterator{t: t, rng: r, excluded: excluded, loc: append([]uint(nil), r.Min...)}
	if r.Empty() {
		it.done = true
	}
	return it
}

// Done reports whether iteration has finished.
func (it *OuterIterator) Done() bool {
	return it.done
}

// Loc returns the current multi-index. Entries at excluded axes are cue
// values only (left at the range's lower bound); callers address
// t.At/t.Set/t.Ptr after overwriting those entries themselves.
func (it *OuterIterator) Loc() []uint {
	return it.loc
}

// Advance moves to the next outer index combination.
func (it *OuterIterator) Advance() {
	order := it.t.Order()
	for axis := order - 1; axis >= 0; axis-- {
		if it.excluded[axis] {
			continue
		}
		it.loc[axis]++
		if it.loc[axis] < it.rng.Max[axis] {
			return
		}
		it.loc[axis] = it.rng.Min[axis]
	}
	it.done = true
}
