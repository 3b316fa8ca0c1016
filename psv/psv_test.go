package psv

import (
	"testing"

	"github.com/erisyon/gofluoroseq/kdrange"
)

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestNewInitialMassOne(t *testing.T) {
	p := NewInitial([]uint{3, 4})
	if got := p.Sum(); !approxEqual(got, 1.0, 1e-12) {
		t.Fatalf("Sum() = %v, want 1.0", got)
	}
	if got := p.Tensor.At([]uint{0, 0}); got != 1.0 {
		t.Fatalf("initial cell = %v, want 1.0", got)
	}
}

func TestNewUnitBackwardWithDetach(t *testing.T) {
	shape := []uint{2, 2}
	r := kdrange.Full(shape)
	p := NewUnitBackward(shape, r, true)
	if p.PDetached != 1.0 {
		t.Fatalf("PDetached = %v, want 1.0", p.PDetached)
	}
	if got := p.Tensor.Sum(); got != 4.0 {
		t.Fatalf("tensor sum = %v, want 4.0", got)
	}
}

func TestDotConservesAgainstItself(t *testing.T) {
	p := NewInitial([]uint{2, 2})
	if got := Dot(p, p); !approxEqual(got, 1.0, 1e-12) {
		t.Fatalf("Dot(p, p) = %v, want 1.0", got)
	}
}

func TestAddUnion(t *testing.T) {
	shape := []uint{2, 3}
	a := New(shape)
	a.Tensor.Set([]uint{0, 0}, 1.0)
	a.Range = kdrange.New([]uint{0, 0}, []uint{1, 1})
	a.PDetached = 0.1
	a.AllowDetached = true

	b := New(shape)
	b.Tensor.Set([]uint{1, 2}, 2.0)
	b.Range = kdrange.New([]uint{1, 2}, []uint{2, 3})
	b.PDetached = 0.2
	b.AllowDetached = true

	a.Add(b)

	if got := a.Tensor.At([]uint{0, 0}); got != 1.0 {
		t.Fatalf("a[0,0] = %v, want 1.0", got)
	}
	if got := a.Tensor.At([]uint{1, 2}); got != 2.0 {
		t.Fatalf("a[1,2] = %v, want 2.0", got)
	}
	if !approxEqual(a.PDetached, 0.3, 1e-12) {
		t.Fatalf("PDetached = %v, want 0.3", a.PDetached)
	}
	if a.Range.Min[0] != 0 || a.Range.Max[0] != 2 || a.Range.Min[1] != 0 || a.Range.Max[1] != 3 {
		t.Fatalf("unexpected union range: %+v", a.Range)
	}
}
