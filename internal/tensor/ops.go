package tensor

import (
	"iter"
	"math"
	"slices"
)

// Add returns t + other.
func (t *Tensor) Add(other *Tensor) *Tensor {
	t.AssertMatching("Add", other)
	if a, b, ok := densePair(t, other); ok {
		out := DenseLike(nil, t)
		od := out.store.(*Dense).data
		for i := range a {
			od[i] = finite(i, a[i]+b[i])
		}
		return out.mergeNames(other)
	}
	// Copy the denser operand, iterate the sparser one.
	base, drive := t, other
	if t.EstimateNonZero() < other.EstimateNonZero() {
		base, drive = other, t
	}
	out := base.Copy()
	out.copyLayout(t)
	for pos := range drive.store.NonZero() {
		out.store.Put(pos, finite(pos, out.store.Get(pos)+drive.store.Get(pos)))
	}
	return out.mergeNames(other)
}

// Subtract returns t - other.
func (t *Tensor) Subtract(other *Tensor) *Tensor {
	t.AssertMatching("Subtract", other)
	if a, b, ok := densePair(t, other); ok {
		out := DenseLike(nil, t)
		od := out.store.(*Dense).data
		for i := range a {
			od[i] = finite(i, a[i]-b[i])
		}
		return out.mergeNames(other)
	}
	if t.EstimateNonZero() < other.EstimateNonZero() {
		out := other.Negative()
		out.copyLayout(t)
		for pos := range t.store.NonZero() {
			out.store.Put(pos, finite(pos, out.store.Get(pos)+t.store.Get(pos)))
		}
		return out.mergeNames(other)
	}
	out := t.Copy()
	for pos := range other.store.NonZero() {
		out.store.Put(pos, finite(pos, out.store.Get(pos)-other.store.Get(pos)))
	}
	return out.mergeNames(other)
}

// Multiply returns the elementwise product of t and other.
func (t *Tensor) Multiply(other *Tensor) *Tensor {
	t.AssertMatching("Multiply", other)
	if a, b, ok := densePair(t, other); ok {
		out := DenseLike(nil, t)
		od := out.store.(*Dense).data
		for i := range a {
			od[i] = finite(i, a[i]*b[i])
		}
		return out.mergeNames(other)
	}
	drive, with := t, other
	if other.EstimateNonZero() < t.EstimateNonZero() {
		drive, with = other, t
	}
	out := drive.ZeroCopy()
	out.copyLayout(t)
	for pos := range drive.store.NonZero() {
		if v := drive.store.Get(pos) * with.store.Get(pos); v != 0 {
			out.store.Put(pos, finite(pos, v))
		}
	}
	return out.mergeNames(other)
}

// SelfAdd adds other into t and returns t.
func (t *Tensor) SelfAdd(other *Tensor) *Tensor {
	t.AssertMatching("SelfAdd", other)
	if a, b, ok := densePair(t, other); ok {
		for i := range a {
			a[i] = finite(i, a[i]+b[i])
		}
		return t
	}
	for pos := range t.positionsOf(other) {
		t.store.Put(pos, finite(pos, t.store.Get(pos)+other.store.Get(pos)))
	}
	return t
}

// SelfSubtract subtracts other from t and returns t.
func (t *Tensor) SelfSubtract(other *Tensor) *Tensor {
	t.AssertMatching("SelfSubtract", other)
	if a, b, ok := densePair(t, other); ok {
		for i := range a {
			a[i] = finite(i, a[i]-b[i])
		}
		return t
	}
	for pos := range t.positionsOf(other) {
		t.store.Put(pos, finite(pos, t.store.Get(pos)-other.store.Get(pos)))
	}
	return t
}

// SelfMultiply multiplies t elementwise by other and returns t.
func (t *Tensor) SelfMultiply(other *Tensor) *Tensor {
	t.AssertMatching("SelfMultiply", other)
	if a, b, ok := densePair(t, other); ok {
		for i := range a {
			a[i] = finite(i, a[i]*b[i])
		}
		return t
	}
	// Only positions non-zero in t can change.
	for _, pos := range nonZeroSnapshot(t.store) {
		t.store.Put(pos, finite(pos, t.store.Get(pos)*other.store.Get(pos)))
	}
	return t
}

// MultiplyScalar returns t * s.
func (t *Tensor) MultiplyScalar(s float64) *Tensor {
	out := t.ZeroCopy()
	if s == 0 {
		return out
	}
	for pos := range t.store.NonZero() {
		out.store.Put(pos, finite(pos, t.store.Get(pos)*s))
	}
	return out
}

// SelfMultiplyScalar scales t in place and returns it.
func (t *Tensor) SelfMultiplyScalar(s float64) *Tensor {
	if d, ok := t.store.(*Dense); ok {
		for i := range d.data {
			d.data[i] = finite(i, d.data[i]*s)
		}
		return t
	}
	for _, pos := range nonZeroSnapshot(t.store) {
		t.store.Put(pos, finite(pos, t.store.Get(pos)*s))
	}
	return t
}

// AddScalar returns a dense tensor holding t + s.
func (t *Tensor) AddScalar(s float64) *Tensor {
	out := DenseLike(nil, t)
	od := out.store.(*Dense).data
	for i := range od {
		od[i] = finite(i, t.store.Get(i)+s)
	}
	return out
}

// Negative returns -t.
func (t *Tensor) Negative() *Tensor {
	return t.MultiplyScalar(-1)
}

// Map returns a dense tensor holding f applied to every element.
func (t *Tensor) Map(f func(float64) float64) *Tensor {
	return t.MapIn(nil, f)
}

// MapIn is Map with the result drawn from a.
func (t *Tensor) MapIn(a Allocator, f func(float64) float64) *Tensor {
	out := DenseLike(a, t)
	od := out.store.(*Dense).data
	if d, ok := t.store.(*Dense); ok {
		for i, v := range d.data {
			od[i] = finite(i, f(v))
		}
		return out
	}
	for i := range od {
		od[i] = finite(i, f(t.store.Get(i)))
	}
	return out
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	sum := 0.0
	for pos := range t.store.NonZero() {
		sum += t.store.Get(pos)
	}
	return sum
}

// Dot returns the inner product of t and other.
func (t *Tensor) Dot(other *Tensor) float64 {
	t.AssertMatching("Dot", other)
	drive, with := t, other
	if other.EstimateNonZero() < t.EstimateNonZero() {
		drive, with = other, t
	}
	sum := 0.0
	for pos := range drive.store.NonZero() {
		sum += drive.store.Get(pos) * with.store.Get(pos)
	}
	return sum
}

// Norm returns the L2 norm.
func (t *Tensor) Norm() float64 {
	sum := 0.0
	for pos := range t.store.NonZero() {
		v := t.store.Get(pos)
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Max returns the largest element.
func (t *Tensor) Max() float64 {
	return t.Get(t.ArgMax())
}

// ArgMax returns the position of the largest element (first on ties).
func (t *Tensor) ArgMax() int {
	if t.Size() == 0 {
		panic(&OutOfRangeError{Axis: "position", Index: 0, Bound: 0})
	}
	best, bestPos := t.store.Get(0), 0
	for i := 1; i < t.Size(); i++ {
		if v := t.store.Get(i); v > best {
			best, bestPos = v, i
		}
	}
	return bestPos
}

// Values returns a dense copy of all elements in flat order.
func (t *Tensor) Values() []float64 {
	out := make([]float64, t.Size())
	for pos := range t.store.NonZero() {
		out[pos] = t.store.Get(pos)
	}
	return out
}

// positionsOf yields the positions of other to visit when writing into t,
// snapshotting first when both share storage.
func (t *Tensor) positionsOf(other *Tensor) iter.Seq[int] {
	if t.store == other.store {
		return slices.Values(nonZeroSnapshot(other.store))
	}
	return other.store.NonZero()
}

func (t *Tensor) mergeNames(other *Tensor) *Tensor {
	if t.name == "" {
		t.name = other.name
	}
	if !t.IsMatrix() {
		return t
	}
	if t.rowName == "" {
		t.rowName = other.rowName
	}
	if t.colName == "" {
		t.colName = other.colName
	}
	return t
}

func densePair(a, b *Tensor) ([]float64, []float64, bool) {
	da, ok := a.store.(*Dense)
	if !ok {
		return nil, nil, false
	}
	db, ok := b.store.(*Dense)
	if !ok {
		return nil, nil, false
	}
	return da.data, db.data, true
}
