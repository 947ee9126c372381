package tensor

import (
	"fmt"
	"iter"
	"math"
	"slices"
)

// Tensor is a fixed-size numeric container. A Tensor with a 2D shape is a
// matrix whose element (row, col) lives at flat position row + col*rows.
//
// The size never changes after construction. Views returned by Transposed,
// Row, Col, Range, AsRows and AsCols alias the storage they come from.
type Tensor struct {
	store Storage
	name  string

	// Matrix shape; both zero for flat tensors.
	rows, cols       int
	rowName, colName string
}

// New creates a dense, zero-filled tensor.
func New(size int) *Tensor {
	return Wrap(NewDenseStorage(make([]float64, size)))
}

// NewSparse creates an empty sparse tensor.
func NewSparse(size int) *Tensor {
	return Wrap(NewSparseStorage(size))
}

// FromSlice creates a dense tensor holding a copy of values.
// Panics with *ValueError if any value is not finite.
func FromSlice(values []float64) *Tensor {
	t := New(len(values))
	for i, v := range values {
		t.Put(i, v)
	}
	return t
}

// Wrap creates a flat tensor over existing storage.
func Wrap(s Storage) *Tensor {
	return &Tensor{store: s}
}

// DenseLike creates a zero-filled dense tensor with the shape and names of
// t, drawing its backing slice from a (heap when a is nil).
func DenseLike(a Allocator, t *Tensor) *Tensor {
	out := Wrap(NewDenseStorage(alloc(a, t.Size())))
	out.copyLayout(t)
	return out
}

// Storage returns the backing storage.
func (t *Tensor) Storage() Storage { return t.store }

// Size returns the number of elements.
func (t *Tensor) Size() int { return t.store.Len() }

// Name returns the dimension name, empty if unset.
func (t *Tensor) Name() string { return t.name }

// SetName sets the dimension name checked by binary operations.
func (t *Tensor) SetName(name string) *Tensor {
	t.name = name
	return t
}

// IsMatrix reports whether t has a 2D shape.
func (t *Tensor) IsMatrix() bool { return t.rows > 0 || t.cols > 0 }

// Rows returns the number of rows (0 for flat tensors).
func (t *Tensor) Rows() int { return t.rows }

// Cols returns the number of columns (0 for flat tensors).
func (t *Tensor) Cols() int { return t.cols }

// Dims returns rows and cols. Flat tensors report (size, 1).
func (t *Tensor) Dims() (int, int) {
	if !t.IsMatrix() {
		return t.Size(), 1
	}
	return t.rows, t.cols
}

// RowName returns the row dimension name.
func (t *Tensor) RowName() string { return t.rowName }

// ColName returns the column dimension name.
func (t *Tensor) ColName() string { return t.colName }

// SetDimensionNames names the row and column dimensions of a matrix.
func (t *Tensor) SetDimensionNames(rowName, colName string) *Tensor {
	t.rowName, t.colName = rowName, colName
	return t
}

// Describe returns a short human readable description of the shape.
func (t *Tensor) Describe() string {
	if !t.IsMatrix() {
		if t.name != "" {
			return fmt.Sprintf("tensor[%d %q]", t.Size(), t.name)
		}
		return fmt.Sprintf("tensor[%d]", t.Size())
	}
	s := fmt.Sprintf("matrix[%dx%d", t.rows, t.cols)
	if t.rowName != "" || t.colName != "" {
		s += fmt.Sprintf(" %q,%q", t.rowName, t.colName)
	}
	return s + "]"
}

// Get returns the element at flat position pos.
func (t *Tensor) Get(pos int) float64 {
	t.checkPos(pos)
	return t.store.Get(pos)
}

// Put stores value at flat position pos.
func (t *Tensor) Put(pos int, value float64) {
	t.checkPos(pos)
	t.store.Put(pos, finite(pos, value))
}

// PutAdd adds value to the element at flat position pos.
func (t *Tensor) PutAdd(pos int, value float64) {
	t.checkPos(pos)
	t.store.Put(pos, finite(pos, t.store.Get(pos)+value))
}

// NonZero yields positions that may hold non-zero values.
func (t *Tensor) NonZero() iter.Seq[int] { return t.store.NonZero() }

// EstimateNonZero returns an upper estimate of the non-zero count.
func (t *Tensor) EstimateNonZero() int {
	return min(t.store.EstimateNonZero(), t.Size())
}

// Density returns the fraction of elements that are non-zero.
func (t *Tensor) Density() float64 {
	if t.Size() == 0 {
		return 0
	}
	n := 0
	for pos := range t.store.NonZero() {
		if t.store.Get(pos) != 0 {
			n++
		}
	}
	return float64(n) / float64(t.Size())
}

// IsMatching reports whether t and other can be combined elementwise:
// equal size, compatible dimension names, and equal shape when both are
// matrices.
func (t *Tensor) IsMatching(other *Tensor) bool {
	if t.Size() != other.Size() || !namesMatch(t.name, other.name) {
		return false
	}
	if t.IsMatrix() && other.IsMatrix() {
		return t.rows == other.rows && t.cols == other.cols &&
			namesMatch(t.rowName, other.rowName) && namesMatch(t.colName, other.colName)
	}
	return true
}

// AssertMatching panics with *DimensionMismatchError unless IsMatching holds.
func (t *Tensor) AssertMatching(op string, other *Tensor) {
	if !t.IsMatching(other) {
		panic(mismatch(op, t, other))
	}
}

// ZeroCopy returns an all-zero tensor with the same storage kind, shape and
// dimension names.
func (t *Tensor) ZeroCopy() *Tensor {
	out := Wrap(t.store.ZeroCopy(t.Size()))
	out.copyLayout(t)
	return out
}

// ZeroCopySize returns an all-zero flat tensor of the given size with the
// same storage kind and dimension name.
func (t *Tensor) ZeroCopySize(size int) *Tensor {
	out := Wrap(t.store.ZeroCopy(size))
	out.name = t.name
	return out
}

// ZeroCopyMatrix returns an all-zero rows×cols matrix with the same storage
// kind and dimension names.
func (t *Tensor) ZeroCopyMatrix(rows, cols int) *Tensor {
	out := Wrap(t.store.ZeroCopy(rows * cols))
	out.name = t.name
	out.rows, out.cols = rows, cols
	out.rowName, out.colName = t.rowName, t.colName
	return out
}

// Copy returns a deep copy with the same storage kind, shape and names.
func (t *Tensor) Copy() *Tensor {
	out := t.ZeroCopy()
	out.copyValues(t)
	return out
}

// CloneIn returns a dense copy of t backed by a (heap when a is nil).
func (t *Tensor) CloneIn(a Allocator) *Tensor {
	out := DenseLike(a, t)
	out.copyValues(t)
	return out
}

// Assign overwrites the contents of t with those of src.
func (t *Tensor) Assign(src *Tensor) *Tensor {
	t.AssertMatching("Assign", src)
	if d, ok := t.store.(*Dense); ok {
		clear(d.data)
	} else {
		for _, pos := range slices.Collect(t.store.NonZero()) {
			t.store.Put(pos, 0)
		}
	}
	t.copyValues(src)
	return t
}

func (t *Tensor) copyValues(src *Tensor) {
	if d, ok := t.store.(*Dense); ok {
		if s, ok := src.store.(*Dense); ok {
			copy(d.data, s.data)
			return
		}
	}
	for pos := range src.store.NonZero() {
		t.store.Put(pos, src.store.Get(pos))
	}
}

func (t *Tensor) copyLayout(src *Tensor) {
	t.name = src.name
	t.rows, t.cols = src.rows, src.cols
	t.rowName, t.colName = src.rowName, src.colName
}

func (t *Tensor) checkPos(pos int) {
	if pos < 0 || pos >= t.Size() {
		panic(&OutOfRangeError{Axis: "position", Index: pos, Bound: t.Size()})
	}
}

// nonZeroSnapshot collects positions up front so the caller may write to
// the same storage while visiting them.
func nonZeroSnapshot(s Storage) []int {
	return slices.Collect(s.NonZero())
}

func finite(pos int, v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		panic(&ValueError{Pos: pos, Value: v})
	}
	return v
}

func namesMatch(a, b string) bool {
	return a == "" || b == "" || a == b
}
