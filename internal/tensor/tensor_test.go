package tensor

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Construction Tests

func TestNew_ZeroFilled(t *testing.T) {
	x := New(3)
	assert.Equal(t, 3, x.Size())
	assert.Equal(t, []float64{0, 0, 0}, x.Values())
	assert.False(t, x.IsMatrix())

	rows, cols := x.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 1, cols)
}

func TestFromSlice_Copies(t *testing.T) {
	src := []float64{1, 2, 3}
	x := FromSlice(src)
	src[0] = 99
	assert.Equal(t, 1.0, x.Get(0))
}

func TestFromSlice_RejectsNonFinite(t *testing.T) {
	err := Try(func() { FromSlice([]float64{1, math.NaN()}) })
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Pos)
}

func TestPut_RejectsInf(t *testing.T) {
	x := New(2)
	err := Try(func() { x.Put(0, math.Inf(1)) })
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 0.0, x.Get(0), "rejected writes leave the tensor unchanged")
}

func TestGet_OutOfRange(t *testing.T) {
	x := New(2)
	err := Try(func() { x.Get(2) })
	var oe *OutOfRangeError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "position", oe.Axis)
	assert.Equal(t, 2, oe.Index)
	assert.Equal(t, 2, oe.Bound)

	err = Try(func() { x.Put(-1, 1) })
	require.ErrorAs(t, err, &oe)
}

func TestPutAdd(t *testing.T) {
	for _, x := range []*Tensor{New(3), NewSparse(3)} {
		x.PutAdd(1, 2)
		x.PutAdd(1, 3)
		assert.Equal(t, 5.0, x.Get(1))
		x.PutAdd(1, -5)
		assert.Equal(t, 0.0, x.Get(1))
	}
}

func TestTry_RepanicsNonErrors(t *testing.T) {
	assert.PanicsWithValue(t, "not an error", func() {
		_ = Try(func() { panic("not an error") })
	})
	assert.NoError(t, Try(func() {}))
}

func TestTry_RepanicsRuntimeErrors(t *testing.T) {
	values := []float64{1, 2}
	i := len(values)
	assert.Panics(t, func() {
		_ = Try(func() { _ = values[i] })
	})

	var m map[string]int
	assert.Panics(t, func() {
		_ = Try(func() { m["x"] = 1 })
	})
}

// Matching Tests

func TestIsMatching_Names(t *testing.T) {
	a := New(2).SetName("feature")
	b := New(2).SetName("label")
	c := New(2)

	assert.False(t, a.IsMatching(b))
	assert.True(t, a.IsMatching(c), "unnamed dimensions match any name")
	assert.False(t, a.IsMatching(New(3)))

	err := Try(func() { a.Add(b) })
	var de *DimensionMismatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Add", de.Op)
}

func TestIsMatching_MatrixShape(t *testing.T) {
	a := NewMatrix(2, 3)
	b := NewMatrix(3, 2)
	assert.False(t, a.IsMatching(b), "equal size, different shape")
	assert.True(t, a.IsMatching(New(6)), "flat tensors match by size")
}

// Algebra Tests

func TestAdd_MergesNames(t *testing.T) {
	a := FromSlice([]float64{1, 2})
	b := FromSlice([]float64{3, 4}).SetName("units")
	sum := a.Add(b)
	assert.Equal(t, []float64{4, 6}, sum.Values())
	assert.Equal(t, "units", sum.Name())
}

func TestAddSubtract_Inverse(t *testing.T) {
	cases := []struct {
		name string
		a, b *Tensor
	}{
		{"dense+dense", FromSlice([]float64{1, -2, 3, 0}), FromSlice([]float64{0.5, 0.5, -3, 7})},
		{"dense+sparse", FromSlice([]float64{1, -2, 3, 0}), sparseOf(4, map[int]float64{1: 4, 3: -1})},
		{"sparse+dense", sparseOf(4, map[int]float64{0: 2}), FromSlice([]float64{1, 1, 1, 1})},
		{"sparse+sparse", sparseOf(4, map[int]float64{0: 2, 2: 5}), sparseOf(4, map[int]float64{2: -5, 3: 1})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.a.Add(tc.b).Subtract(tc.b)
			assert.InDeltaSlice(t, tc.a.Values(), got.Values(), 1e-12)
		})
	}
}

func TestMultiply(t *testing.T) {
	a := FromSlice([]float64{1, 2, 3})
	b := sparseOf(3, map[int]float64{1: 10})
	assert.Equal(t, []float64{0, 20, 0}, a.Multiply(b).Values())
	assert.Equal(t, []float64{0, 20, 0}, b.Multiply(a).Values())
	assert.Equal(t, 1, b.Multiply(a).EstimateNonZero())
}

func TestSelfOps_ModifyReceiver(t *testing.T) {
	a := FromSlice([]float64{1, 2})
	b := FromSlice([]float64{3, 4})

	assert.Same(t, a, a.SelfAdd(b))
	assert.Equal(t, []float64{4, 6}, a.Values())
	a.SelfSubtract(b)
	assert.Equal(t, []float64{1, 2}, a.Values())
	a.SelfMultiply(b)
	assert.Equal(t, []float64{3, 8}, a.Values())
	a.SelfMultiplyScalar(0.5)
	assert.Equal(t, []float64{1.5, 4}, a.Values())

	s := sparseOf(2, map[int]float64{0: 2})
	s.SelfAdd(s)
	assert.Equal(t, []float64{4, 0}, s.Values(), "self aliasing")
}

func TestScalarOps(t *testing.T) {
	a := FromSlice([]float64{1, -2})
	assert.Equal(t, []float64{3, -6}, a.MultiplyScalar(3).Values())
	assert.Equal(t, []float64{-1, 2}, a.Negative().Values())
	assert.Equal(t, []float64{2, -1}, a.AddScalar(1).Values())
	assert.Equal(t, []float64{1, 4}, a.Map(func(v float64) float64 { return v * v }).Values())
}

func TestReductions(t *testing.T) {
	a := FromSlice([]float64{3, -4, 0})
	assert.Equal(t, -1.0, a.Sum())
	assert.Equal(t, 5.0, a.Norm())
	assert.Equal(t, 0, a.ArgMax())
	assert.Equal(t, 3.0, a.Max())
	assert.Equal(t, 9.0-8.0, a.Dot(FromSlice([]float64{3, 2, 7})))
	assert.InDelta(t, 2.0/3.0, a.Density(), 1e-12)
}

// Copy Tests

type countingAllocator struct{ calls int }

func (c *countingAllocator) Alloc(n int) []float64 {
	c.calls++
	return make([]float64, n)
}

func TestCopy_Independent(t *testing.T) {
	for _, a := range []*Tensor{FromSlice([]float64{1, 2}), sparseOf(2, map[int]float64{1: 2})} {
		b := a.Copy()
		b.Put(1, 7)
		assert.Equal(t, 2.0, a.Get(1))
		assert.IsType(t, a.Storage(), b.Storage(), "copy keeps the storage kind")
	}
}

func TestCloneIn_UsesAllocator(t *testing.T) {
	alloc := &countingAllocator{}
	src := sparseOf(3, map[int]float64{2: 5}).SetName("n")
	clone := src.CloneIn(alloc)

	assert.Equal(t, 1, alloc.calls)
	assert.IsType(t, &Dense{}, clone.Storage())
	assert.Equal(t, []float64{0, 0, 5}, clone.Values())
	assert.Equal(t, "n", clone.Name())
}

func TestAssign(t *testing.T) {
	dst := sparseOf(3, map[int]float64{0: 1, 1: 1})
	dst.Assign(FromSlice([]float64{0, 0, 4}))
	assert.Equal(t, []float64{0, 0, 4}, dst.Values())
	assert.Equal(t, 1, dst.EstimateNonZero())
}

func TestString(t *testing.T) {
	assert.Equal(t, "[1, 2.5]", FromSlice([]float64{1, 2.5}).String())
	assert.Equal(t, "[1, 2]\n[3, 4]\n", MatrixFromRows([][]float64{{1, 2}, {3, 4}}).String())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "tensor[3]", New(3).Describe())
	assert.Equal(t, `tensor[3 "x"]`, New(3).SetName("x").Describe())
	assert.Equal(t, `matrix[2x3 "batch","feature"]`, NewMatrix(2, 3).SetDimensionNames("batch", "feature").Describe())
}

func TestErrors_Wrappable(t *testing.T) {
	err := errors.Wrap(Try(func() { New(1).Get(3) }), "reading")
	var oe *OutOfRangeError
	assert.ErrorAs(t, err, &oe)
}

func sparseOf(size int, values map[int]float64) *Tensor {
	t := NewSparse(size)
	for pos, v := range values {
		t.Put(pos, v)
	}
	return t
}
