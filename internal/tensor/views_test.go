package tensor

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransposed_Aliases(t *testing.T) {
	m := MatrixFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	tr := m.Transposed()
	require.Equal(t, 3, tr.Rows())
	require.Equal(t, 2, tr.Cols())
	assert.Equal(t, 4.0, tr.At(0, 1))

	tr.Set(2, 0, 30)
	assert.Equal(t, 30.0, m.At(0, 2))
	assert.Equal(t, m.Values(), tr.Transposed().Values())
}

func TestTransposed_SwapsNames(t *testing.T) {
	m := NewMatrix(2, 3).SetDimensionNames("batch", "feature")
	tr := m.Transposed()
	assert.Equal(t, "feature", tr.RowName())
	assert.Equal(t, "batch", tr.ColName())
}

func TestTransposed_SparseNonZero(t *testing.T) {
	m := NewSparseMatrix(2, 3)
	m.Set(1, 2, 7)
	tr := m.Transposed()
	positions := slices.Collect(tr.NonZero())
	require.Len(t, positions, 1)
	assert.Equal(t, 7.0, tr.Get(positions[0]))
	assert.Equal(t, 7.0, tr.At(2, 1))
}

func TestRowCol_Aliases(t *testing.T) {
	m := MatrixFromRows([][]float64{{1, 2}, {3, 4}}).SetDimensionNames("r", "c")

	row := m.Row(1)
	assert.Equal(t, []float64{3, 4}, row.Values())
	assert.Equal(t, "c", row.Name())
	row.Put(0, 30)
	assert.Equal(t, 30.0, m.At(1, 0))

	col := m.Col(1)
	assert.Equal(t, []float64{2, 4}, col.Values())
	assert.Equal(t, "r", col.Name())
	col.PutAdd(0, 1)
	assert.Equal(t, 3.0, m.At(0, 1))

	var oe *OutOfRangeError
	assert.ErrorAs(t, Try(func() { m.Row(2) }), &oe)
	assert.ErrorAs(t, Try(func() { m.Col(-1) }), &oe)
}

func TestRange(t *testing.T) {
	x := FromSlice([]float64{0, 1, 2, 3, 4})
	r := x.Range(1, 4)
	assert.Equal(t, []float64{1, 2, 3}, r.Values())
	r.Put(2, 9)
	assert.Equal(t, 9.0, x.Get(3))

	var oe *OutOfRangeError
	assert.ErrorAs(t, Try(func() { x.Range(3, 6) }), &oe)
	assert.ErrorAs(t, Try(func() { x.Range(3, 2) }), &oe)
}

// Broadcast Tests

func TestAsRows(t *testing.T) {
	v := FromSlice([]float64{1, 2, 3})
	b := v.AsRows(2)
	require.Equal(t, 2, b.Rows())
	require.Equal(t, 3, b.Cols())
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			assert.Equal(t, v.Get(c), b.At(r, c))
		}
	}
	assert.Equal(t, []float64{2, 4, 6}, b.SumRows().Values())
}

func TestAsCols(t *testing.T) {
	v := FromSlice([]float64{1, 2, 3})
	b := v.AsCols(2)
	require.Equal(t, 3, b.Rows())
	require.Equal(t, 2, b.Cols())
	assert.Equal(t, 3.0, b.At(2, 1))
	assert.Equal(t, []float64{2, 4, 6}, b.SumCols().Values())
}

func TestBroadcast_ReadOnly(t *testing.T) {
	b := FromSlice([]float64{1, 2}).AsRows(3)
	assert.PanicsWithValue(t, ErrReadOnly, func() { b.Put(0, 1) })
	assert.ErrorIs(t, Try(func() { b.Set(1, 1, 5) }), ErrReadOnly)
}

func TestBroadcast_ReflectsSource(t *testing.T) {
	v := FromSlice([]float64{1, 2})
	b := v.AsCols(3)
	v.Put(1, 5)
	assert.Equal(t, 5.0, b.At(1, 2))
}

func TestBroadcast_AddToMatrix(t *testing.T) {
	m := MatrixFromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	bias := FromSlice([]float64{10, 20})
	got := m.Add(bias.AsRows(3))
	assert.Equal(t, [][]float64{{11, 22}, {13, 24}, {15, 26}}, rowsOf(got))
}

func TestBroadcast_SparseSource(t *testing.T) {
	v := sparseOf(3, map[int]float64{1: 4})
	b := v.AsRows(2)
	assert.Equal(t, 2, b.EstimateNonZero())
	assert.Equal(t, []float64{0, 8, 0}, b.SumRows().Values())
}

func rowsOf(m *Tensor) [][]float64 {
	out := make([][]float64, m.Rows())
	for r := range out {
		out[r] = m.Row(r).Values()
	}
	return out
}
