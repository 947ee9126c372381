package tensor

import (
	"github.com/born-ml/neurograph/internal/parallel"
)

// matmulParallel controls column-parallel dense matrix multiplication.
var matmulParallel = parallel.DefaultConfig()

// NewMatrix creates a dense, zero-filled rows×cols matrix.
func NewMatrix(rows, cols int) *Tensor {
	return WrapMatrix(NewDenseStorage(make([]float64, rows*cols)), rows, cols)
}

// NewSparseMatrix creates an empty sparse rows×cols matrix.
func NewSparseMatrix(rows, cols int) *Tensor {
	return WrapMatrix(NewSparseStorage(rows*cols), rows, cols)
}

// MatrixFromRows creates a dense matrix from row-major nested slices.
// All rows must have the same length.
func MatrixFromRows(values [][]float64) *Tensor {
	rows, cols := len(values), 0
	if rows > 0 {
		cols = len(values[0])
	}
	m := NewMatrix(rows, cols)
	for r, row := range values {
		if len(row) != cols {
			panic(&DimensionMismatchError{Op: "MatrixFromRows", Left: m.Describe(), Right: "ragged row"})
		}
		for c, v := range row {
			m.Set(r, c, v)
		}
	}
	return m
}

// WrapMatrix creates a rows×cols matrix over existing storage.
func WrapMatrix(s Storage, rows, cols int) *Tensor {
	if rows*cols != s.Len() {
		panic(&DimensionMismatchError{Op: "WrapMatrix", Left: Wrap(s).Describe(), Right: (&Tensor{rows: rows, cols: cols}).Describe()})
	}
	return &Tensor{store: s, rows: rows, cols: cols}
}

// AsMatrix returns a rows×cols matrix sharing t's storage.
func (t *Tensor) AsMatrix(rows, cols int) *Tensor {
	m := WrapMatrix(t.store, rows, cols)
	m.name = t.name
	return m
}

// AsColumn returns t viewed as a size×1 matrix.
func (t *Tensor) AsColumn() *Tensor { return t.AsMatrix(t.Size(), 1) }

// AsRow returns t viewed as a 1×size matrix.
func (t *Tensor) AsRow() *Tensor { return t.AsMatrix(1, t.Size()) }

// At returns the element at (row, col).
func (t *Tensor) At(row, col int) float64 {
	return t.store.Get(t.index(row, col))
}

// Set stores value at (row, col).
func (t *Tensor) Set(row, col int, value float64) {
	pos := t.index(row, col)
	t.store.Put(pos, finite(pos, value))
}

// index maps (row, col) to the column-major flat position.
func (t *Tensor) index(row, col int) int {
	rows, cols := t.Dims()
	if row < 0 || row >= rows {
		panic(&OutOfRangeError{Axis: "row", Index: row, Bound: rows})
	}
	if col < 0 || col >= cols {
		panic(&OutOfRangeError{Axis: "col", Index: col, Bound: cols})
	}
	return row + col*rows
}

// MatMul returns the matrix product t·other.
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	return t.MatMulTransposed(other, false, false)
}

// MatMulTransposed returns op(t)·op(other) where op transposes its operand
// when the matching flag is set.
//
// Iteration is driven by the non-zeros of the left operand, so a sparse
// left argument is cheap; the right argument is read by random access.
// The result is dense.
func (t *Tensor) MatMulTransposed(other *Tensor, transposeSelf, transposeWith bool) *Tensor {
	ar, ac, arName, acName := t.effective(transposeSelf)
	br, bc, brName, bcName := other.effective(transposeWith)
	if ac != br || !namesMatch(acName, brName) {
		panic(mismatch("MatMul", t, other))
	}
	out := NewMatrix(ar, bc).SetDimensionNames(arName, bcName)
	od := out.store.(*Dense).data

	if !transposeSelf && !transposeWith {
		if a, b, ok := densePair(t, other); ok {
			denseMatMul(a, b, od, ar, ac, bc)
			for i, v := range od {
				finite(i, v)
			}
			return out
		}
	}

	srcRows, _ := t.Dims()
	otherRows, _ := other.Dims()
	for pos := range t.store.NonZero() {
		v := t.store.Get(pos)
		if v == 0 {
			continue
		}
		r, c := pos%srcRows, pos/srcRows
		if transposeSelf {
			r, c = c, r
		}
		for j := 0; j < bc; j++ {
			var w float64
			if transposeWith {
				w = other.store.Get(j + c*otherRows)
			} else {
				w = other.store.Get(c + j*otherRows)
			}
			if w != 0 {
				od[r+j*ar] += v * w
			}
		}
	}
	for i, v := range od {
		finite(i, v)
	}
	return out
}

// denseMatMul computes out = a·b for column-major a (n×k) and b (k×m).
// Result columns are independent and computed in parallel.
func denseMatMul(a, b, out []float64, n, k, m int) {
	parallel.For(m, func(j int) {
		col := out[j*n : (j+1)*n]
		for p := 0; p < k; p++ {
			w := b[p+j*k]
			if w == 0 {
				continue
			}
			src := a[p*n : (p+1)*n]
			for i, v := range src {
				col[i] += v * w
			}
		}
	}, matmulParallel)
}

func (t *Tensor) effective(transpose bool) (rows, cols int, rowName, colName string) {
	rows, cols = t.Dims()
	rowName, colName = t.rowName, t.colName
	if transpose {
		return cols, rows, colName, rowName
	}
	return rows, cols, rowName, colName
}

// SumRows collapses the rows of a matrix, returning a flat tensor of
// length Cols whose entry c is the sum of column c.
func (t *Tensor) SumRows() *Tensor {
	rows, cols := t.Dims()
	out := New(cols).SetName(t.colName)
	od := out.store.(*Dense).data
	for pos := range t.store.NonZero() {
		od[pos/rows] += t.store.Get(pos)
	}
	return out
}

// SumCols collapses the columns of a matrix, returning a flat tensor of
// length Rows whose entry r is the sum of row r.
func (t *Tensor) SumCols() *Tensor {
	rows, _ := t.Dims()
	out := New(rows).SetName(t.rowName)
	od := out.store.(*Dense).data
	for pos := range t.store.NonZero() {
		od[pos%rows] += t.store.Get(pos)
	}
	return out
}

// SelectRows copies the given rows, in order, into a new matrix of the same
// storage kind.
func (t *Tensor) SelectRows(ids []int) *Tensor {
	_, cols := t.Dims()
	out := t.ZeroCopyMatrix(len(ids), cols)
	for i, r := range ids {
		for c := 0; c < cols; c++ {
			if v := t.At(r, c); v != 0 {
				out.store.Put(i+c*len(ids), v)
			}
		}
	}
	return out
}
