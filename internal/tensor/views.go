package tensor

import "iter"

// Transposed returns a cols×rows view of a matrix sharing its storage.
func (t *Tensor) Transposed() *Tensor {
	rows, cols := t.Dims()
	v := WrapMatrix(&transposed{src: t.store, rows: rows, cols: cols}, cols, rows)
	v.name = t.name
	v.rowName, v.colName = t.colName, t.rowName
	return v
}

// Row returns row i of a matrix as a flat view of length Cols.
func (t *Tensor) Row(i int) *Tensor {
	rows, cols := t.Dims()
	if i < 0 || i >= rows {
		panic(&OutOfRangeError{Axis: "row", Index: i, Bound: rows})
	}
	return Wrap(&strided{src: t.store, offset: i, stride: rows, n: cols}).SetName(t.colName)
}

// Col returns column j of a matrix as a flat view of length Rows.
func (t *Tensor) Col(j int) *Tensor {
	rows, cols := t.Dims()
	if j < 0 || j >= cols {
		panic(&OutOfRangeError{Axis: "col", Index: j, Bound: cols})
	}
	return Wrap(&strided{src: t.store, offset: j * rows, stride: 1, n: rows}).SetName(t.rowName)
}

// Range returns positions [from, to) as a flat view.
func (t *Tensor) Range(from, to int) *Tensor {
	if from < 0 || from > to {
		panic(&OutOfRangeError{Axis: "position", Index: from, Bound: to + 1})
	}
	if to > t.Size() {
		panic(&OutOfRangeError{Axis: "position", Index: to, Bound: t.Size() + 1})
	}
	return Wrap(&strided{src: t.store, offset: from, stride: 1, n: to - from})
}

// AsRows presents a flat tensor as an n×Size matrix whose every row equals
// t, without copying. The view is read-only; SumRows is its reduction.
func (t *Tensor) AsRows(n int) *Tensor {
	v := WrapMatrix(&repeated{src: t.store, n: n, rowsMode: true}, n, t.Size())
	v.colName = t.name
	return v
}

// AsCols presents a flat tensor as a Size×n matrix whose every column
// equals t, without copying. The view is read-only; SumCols is its
// reduction.
func (t *Tensor) AsCols(n int) *Tensor {
	v := WrapMatrix(&repeated{src: t.store, n: n}, t.Size(), n)
	v.rowName = t.name
	return v
}

// transposed maps a view position onto the column-major source.
type transposed struct {
	src        Storage
	rows, cols int // Source shape
}

func (v *transposed) Len() int { return v.src.Len() }

func (v *transposed) srcPos(p int) int {
	// View is cols×rows: view (r, c) is source (c, r).
	r, c := p%v.cols, p/v.cols
	return c + r*v.rows
}

func (v *transposed) Get(p int) float64        { return v.src.Get(v.srcPos(p)) }
func (v *transposed) Put(p int, value float64) { v.src.Put(v.srcPos(p), value) }
func (v *transposed) EstimateNonZero() int     { return v.src.EstimateNonZero() }
func (v *transposed) ZeroCopy(size int) Storage {
	return v.src.ZeroCopy(size)
}

func (v *transposed) NonZero() iter.Seq[int] {
	return func(yield func(int) bool) {
		for q := range v.src.NonZero() {
			r, c := q%v.rows, q/v.rows
			if !yield(c + r*v.cols) {
				return
			}
		}
	}
}

// strided exposes n source positions offset, offset+stride, ...
type strided struct {
	src                Storage
	offset, stride, n int
}

func (v *strided) Len() int                 { return v.n }
func (v *strided) Get(p int) float64        { return v.src.Get(v.offset + p*v.stride) }
func (v *strided) Put(p int, value float64) { v.src.Put(v.offset+p*v.stride, value) }
func (v *strided) EstimateNonZero() int     { return min(v.n, v.src.EstimateNonZero()) }
func (v *strided) ZeroCopy(size int) Storage {
	return v.src.ZeroCopy(size)
}

func (v *strided) NonZero() iter.Seq[int] {
	return func(yield func(int) bool) {
		for p := 0; p < v.n; p++ {
			if v.Get(p) != 0 && !yield(p) {
				return
			}
		}
	}
}

// repeated broadcasts a flat source across rows (rowsMode) or columns.
type repeated struct {
	src      Storage
	n        int
	rowsMode bool
}

func (v *repeated) Len() int { return v.src.Len() * v.n }

func (v *repeated) Get(p int) float64 {
	if v.rowsMode {
		return v.src.Get(p / v.n)
	}
	return v.src.Get(p % v.src.Len())
}

func (v *repeated) Put(int, float64) { panic(ErrReadOnly) }

func (v *repeated) EstimateNonZero() int { return v.src.EstimateNonZero() * v.n }

func (v *repeated) ZeroCopy(size int) Storage { return v.src.ZeroCopy(size) }

func (v *repeated) NonZero() iter.Seq[int] {
	return func(yield func(int) bool) {
		m := v.src.Len()
		for q := range v.src.NonZero() {
			for k := 0; k < v.n; k++ {
				pos := q + k*m // column k of an m×n matrix
				if v.rowsMode {
					pos = k + q*v.n // row k of an n×m matrix
				}
				if !yield(pos) {
					return
				}
			}
		}
	}
}
