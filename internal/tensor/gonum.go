package tensor

import "gonum.org/v1/gonum/mat"

// gonumMatrix adapts a Tensor to gonum's read-only mat.Matrix interface.
type gonumMatrix struct {
	t *Tensor
}

// AsGonum returns t as a gonum mat.Matrix without copying. Flat tensors are
// presented as column vectors.
func AsGonum(t *Tensor) mat.Matrix {
	return gonumMatrix{t: t}
}

// Dims returns the matrix dimensions.
func (g gonumMatrix) Dims() (int, int) { return g.t.Dims() }

// At returns the element at (i, j).
func (g gonumMatrix) At(i, j int) float64 { return g.t.At(i, j) }

// T returns the transpose as a view.
func (g gonumMatrix) T() mat.Matrix { return gonumMatrix{t: g.t.Transposed()} }

// FromGonum copies any gonum matrix into a dense Tensor matrix.
func FromGonum(m mat.Matrix) *Tensor {
	rows, cols := m.Dims()
	out := NewMatrix(rows, cols)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			out.Set(r, c, m.At(r, c))
		}
	}
	return out
}
