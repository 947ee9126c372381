// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/neurograph/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Tensor is a fixed-size float64 container, optionally shaped as a matrix.
type Tensor = tensor.Tensor

// Storage is the capability set of a tensor backing.
type Storage = tensor.Storage

// Allocator hands out zeroed backing slices for dense storage.
type Allocator = tensor.Allocator

// Dense is contiguous storage.
type Dense = tensor.Dense

// Sparse is open-addressed storage holding only non-zero elements.
type Sparse = tensor.Sparse

// Error types.
type (
	// ValueError reports a non-finite value.
	ValueError = tensor.ValueError
	// OutOfRangeError reports an index outside of bounds.
	OutOfRangeError = tensor.OutOfRangeError
	// DimensionMismatchError reports incompatible operands.
	DimensionMismatchError = tensor.DimensionMismatchError
)

// ErrReadOnly is raised when writing through a broadcast view.
var ErrReadOnly = tensor.ErrReadOnly

// New creates a dense, zero-filled tensor.
func New(size int) *Tensor { return tensor.New(size) }

// NewSparse creates an empty sparse tensor.
func NewSparse(size int) *Tensor { return tensor.NewSparse(size) }

// FromSlice creates a dense tensor holding a copy of values.
func FromSlice(values []float64) *Tensor { return tensor.FromSlice(values) }

// NewMatrix creates a dense, zero-filled rows×cols matrix.
func NewMatrix(rows, cols int) *Tensor { return tensor.NewMatrix(rows, cols) }

// NewSparseMatrix creates an empty sparse rows×cols matrix.
func NewSparseMatrix(rows, cols int) *Tensor { return tensor.NewSparseMatrix(rows, cols) }

// MatrixFromRows creates a dense matrix from row-major nested slices.
func MatrixFromRows(values [][]float64) *Tensor { return tensor.MatrixFromRows(values) }

// DenseLike creates a zero-filled dense tensor shaped like t.
func DenseLike(a Allocator, t *Tensor) *Tensor { return tensor.DenseLike(a, t) }

// Try runs f and converts a tensor panic into an error.
func Try(f func()) error { return tensor.Try(f) }

// AsGonum presents t as a read-only gonum matrix.
func AsGonum(t *Tensor) mat.Matrix { return tensor.AsGonum(t) }

// FromGonum copies a gonum matrix into a dense matrix.
func FromGonum(m mat.Matrix) *Tensor { return tensor.FromGonum(m) }
