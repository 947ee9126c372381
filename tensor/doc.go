// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the numeric containers of neurograph.
//
// # Overview
//
// A Tensor is a fixed-size float64 container backed by dense or sparse
// storage. A Tensor with a 2D shape is a column-major matrix. This package
// provides:
//   - Dense and sparse (open-addressed) storage behind one Storage interface
//   - Element-wise algebra driven by the sparser operand
//   - Matrix multiplication, optionally transposing either operand
//   - Zero-copy views: transpose, row, column, range
//   - Read-only broadcast views with matching reductions
//   - gonum/mat interoperability
//
// # Basic Usage
//
//	a := tensor.MatrixFromRows([][]float64{{1, 2}, {3, 4}})
//	b := tensor.NewSparseMatrix(2, 2)
//	b.Set(0, 1, 5)
//
//	c := a.MatMul(b)          // dense result
//	d := a.Transposed().Add(c) // views alias their source
//
// # Errors
//
// Operations follow gonum/mat and panic on misuse with *ValueError,
// *OutOfRangeError, *DimensionMismatchError or ErrReadOnly. Try converts
// such a panic into an error:
//
//	err := tensor.Try(func() { a.Put(0, math.Inf(1)) })
package tensor
