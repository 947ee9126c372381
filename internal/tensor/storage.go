// Package tensor implements the numeric data model of the engine: flat
// tensors and column-major matrices over dense or sparse storage.
//
// Architecture:
//   - Storage: capability set {Len, Get, Put, NonZero, EstimateNonZero, ZeroCopy}
//   - Dense: contiguous []float64, optionally drawn from an Allocator
//   - Sparse: open-addressed position→value map that drops zero writes
//   - Views: transposition, row/column/range access and broadcasting,
//     all aliasing the storage they were taken from
//
// Tensor wraps one Storage together with its shape and dimension names.
// Element accessors and algebra panic with typed errors (ValueError,
// OutOfRangeError, DimensionMismatchError) in the manner of gonum/mat;
// use Try to turn them into error values.
package tensor

import "iter"

// Storage is the backing of a Tensor. Implementations do not validate
// positions or values; Tensor does that before delegating.
type Storage interface {
	// Len returns the number of addressable positions.
	Len() int

	// Get returns the value at pos, 0 for positions never written.
	Get(pos int) float64

	// Put stores value at pos.
	Put(pos int, value float64)

	// NonZero yields the positions that may hold non-zero values.
	// Callers must tolerate zero values among the yielded positions.
	NonZero() iter.Seq[int]

	// EstimateNonZero returns an upper estimate of the non-zero count.
	EstimateNonZero() int

	// ZeroCopy returns an empty storage of the same kind with the given length.
	ZeroCopy(size int) Storage
}

// Allocator hands out zeroed backing slices for dense storage.
// A nil Allocator means plain heap allocation.
type Allocator interface {
	Alloc(n int) []float64
}

func alloc(a Allocator, n int) []float64 {
	if a == nil {
		return make([]float64, n)
	}
	return a.Alloc(n)
}
