package tensor

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
)

// ErrReadOnly is raised when writing through a broadcast view.
var ErrReadOnly = errors.New("tensor: write through read-only broadcast view")

// ValueError reports an attempt to store a non-finite value.
type ValueError struct {
	Pos   int     // Flat position of the write
	Value float64 // Rejected value (NaN or ±Inf)
}

// Error implements the error interface.
func (e *ValueError) Error() string {
	return fmt.Sprintf("tensor: non-finite value %v at position %d", e.Value, e.Pos)
}

// OutOfRangeError reports an index outside of a tensor's bounds.
type OutOfRangeError struct {
	Axis  string // "position", "row" or "col"
	Index int
	Bound int // Valid indexes are [0, Bound)
}

// Error implements the error interface.
func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("tensor: %s %d out of range [0, %d)", e.Axis, e.Index, e.Bound)
}

// DimensionMismatchError reports operands whose sizes, shapes or dimension
// names are incompatible.
type DimensionMismatchError struct {
	Op    string // Operation that failed (e.g. "Add", "MatMul")
	Left  string // Description of the left operand
	Right string // Description of the right operand
}

// Error implements the error interface.
func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("tensor: %s: dimension mismatch between %s and %s", e.Op, e.Left, e.Right)
}

func mismatch(op string, a, b *Tensor) *DimensionMismatchError {
	return &DimensionMismatchError{Op: op, Left: a.Describe(), Right: b.Describe()}
}

// Try runs f and converts a panic raised by this package into a returned
// error. Runtime errors and panics that do not carry an error are re-raised.
//
// Tensor operations follow gonum/mat and panic on misuse; Try is the bridge
// for callers that prefer error values:
//
//	err := tensor.Try(func() { t.Put(0, math.NaN()) })
//	var ve *tensor.ValueError
//	errors.As(err, &ve) // true
func Try(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if _, rt := r.(runtime.Error); !ok || rt {
				panic(r)
			}
			err = e
		}
	}()
	f()
	return nil
}
