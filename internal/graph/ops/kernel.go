// Package ops defines the kernel contract of graph operation nodes and the
// reference kernels.
//
// Each kernel implements:
//   - Forward: computes the output from the input values
//   - Partial: computes the gradient for one input given the output gradient
//
// Supported kernels:
//   - Add / Subtract: element-wise, with row or column broadcasting of a flat operand
//   - Multiply: element-wise (d(a*b)/da = b, d(a*b)/db = a)
//   - MatMul: matrix multiplication (d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad)
//   - Transpose: zero-copy transposition
//   - Sigmoid, Tanh, ReLU, Exp, Log: element-wise activations
//   - Sum: reduction to a single element
//   - Dropout: randomized masking while training
//
// Kernels report failures by panicking, usually with a tensor error; the
// graph recovers at the node boundary and attaches node context.
package ops

import (
	"math/rand/v2"

	"github.com/born-ml/neurograph/internal/tensor"
)

// Kernel is the forward/backward implementation of an operation node.
type Kernel interface {
	// Name identifies the kernel in errors and logs.
	Name() string

	// Arity returns the fixed number of inputs.
	Arity() int

	// Forward computes the output. It must not modify inputs.
	Forward(s *Scope, inputs []*tensor.Tensor) *tensor.Tensor

	// Partial returns the gradient with respect to inputs[input] given the
	// gradient tape of the output. It must not modify tape and must not
	// retain the returned tensor.
	Partial(s *Scope, input int, inputs []*tensor.Tensor, output, tape *tensor.Tensor) *tensor.Tensor
}

// Randomized is implemented by kernels whose output differs between passes
// for the same inputs. Their nodes are never cached as constants.
type Randomized interface {
	Randomized() bool
}

// IsRandomized reports whether k opts out of constant caching.
func IsRandomized(k Kernel) bool {
	r, ok := k.(Randomized)
	return ok && r.Randomized()
}

// Scope is the per-call environment a kernel runs in. It belongs to one
// execution context and is never shared between goroutines.
type Scope struct {
	Mem      tensor.Allocator // Arena for short-lived results; nil means heap
	Training bool             // Set during training passes
	Rand     *rand.Rand       // Context-local random source

	scratch *any
}

// NewScope creates a scope whose scratch slot is backed by slot.
func NewScope(mem tensor.Allocator, training bool, rng *rand.Rand, slot *any) *Scope {
	return &Scope{Mem: mem, Training: training, Rand: rng, scratch: slot}
}

// Scratch returns the per-node, per-context value stored by SetScratch.
func (s *Scope) Scratch() any {
	if s.scratch == nil {
		return nil
	}
	return *s.scratch
}

// SetScratch stores v for the running node in the running context, e.g. a
// dropout mask that Partial needs later.
func (s *Scope) SetScratch(v any) {
	if s.scratch != nil {
		*s.scratch = v
	}
}

// mapPartial returns tape ⊙ f(i) for every position i, drawn from s.Mem.
func mapPartial(s *Scope, tape *tensor.Tensor, f func(i int) float64) *tensor.Tensor {
	out := tensor.DenseLike(s.Mem, tape)
	for i := 0; i < tape.Size(); i++ {
		if g := tape.Get(i); g != 0 {
			out.Put(i, g*f(i))
		}
	}
	return out
}
