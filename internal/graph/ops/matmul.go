package ops

import "github.com/born-ml/neurograph/internal/tensor"

// MatMul computes the matrix product X·Y. Flat operands act as columns.
//
// Backward:
//
//	∂L/∂X = ∂L/∂out · Yᵀ
//	∂L/∂Y = Xᵀ · ∂L/∂out
type MatMul struct{}

// Name returns "matmul".
func (MatMul) Name() string { return "matmul" }

// Arity returns 2.
func (MatMul) Arity() int { return 2 }

// Forward computes X·Y.
func (MatMul) Forward(_ *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	return inputs[0].MatMul(inputs[1])
}

// Partial multiplies the tape by the transposed other operand.
func (MatMul) Partial(_ *Scope, input int, inputs []*tensor.Tensor, _, tape *tensor.Tensor) *tensor.Tensor {
	if input == 0 {
		return tape.MatMulTransposed(inputs[1], false, true)
	}
	return inputs[0].MatMulTransposed(tape, true, false)
}

// Transpose presents its input transposed without copying.
//
// Backward:
//
//	∂L/∂X = (∂L/∂out)ᵀ
type Transpose struct{}

// Name returns "transpose".
func (Transpose) Name() string { return "transpose" }

// Arity returns 1.
func (Transpose) Arity() int { return 1 }

// Forward returns a transposed view of the input.
func (Transpose) Forward(_ *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	return inputs[0].Transposed()
}

// Partial transposes the tape back.
func (Transpose) Partial(_ *Scope, _ int, _ []*tensor.Tensor, _, tape *tensor.Tensor) *tensor.Tensor {
	return tape.Transposed()
}
