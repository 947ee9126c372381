package ops

import (
	"math"

	"github.com/born-ml/neurograph/internal/tensor"
)

// Sigmoid computes 1 / (1 + e^-x) element-wise.
//
// Backward: ∂L/∂x = ∂L/∂out ⊙ out ⊙ (1 - out)
type Sigmoid struct{}

// Name returns "sigmoid".
func (Sigmoid) Name() string { return "sigmoid" }

// Arity returns 1.
func (Sigmoid) Arity() int { return 1 }

// Forward applies the logistic function.
func (Sigmoid) Forward(s *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	return inputs[0].MapIn(s.Mem, sigmoid)
}

// Partial uses the cached output.
func (Sigmoid) Partial(s *Scope, _ int, _ []*tensor.Tensor, output, tape *tensor.Tensor) *tensor.Tensor {
	return mapPartial(s, tape, func(i int) float64 {
		y := output.Get(i)
		return y * (1 - y)
	})
}

func sigmoid(x float64) float64 {
	// Split on sign so exp never overflows.
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// Tanh computes the hyperbolic tangent element-wise.
//
// Backward: ∂L/∂x = ∂L/∂out ⊙ (1 - out²)
type Tanh struct{}

// Name returns "tanh".
func (Tanh) Name() string { return "tanh" }

// Arity returns 1.
func (Tanh) Arity() int { return 1 }

// Forward applies tanh.
func (Tanh) Forward(s *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	return inputs[0].MapIn(s.Mem, math.Tanh)
}

// Partial uses the cached output.
func (Tanh) Partial(s *Scope, _ int, _ []*tensor.Tensor, output, tape *tensor.Tensor) *tensor.Tensor {
	return mapPartial(s, tape, func(i int) float64 {
		y := output.Get(i)
		return 1 - y*y
	})
}

// ReLU computes max(0, x) element-wise.
//
// Backward: ∂L/∂x = ∂L/∂out where x > 0, else 0
type ReLU struct{}

// Name returns "relu".
func (ReLU) Name() string { return "relu" }

// Arity returns 1.
func (ReLU) Arity() int { return 1 }

// Forward applies the rectifier.
func (ReLU) Forward(s *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	return inputs[0].MapIn(s.Mem, func(x float64) float64 { return max(x, 0) })
}

// Partial masks the tape by the sign of the input.
func (ReLU) Partial(s *Scope, _ int, inputs []*tensor.Tensor, _, tape *tensor.Tensor) *tensor.Tensor {
	x := inputs[0]
	return mapPartial(s, tape, func(i int) float64 {
		if x.Get(i) > 0 {
			return 1
		}
		return 0
	})
}

// Exp computes e^x element-wise.
//
// Backward: ∂L/∂x = ∂L/∂out ⊙ out
type Exp struct{}

// Name returns "exp".
func (Exp) Name() string { return "exp" }

// Arity returns 1.
func (Exp) Arity() int { return 1 }

// Forward applies exp.
func (Exp) Forward(s *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	return inputs[0].MapIn(s.Mem, math.Exp)
}

// Partial uses the cached output.
func (Exp) Partial(s *Scope, _ int, _ []*tensor.Tensor, output, tape *tensor.Tensor) *tensor.Tensor {
	return mapPartial(s, tape, output.Get)
}

// Log computes the natural logarithm element-wise. Non-positive inputs
// produce a *tensor.ValueError.
//
// Backward: ∂L/∂x = ∂L/∂out / x
type Log struct{}

// Name returns "log".
func (Log) Name() string { return "log" }

// Arity returns 1.
func (Log) Arity() int { return 1 }

// Forward applies log.
func (Log) Forward(s *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	return inputs[0].MapIn(s.Mem, math.Log)
}

// Partial divides the tape by the input.
func (Log) Partial(s *Scope, _ int, inputs []*tensor.Tensor, _, tape *tensor.Tensor) *tensor.Tensor {
	x := inputs[0]
	return mapPartial(s, tape, func(i int) float64 { return 1 / x.Get(i) })
}
