package ops

import "github.com/born-ml/neurograph/internal/tensor"

// Sum reduces its input to a single-element tensor.
//
// Backward: ∂L/∂x_i = ∂L/∂out for every i
type Sum struct{}

// Name returns "sum".
func (Sum) Name() string { return "sum" }

// Arity returns 1.
func (Sum) Arity() int { return 1 }

// Forward sums all elements.
func (Sum) Forward(_ *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	return tensor.FromSlice([]float64{inputs[0].Sum()})
}

// Partial broadcasts the single tape value to every input position.
func (Sum) Partial(s *Scope, _ int, inputs []*tensor.Tensor, _, tape *tensor.Tensor) *tensor.Tensor {
	g := tape.Get(0)
	out := tensor.DenseLike(s.Mem, inputs[0])
	if g == 0 {
		return out
	}
	for i := 0; i < out.Size(); i++ {
		out.Put(i, g)
	}
	return out
}

// Scale multiplies its input by a fixed factor.
//
// Backward: ∂L/∂x = Factor · ∂L/∂out
type Scale struct {
	Factor float64
}

// Name returns "scale".
func (Scale) Name() string { return "scale" }

// Arity returns 1.
func (Scale) Arity() int { return 1 }

// Forward computes Factor · x.
func (k Scale) Forward(_ *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	return inputs[0].MultiplyScalar(k.Factor)
}

// Partial scales the tape.
func (k Scale) Partial(_ *Scope, _ int, _ []*tensor.Tensor, _, tape *tensor.Tensor) *tensor.Tensor {
	return tape.MultiplyScalar(k.Factor)
}
