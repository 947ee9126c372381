package ops

import "github.com/born-ml/neurograph/internal/tensor"

// Dropout zeroes each element with probability Rate while training and
// scales survivors by 1/(1-Rate). Outside training it is the identity.
//
// The mask of the last forward pass is kept in the node's scratch slot of
// the running context and reused by Partial.
//
// Backward: ∂L/∂x = ∂L/∂out ⊙ mask / (1-Rate)
type Dropout struct {
	Rate float64
}

// Name returns "dropout".
func (Dropout) Name() string { return "dropout" }

// Arity returns 1.
func (Dropout) Arity() int { return 1 }

// Randomized reports true: dropout outputs are never cached.
func (Dropout) Randomized() bool { return true }

// Forward samples a fresh mask while training.
func (k Dropout) Forward(s *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	x := inputs[0]
	if !s.Training || k.Rate <= 0 {
		s.SetScratch(nil)
		return x
	}
	keep := 1 - k.Rate
	mask := make([]bool, x.Size())
	out := tensor.DenseLike(s.Mem, x)
	for i := range mask {
		if s.Rand.Float64() < keep {
			mask[i] = true
			if v := x.Get(i); v != 0 {
				out.Put(i, v/keep)
			}
		}
	}
	s.SetScratch(mask)
	return out
}

// Partial applies the stored mask to the tape.
func (k Dropout) Partial(s *Scope, _ int, _ []*tensor.Tensor, _, tape *tensor.Tensor) *tensor.Tensor {
	mask, ok := s.Scratch().([]bool)
	if !ok {
		return tape
	}
	keep := 1 - k.Rate
	return mapPartial(s, tape, func(i int) float64 {
		if mask[i] {
			return 1 / keep
		}
		return 0
	})
}
