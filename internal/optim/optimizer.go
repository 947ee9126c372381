// Package optim implements optimization algorithms for training graph
// parameters.
//
// This package provides:
//   - Optimizer interface: in-place Update(value, gradient) plus Reset
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//   - Batch: wrapper that stages updates until Flush
//
// Example usage:
//
//	opt := optim.NewBatch(optim.NewAdam(optim.AdamConfig{LR: 0.01}))
//
//	for epoch := range epochs {
//	    for _, b := range batches {
//	        m.Train(loss, opt, b.inputs, b.desired) // stages gradients
//	    }
//	    opt.Flush() // one weight step per epoch
//	}
package optim

import "github.com/born-ml/neurograph/internal/tensor"

// Optimizer is the base interface for all optimization algorithms.
//
// Update is called by the graph once per Parameter per backward pass with
// the accumulated gradient; it mutates value in place and must not retain
// gradient. Reset discards any internal state such as momentum.
type Optimizer interface {
	Update(value, gradient *tensor.Tensor)
	Reset()
}
