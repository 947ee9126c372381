package optim

import (
	"sync"

	"github.com/born-ml/neurograph/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Velocities are keyed by the parameter tensor, so one SGD can serve every
// parameter of a graph.
type SGD struct {
	lr       float64
	momentum float64

	mu         sync.Mutex
	velocities map[*tensor.Tensor]*tensor.Tensor
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*tensor.Tensor]*tensor.Tensor),
	}
}

// Update applies one descent step to value.
func (s *SGD) Update(value, gradient *tensor.Tensor) {
	if s.momentum == 0 {
		value.SelfSubtract(gradient.MultiplyScalar(s.lr))
		return
	}

	s.mu.Lock()
	velocity, ok := s.velocities[value]
	if !ok {
		velocity = tensor.DenseLike(nil, value)
		s.velocities[value] = velocity
	}
	s.mu.Unlock()

	// velocity = momentum * velocity + grad
	velocity.SelfMultiplyScalar(s.momentum).SelfAdd(gradient)
	// param -= lr * velocity
	value.SelfSubtract(velocity.MultiplyScalar(s.lr))
}

// Reset clears momentum buffers.
func (s *SGD) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.velocities = make(map[*tensor.Tensor]*tensor.Tensor)
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 { return s.lr }

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float64) { s.lr = lr }
