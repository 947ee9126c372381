package optim

import (
	"sync"

	"github.com/born-ml/neurograph/internal/tensor"
)

// Batch defers updates of a base optimizer. Update only stages the gradient;
// Flush hands the per-parameter mean of everything staged since the last
// flush to the base optimizer. This lets several forward/backward passes,
// possibly running concurrently, contribute to one weight step.
//
// Update is safe for concurrent use. Flush must not race with Update.
type Batch struct {
	base Optimizer

	mu     sync.Mutex
	order  []*tensor.Tensor
	staged map[*tensor.Tensor]*stagedGradient
}

type stagedGradient struct {
	sum   *tensor.Tensor
	count int
}

// NewBatch wraps base.
func NewBatch(base Optimizer) *Batch {
	return &Batch{base: base, staged: make(map[*tensor.Tensor]*stagedGradient)}
}

// Base returns the wrapped optimizer.
func (b *Batch) Base() Optimizer { return b.base }

// Update stages gradient for value. gradient is copied to the heap, so the
// caller may recycle it immediately.
func (b *Batch) Update(value, gradient *tensor.Tensor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.staged[value]
	if !ok {
		b.staged[value] = &stagedGradient{sum: gradient.Copy(), count: 1}
		b.order = append(b.order, value)
		return
	}
	s.sum.SelfAdd(gradient)
	s.count++
}

// Flush applies the staged mean gradients in first-staged order and clears
// the stage. It returns the number of parameters updated.
func (b *Batch) Flush() int {
	b.mu.Lock()
	order, staged := b.order, b.staged
	b.order, b.staged = nil, make(map[*tensor.Tensor]*stagedGradient)
	b.mu.Unlock()

	for _, value := range order {
		s := staged[value]
		b.base.Update(value, s.sum.SelfMultiplyScalar(1/float64(s.count)))
	}
	return len(order)
}

// Pending returns the number of parameters with staged gradients.
func (b *Batch) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// Reset drops staged gradients and resets the base optimizer.
func (b *Batch) Reset() {
	b.mu.Lock()
	b.order, b.staged = nil, make(map[*tensor.Tensor]*stagedGradient)
	b.mu.Unlock()
	b.base.Reset()
}
