// Package model wires graph nodes into a trainable model and drives
// prediction, training steps and the concurrent training loop.
package model

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/born-ml/neurograph/internal/graph"
	"github.com/born-ml/neurograph/internal/tensor"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Loss scores outputs against desired values.
type Loss interface {
	Evaluate(output, desired *tensor.Tensor) float64
	// Derivative returns ∂Loss/∂output with the shape of output.
	Derivative(output, desired *tensor.Tensor) *tensor.Tensor
}

// ArgumentCountError reports a call whose positional tensors do not match
// the registered inputs or outputs.
type ArgumentCountError struct {
	Op   string // "inputs", "desired outputs" or "weights"
	Want int
	Got  int
}

// Error implements the error interface.
func (e *ArgumentCountError) Error() string {
	return fmt.Sprintf("model: expected %d %s, got %d", e.Want, e.Op, e.Got)
}

// Model holds the ordered inputs and outputs of a graph. Registration order
// is the positional contract of Predict and Train.
//
// Predict and Train are safe for concurrent use; each call runs in its own
// execution context.
type Model struct {
	id      uuid.UUID
	g       *graph.Graph
	inputs  []graph.NodeID
	outputs []graph.NodeID

	contexts sync.Pool
	workers  atomic.Int64
}

// New creates a model over g. The model does not own g exclusively.
func New(g *graph.Graph) *Model {
	m := &Model{id: uuid.New(), g: g}
	m.contexts.New = func() any {
		return g.NewContext(int(m.workers.Add(1) - 1))
	}
	return m
}

// ID identifies this model instance in logs and checkpoints.
func (m *Model) ID() uuid.UUID { return m.id }

// Graph returns the underlying graph.
func (m *Model) Graph() *graph.Graph { return m.g }

// AddInput registers a Variable node as the next positional input.
func (m *Model) AddInput(id graph.NodeID) *Model {
	m.inputs = append(m.inputs, id)
	return m
}

// AddOutput registers the next positional output.
func (m *Model) AddOutput(id graph.NodeID) *Model {
	m.outputs = append(m.outputs, id)
	return m
}

// Inputs returns the registered inputs in order.
func (m *Model) Inputs() []graph.NodeID { return append([]graph.NodeID(nil), m.inputs...) }

// Outputs returns the registered outputs in order.
func (m *Model) Outputs() []graph.NodeID { return append([]graph.NodeID(nil), m.outputs...) }

// Validate checks that every output is reachable from an input and that no
// node fed by the model dead-ends.
func (m *Model) Validate() error {
	return m.g.Validate(m.inputs, m.outputs)
}

// Parameters returns the Parameter nodes reachable from the outputs, in
// depth-first order.
func (m *Model) Parameters() []graph.NodeID {
	return m.g.Parameters(m.outputs...)
}

// NewContext returns an execution context for explicit-context calls such
// as PredictIn.
func (m *Model) NewContext(worker int) *graph.Context {
	return m.g.NewContext(worker)
}

func (m *Model) acquire() *graph.Context { return m.contexts.Get().(*graph.Context) }

func (m *Model) release(c *graph.Context) { m.contexts.Put(c) }

// Predict runs a forward pass and returns the outputs in registration
// order. The returned tensors belong to the caller.
func (m *Model) Predict(inputs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	c := m.acquire()
	defer m.release(c)
	c.Begin(false)
	outs, err := m.PredictIn(c, inputs...)
	if err != nil {
		return nil, err
	}
	return detach(outs), nil
}

// PredictIn runs a forward pass in c within its current pass. The returned
// tensors stay valid until the next c.Begin.
func (m *Model) PredictIn(c *graph.Context, inputs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(inputs) != len(m.inputs) {
		return nil, &ArgumentCountError{Op: "inputs", Want: len(m.inputs), Got: len(inputs)}
	}
	for _, out := range m.outputs {
		c.ClearPrediction(out)
	}
	for i, id := range m.inputs {
		if err := c.Bind(id, inputs[i]); err != nil {
			return nil, errors.Wrapf(err, "input %d", i)
		}
	}
	outs := make([]*tensor.Tensor, len(m.outputs))
	for i, id := range m.outputs {
		v, err := c.RunPrediction(id)
		if err != nil {
			return nil, err
		}
		outs[i] = v
	}
	return outs, nil
}

// Train runs a forward pass, derives the error of each output from loss,
// scaled element-wise by weights when given, and propagates it backward.
// It returns the outputs computed before any parameter update.
//
// Gradients reach parameters through opt.Update. Pass an *optim.Batch to
// stage them until an explicit Flush, as concurrent callers must.
func (m *Model) Train(loss Loss, opt graph.Optimizer, inputs, desired []*tensor.Tensor, weights ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	c := m.acquire()
	defer m.release(c)
	c.Begin(true)
	outs, err := m.TrainIn(c, loss, opt, inputs, desired, weights...)
	if err != nil {
		return nil, err
	}
	return detach(outs), nil
}

// TrainIn is Train within the current pass of c. The returned tensors stay
// valid until the next c.Begin.
func (m *Model) TrainIn(c *graph.Context, loss Loss, opt graph.Optimizer, inputs, desired []*tensor.Tensor, weights ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(desired) != len(m.outputs) {
		return nil, &ArgumentCountError{Op: "desired outputs", Want: len(m.outputs), Got: len(desired)}
	}
	if len(weights) != 0 && len(weights) != len(m.outputs) {
		return nil, &ArgumentCountError{Op: "weights", Want: len(m.outputs), Got: len(weights)}
	}
	outs, err := m.PredictIn(c, inputs...)
	if err != nil {
		return nil, err
	}
	// Outputs may alias parameter storage that the optimizer updates in place.
	for i, out := range outs {
		outs[i] = out.CloneIn(c.Arena())
	}

	grads := make([]*tensor.Tensor, len(outs))
	for i, out := range outs {
		err := tensor.Try(func() {
			grads[i] = loss.Derivative(out, desired[i])
			if len(weights) > 0 && weights[i] != nil {
				grads[i] = grads[i].Multiply(weights[i])
			}
		})
		if err != nil {
			return nil, errors.Wrapf(err, "loss derivative of output %d", i)
		}
	}
	if err := c.Backward(opt, m.outputs, grads); err != nil {
		return nil, err
	}
	return outs, nil
}

// Evaluate returns the mean loss over samples.
func (m *Model) Evaluate(loss Loss, samples []Sample) (float64, error) {
	c := m.acquire()
	defer m.release(c)
	sum := 0.0
	for i, s := range samples {
		c.Begin(false)
		l, err := m.sampleLoss(c, loss, s)
		if err != nil {
			return 0, errors.Wrapf(err, "sample %d", i)
		}
		sum += l
	}
	if len(samples) == 0 {
		return 0, nil
	}
	return sum / float64(len(samples)), nil
}

func (m *Model) sampleLoss(c *graph.Context, loss Loss, s Sample) (float64, error) {
	outs, err := m.PredictIn(c, s.Inputs...)
	if err != nil {
		return 0, err
	}
	return outputLoss(loss, outs, s.Outputs)
}

// outputLoss sums loss over the outputs of one sample.
func outputLoss(loss Loss, outs, desired []*tensor.Tensor) (l float64, err error) {
	if len(desired) != len(outs) {
		return 0, &ArgumentCountError{Op: "desired outputs", Want: len(outs), Got: len(desired)}
	}
	err = tensor.Try(func() {
		for i, out := range outs {
			l += loss.Evaluate(out, desired[i])
		}
	})
	return l, err
}

func detach(ts []*tensor.Tensor) []*tensor.Tensor {
	out := make([]*tensor.Tensor, len(ts))
	for i, t := range ts {
		out[i] = t.Copy()
	}
	return out
}
