package graph

import (
	"math/rand/v2"

	"github.com/born-ml/neurograph/internal/graph/ops"
	"github.com/born-ml/neurograph/internal/memory"
	"github.com/born-ml/neurograph/internal/tensor"
	"github.com/pkg/errors"
)

// Optimizer receives the accumulated gradient of every Parameter reached by
// a backward pass. It is the only party allowed to mutate Parameter values.
type Optimizer interface {
	Update(value, gradient *tensor.Tensor)
}

// state is the per-context execution state of one node.
//
//	Idle:         !computed
//	Computed:     computed, fanIn == 0
//	Accumulating: 0 < fanIn < expected
//	Ready:        fanIn == expected; propagated and tape cleared
type state struct {
	output   *tensor.Tensor
	computed bool

	tape     *tensor.Tensor
	fanIn    int
	expected int // Contributions awaited this pass; -1 means one per consumer

	scratch any // Kernel scratch, see ops.Scope.Scratch
}

func (s *state) idle() bool {
	return !s.computed && s.tape == nil && s.fanIn == 0
}

func (s *state) reset() {
	s.output, s.computed = nil, false
	s.tape = nil
	s.fanIn, s.expected = 0, -1
}

// Context holds everything one pass mutates: node outputs, gradient tapes,
// fan-in counters, bound variables, a memory arena and a random source.
// A Context is owned by a single goroutine at a time; run concurrent
// batches in separate contexts.
type Context struct {
	g        *Graph
	worker   int
	states   []state
	bound    []*tensor.Tensor
	arena    *memory.Arena
	rng      *rand.Rand
	training bool
}

// NewContext creates an execution context for g. worker identifies the
// owner (typically a pool worker id) and seeds the random source.
func (g *Graph) NewContext(worker int) *Context {
	c := &Context{
		g:      g,
		worker: worker,
		arena:  memory.NewArena(),
		rng:    rand.New(rand.NewPCG(0, uint64(worker))),
	}
	c.grow()
	return c
}

// Graph returns the graph this context executes.
func (c *Context) Graph() *Graph { return c.g }

// Worker returns the id given to NewContext.
func (c *Context) Worker() int { return c.worker }

// Training reports whether the current pass is a training pass.
func (c *Context) Training() bool { return c.training }

// Arena returns the arena backing intermediate tensors of this context.
func (c *Context) Arena() *memory.Arena { return c.arena }

// Seed resets the random source used by randomized kernels.
func (c *Context) Seed(seed uint64) {
	c.rng = rand.New(rand.NewPCG(seed, uint64(c.worker)))
}

// Begin starts a new pass. Intermediate tensors of the previous pass are
// released to the arena and every node returns to Idle, so tensors
// obtained from an earlier pass must be copied before calling Begin.
func (c *Context) Begin(training bool) {
	c.grow()
	if c.arena.Depth() > 0 {
		c.arena.Exit()
	}
	c.arena.Enter()
	for i := range c.states {
		c.states[i].reset()
		c.states[i].scratch = nil
	}
	c.training = training
}

// grow extends per-node storage to nodes added after the context was made.
func (c *Context) grow() {
	for len(c.states) < len(c.g.nodes) {
		c.states = append(c.states, state{expected: -1})
	}
	for len(c.bound) < len(c.g.nodes) {
		c.bound = append(c.bound, nil)
	}
}

func (c *Context) check(id NodeID) error {
	if !c.g.valid(id) {
		return errors.Wrapf(ErrUnknownNode, "id %d", id)
	}
	c.grow()
	return nil
}

// Bind sets the value of a Variable node for this context.
func (c *Context) Bind(id NodeID, value *tensor.Tensor) error {
	if err := c.check(id); err != nil {
		return err
	}
	if c.g.nodes[id].kind != Variable {
		return errors.Wrapf(ErrNotVariable, "%s", c.g.Name(id))
	}
	c.bound[id] = value
	return nil
}

// Output returns the value computed for id in the current pass.
func (c *Context) Output(id NodeID) (*tensor.Tensor, bool) {
	if c.check(id) != nil || !c.states[id].computed {
		return nil, false
	}
	return c.states[id].output, true
}

// ClearPrediction returns id and everything it depends on to Idle. Subtrees
// that are already Idle are skipped.
func (c *Context) ClearPrediction(id NodeID) {
	if c.check(id) != nil {
		return
	}
	c.clear(id)
}

func (c *Context) clear(id NodeID) {
	st := &c.states[id]
	if st.idle() {
		return
	}
	st.reset()
	for _, in := range c.g.nodes[id].inputs {
		c.clear(in)
	}
}

// RunPrediction computes the output of id, reusing values already computed
// in this pass. Constant nodes are computed once and shared by all
// contexts. Kernel failures are returned as *ExecutionError.
func (c *Context) RunPrediction(id NodeID) (*tensor.Tensor, error) {
	if err := c.check(id); err != nil {
		return nil, err
	}
	return c.forward(id)
}

func (c *Context) forward(id NodeID) (*tensor.Tensor, error) {
	st := &c.states[id]
	if st.computed {
		return st.output, nil
	}
	n := &c.g.nodes[id]

	var out *tensor.Tensor
	switch n.kind {
	case Variable:
		out = c.bound[id]
		if out == nil {
			return nil, c.fail(id, PhaseForward, nil, ErrUnbound)
		}
	case Constant, Parameter:
		out = n.value
	case Operation:
		if n.constant {
			if v, ok := c.g.cached(id); ok {
				out = v
				break
			}
		}
		inputs, err := c.inputs(id, true)
		if err != nil {
			return nil, err
		}
		// Cached constants outlive the pass and must not use the arena.
		var mem tensor.Allocator
		if !n.constant {
			mem = c.arena
		}
		scope := ops.NewScope(mem, c.training, c.rng, &st.scratch)
		err = c.guard(id, PhaseForward, inputs, func() {
			out = n.kernel.Forward(scope, inputs)
		})
		if err != nil {
			return nil, err
		}
		if n.constant {
			out = c.g.storeCached(id, out)
		}
	}

	st.output, st.computed = out, true
	st.tape = nil
	st.fanIn, st.expected = 0, -1
	return out, nil
}

// inputs returns the input values of id, computing them when run is set.
func (c *Context) inputs(id NodeID, run bool) ([]*tensor.Tensor, error) {
	n := &c.g.nodes[id]
	values := make([]*tensor.Tensor, len(n.inputs))
	for i, in := range n.inputs {
		if run {
			v, err := c.forward(in)
			if err != nil {
				return nil, err
			}
			values[i] = v
			continue
		}
		if !c.states[in].computed {
			return nil, c.fail(in, PhaseBackward, nil, ErrNotComputed)
		}
		values[i] = c.states[in].output
	}
	return values, nil
}

// Backpropagate delivers one consumer's gradient contribution to id. The
// node waits until every expected contribution arrived, then propagates
// the summed tape to its trainable inputs and, for Parameters, hands the
// gradient to opt. A contribution beyond the expected count fails with
// ErrFanInOverflow.
//
// Outside of Backward, one contribution per consumer edge is expected.
func (c *Context) Backpropagate(opt Optimizer, id NodeID, gradient *tensor.Tensor) error {
	if err := c.check(id); err != nil {
		return err
	}
	return c.backward(opt, id, gradient)
}

// ForceBackpropagate starts a backward pass at the output node id with the
// given error gradient.
func (c *Context) ForceBackpropagate(opt Optimizer, id NodeID, gradient *tensor.Tensor) error {
	return c.Backward(opt, []NodeID{id}, []*tensor.Tensor{gradient})
}

// Backward runs one backward pass from several outputs at once. Each node
// expects one contribution per consumer edge that lies on a path to one of
// outputs, plus one for every time it appears in outputs, so an output that
// also feeds another output propagates once with the summed gradient.
//
// Outputs without a Parameter in their input closure are skipped.
func (c *Context) Backward(opt Optimizer, outputs []NodeID, gradients []*tensor.Tensor) error {
	if len(outputs) != len(gradients) {
		return errors.Wrapf(ErrGradientMissing, "%d outputs, %d gradients", len(outputs), len(gradients))
	}
	for _, id := range outputs {
		if err := c.check(id); err != nil {
			return err
		}
	}
	c.prepare(outputs)
	for i, id := range outputs {
		if !c.g.nodes[id].trainable {
			continue
		}
		if err := c.backward(opt, id, gradients[i]); err != nil {
			return err
		}
	}
	return nil
}

// prepare sets the expected contribution count of every trainable node on
// a path to outputs.
func (c *Context) prepare(outputs []NodeID) {
	seen := make([]bool, len(c.g.nodes))
	var live []NodeID
	var visit func(NodeID)
	visit = func(id NodeID) {
		if seen[id] || !c.g.nodes[id].trainable {
			return
		}
		seen[id] = true
		live = append(live, id)
		for _, in := range c.g.nodes[id].inputs {
			visit(in)
		}
	}
	for _, id := range outputs {
		visit(id)
	}
	for _, id := range live {
		c.states[id].expected = 0
	}
	for _, id := range live {
		for _, in := range c.g.nodes[id].inputs {
			if seen[in] {
				c.states[in].expected++
			}
		}
	}
	for _, id := range outputs {
		if seen[id] {
			c.states[id].expected++
		}
	}
}

func (c *Context) backward(opt Optimizer, id NodeID, gradient *tensor.Tensor) error {
	n := &c.g.nodes[id]
	st := &c.states[id]
	if !st.computed {
		return c.fail(id, PhaseBackward, nil, ErrNotComputed)
	}
	want := st.expected
	if want < 0 {
		want = len(n.consumers)
	}
	if st.fanIn >= want {
		return c.fail(id, PhaseBackward, nil,
			errors.Wrapf(ErrFanInOverflow, "%d expected", want))
	}

	err := c.guard(id, PhaseBackward, nil, func() {
		st.output.AssertMatching("gradient", gradient)
		switch {
		case want == 1:
			// Sole contribution: adopt it. Only copied tapes are ever
			// summed into, so the sender's tensor stays intact.
			st.tape = gradient
		case st.tape == nil:
			st.tape = gradient.CloneIn(c.arena)
		default:
			st.tape.SelfAdd(gradient)
		}
	})
	if err != nil {
		return err
	}
	st.fanIn++
	if st.fanIn < want {
		return nil
	}

	tape := st.tape
	st.tape = nil

	switch n.kind {
	case Operation:
		inputs, err := c.inputs(id, false)
		if err != nil {
			return err
		}
		scope := ops.NewScope(c.arena, c.training, c.rng, &st.scratch)
		for i, in := range n.inputs {
			if !c.g.nodes[in].trainable {
				continue
			}
			var partial *tensor.Tensor
			err := c.guard(id, PhaseBackward, inputs, func() {
				partial = n.kernel.Partial(scope, i, inputs, st.output, tape)
			})
			if err != nil {
				return err
			}
			if err := c.backward(opt, in, partial); err != nil {
				return err
			}
		}
	case Parameter:
		return c.guard(id, PhaseBackward, nil, func() {
			grad := tape
			if n.regularization != 0 {
				grad = tape.Add(n.value.MultiplyScalar(n.regularization))
			}
			opt.Update(n.value, grad)
		})
	}
	return nil
}

// guard runs f and converts a panic into an *ExecutionError for id.
func (c *Context) guard(id NodeID, phase Phase, inputs []*tensor.Tensor, f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = c.fail(id, phase, inputs, panicError(r))
		}
	}()
	f()
	return nil
}

func (c *Context) fail(id NodeID, phase Phase, inputs []*tensor.Tensor, cause error) *ExecutionError {
	n := &c.g.nodes[id]
	op := n.kind.String()
	if n.kernel != nil {
		op = n.kernel.Name()
	}
	e := &ExecutionError{Node: id, Name: c.g.Name(id), Op: op, Phase: phase, Err: cause}
	for _, v := range inputs {
		if v == nil {
			e.Inputs = append(e.Inputs, "<nil>")
			continue
		}
		e.Inputs = append(e.Inputs, v.Describe())
	}
	return e
}
