package graph

import (
	"sync"
	"testing"

	"github.com/born-ml/neurograph/internal/graph/ops"
	"github.com/born-ml/neurograph/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is an Optimizer that sums the gradients it receives per value.
type recorder struct {
	mu    sync.Mutex
	grads map[*tensor.Tensor]*tensor.Tensor
	calls int
}

func newRecorder() *recorder {
	return &recorder{grads: make(map[*tensor.Tensor]*tensor.Tensor)}
}

func (r *recorder) Update(value, gradient *tensor.Tensor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if g, ok := r.grads[value]; ok {
		g.SelfAdd(gradient)
		return
	}
	r.grads[value] = gradient.Copy()
}

func (r *recorder) gradient(g *Graph, id NodeID) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.grads[g.Value(id)]; ok {
		return v.Values()
	}
	return nil
}

// identity passes its input through and counts Partial calls.
type identity struct{ partials *int }

func (identity) Name() string { return "identity" }
func (identity) Arity() int   { return 1 }

func (identity) Forward(_ *ops.Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	return inputs[0]
}

func (k identity) Partial(_ *ops.Scope, _ int, _ []*tensor.Tensor, _, tape *tensor.Tensor) *tensor.Tensor {
	*k.partials++
	return tape
}

func scalar(v float64) *tensor.Tensor { return tensor.FromSlice([]float64{v}) }

// Construction Tests

func TestGraph_Kinds(t *testing.T) {
	g := New()
	x := g.Variable("x")
	c := g.Constant("c", scalar(1))
	p := g.Parameter("p", scalar(2), 0.5)
	y := g.Add(g.Multiply(p, x), c)

	assert.Equal(t, Variable, g.Kind(x))
	assert.Equal(t, Constant, g.Kind(c))
	assert.Equal(t, Parameter, g.Kind(p))
	assert.Equal(t, Operation, g.Kind(y))
	assert.Equal(t, "operation", g.Kind(y).String())
	assert.Equal(t, 0.5, g.Regularization(p))
	assert.Equal(t, "add", g.Kernel(y).Name())
	assert.Nil(t, g.Kernel(x))
	assert.Equal(t, 5, g.Len())
}

func TestGraph_Names(t *testing.T) {
	g := New()
	x := g.Variable("x")
	y := g.Exp(x)
	z, err := g.Operation("activation", ops.Tanh{}, y)
	require.NoError(t, err)

	assert.Equal(t, "x", g.Name(x))
	assert.Equal(t, "exp#1", g.Name(y))
	assert.Equal(t, "activation", g.Name(z))
}

func TestGraph_Edges(t *testing.T) {
	g := New()
	x := g.Variable("x")
	sq := g.Multiply(x, x)

	assert.Equal(t, []NodeID{x, x}, g.Inputs(sq))
	assert.Equal(t, []NodeID{sq, sq}, g.Consumers(x), "one consumer entry per edge")
}

func TestGraph_Flags(t *testing.T) {
	g := New()
	x := g.Variable("x")
	c := g.Constant("c", scalar(1))
	p := g.Parameter("p", scalar(1), 0)

	folded := g.Exp(g.Add(c, c))
	assert.True(t, g.IsConstant(folded))
	assert.False(t, g.IsTrainable(folded))

	varying := g.Add(x, c)
	assert.False(t, g.IsConstant(varying))
	assert.False(t, g.IsTrainable(varying))

	learned := g.Multiply(p, c)
	assert.False(t, g.IsConstant(learned), "parameters change between passes")
	assert.True(t, g.IsTrainable(learned))

	dropped := g.Dropout(c, 0.5)
	assert.False(t, g.IsConstant(dropped), "randomized kernels are never constant")
}

func TestOperation_Errors(t *testing.T) {
	g := New()
	x := g.Variable("x")

	_, err := g.Operation("", ops.Add{}, x)
	assert.ErrorIs(t, err, ErrArity)

	_, err = g.Operation("", ops.Exp{}, NodeID(42))
	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.Equal(t, 1, g.Len(), "failed operations add no node")

	assert.Panics(t, func() { g.Add(x, NodeID(-1)) })
}

func TestGraph_Parameters(t *testing.T) {
	g := New()
	x := g.Variable("x")
	w := g.Parameter("w", scalar(1), 0)
	b := g.Parameter("b", scalar(1), 0)
	unused := g.Parameter("unused", scalar(1), 0)
	y := g.Add(g.Multiply(w, x), b)
	_ = g.Exp(unused)

	assert.Equal(t, []NodeID{w, b}, g.Parameters(y))
	assert.Equal(t, []NodeID{w, b}, g.Parameters(y, y))
}

// Validate Tests

func TestValidate_Sound(t *testing.T) {
	g := New()
	x := g.Variable("x")
	p := g.Parameter("p", scalar(1), 0)
	y := g.Sigmoid(g.Add(x, p))
	assert.NoError(t, g.Validate([]NodeID{x}, []NodeID{y}))
}

func TestValidate_DeadNode(t *testing.T) {
	g := New()
	x := g.Variable("x")
	y := g.Exp(x)
	dead := g.Tanh(x)

	err := g.Validate([]NodeID{x}, []NodeID{y})
	var te *TopologyError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, []NodeID{dead}, te.Dead)
	assert.Empty(t, te.Unreachable)
	assert.Contains(t, err.Error(), "never reach an output")
}

func TestValidate_Unreachable(t *testing.T) {
	g := New()
	x := g.Variable("x")
	y := g.Exp(x)
	c := g.Constant("c", scalar(1))
	orphan := g.Exp(c)

	err := g.Validate([]NodeID{x}, []NodeID{y, orphan})
	var te *TopologyError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, []NodeID{orphan}, te.Unreachable)
}

func TestValidate_UnknownNode(t *testing.T) {
	g := New()
	x := g.Variable("x")
	assert.ErrorIs(t, g.Validate([]NodeID{x}, []NodeID{7}), ErrUnknownNode)
}

// Cache Tests

func TestConstantCache_SharedAcrossContexts(t *testing.T) {
	g := New()
	a := g.Constant("a", scalar(1))
	b := g.Constant("b", scalar(2))
	e := g.Exp(g.Add(a, b))

	c1, c2 := g.NewContext(0), g.NewContext(1)
	c1.Begin(false)
	c2.Begin(false)

	v1, err := c1.RunPrediction(e)
	require.NoError(t, err)
	assert.Equal(t, 2, g.CachedConstants())

	v2, err := c2.RunPrediction(e)
	require.NoError(t, err)
	assert.Same(t, v1, v2)

	// The cached value survives the pass that produced it.
	c1.Begin(false)
	v3, err := c1.RunPrediction(e)
	require.NoError(t, err)
	assert.Same(t, v1, v3)

	g.ClearCache()
	assert.Equal(t, 0, g.CachedConstants())
}
