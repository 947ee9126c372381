// Package graph implements the differentiable computation graph.
//
// A Graph owns every node in a single slice; nodes refer to their inputs and
// consumers by NodeID. The graph itself holds only structure, leaf values
// and the cross-pass cache of constant nodes. Everything a pass mutates
// (outputs, gradient tapes, fan-in counters, kernel scratch) lives in a
// Context, so several contexts can run forward and backward passes over the
// same graph and the same Parameter tensors at once.
//
// Example:
//
//	g := graph.New()
//	x := g.Variable("x")
//	w := g.Parameter("w", tensor.FromSlice([]float64{2}), 0)
//	b := g.Parameter("b", tensor.FromSlice([]float64{1}), 0)
//	y := g.Sigmoid(g.Add(g.Multiply(w, x), b))
//
//	ctx := g.NewContext(0)
//	ctx.Begin(false)
//	_ = ctx.Bind(x, tensor.FromSlice([]float64{0}))
//	out, err := ctx.RunPrediction(y) // ≈ 0.7311
//
// Building a graph is not safe for concurrent use and must finish before
// contexts start executing it.
package graph

import (
	"fmt"
	"sync"

	"github.com/born-ml/neurograph/internal/graph/ops"
	"github.com/born-ml/neurograph/internal/tensor"
	"github.com/pkg/errors"
)

// NodeID is the index of a node within its Graph.
type NodeID int

// Kind classifies nodes.
type Kind int

// Node kinds.
const (
	Variable  Kind = iota // Value bound per context
	Constant              // Fixed value
	Parameter             // Learnable value, mutated only by an Optimizer
	Operation             // Kernel applied to inputs
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Variable:
		return "variable"
	case Constant:
		return "constant"
	case Parameter:
		return "parameter"
	case Operation:
		return "operation"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type node struct {
	kind      Kind
	name      string
	inputs    []NodeID
	consumers []NodeID // One entry per input edge, so duplicates are possible
	kernel    ops.Kernel
	value     *tensor.Tensor // Constant and Parameter values

	regularization float64 // L2 coefficient for Parameters

	// constant is set when the node's value can never change: no Variable,
	// Parameter or Randomized kernel in its input closure.
	constant bool
	// trainable is set when a Parameter is in the node's input closure
	// (including the node itself). Gradients only flow into such nodes.
	trainable bool
}

// Graph is an append-only DAG of nodes.
type Graph struct {
	nodes []node

	mu    sync.RWMutex
	cache map[NodeID]*tensor.Tensor // Outputs of constant operation nodes
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{cache: make(map[NodeID]*tensor.Tensor)}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Variable adds a node whose value is bound per context with Context.Bind.
func (g *Graph) Variable(name string) NodeID {
	return g.add(node{kind: Variable, name: name})
}

// Constant adds a node with a fixed value. value must not be modified
// afterwards.
func (g *Graph) Constant(name string, value *tensor.Tensor) NodeID {
	return g.add(node{kind: Constant, name: name, value: value, constant: true})
}

// Parameter adds a learnable node. regularization is the L2 coefficient λ:
// the gradient handed to the optimizer is tape + λ·value.
func (g *Graph) Parameter(name string, value *tensor.Tensor, regularization float64) NodeID {
	return g.add(node{kind: Parameter, name: name, value: value, regularization: regularization, trainable: true})
}

// Operation adds a node applying k to inputs. It fails when the number of
// inputs differs from k.Arity() or an input is not part of the graph.
func (g *Graph) Operation(name string, k ops.Kernel, inputs ...NodeID) (NodeID, error) {
	if len(inputs) != k.Arity() {
		return -1, errors.Wrapf(ErrArity, "%s expects %d, got %d", k.Name(), k.Arity(), len(inputs))
	}
	n := node{
		kind:     Operation,
		name:     name,
		inputs:   append([]NodeID(nil), inputs...),
		kernel:   k,
		constant: !ops.IsRandomized(k),
	}
	for _, in := range inputs {
		if !g.valid(in) {
			return -1, errors.Wrapf(ErrUnknownNode, "input %d of %s", in, k.Name())
		}
		src := &g.nodes[in]
		n.constant = n.constant && src.constant
		n.trainable = n.trainable || src.trainable
	}
	id := g.add(n)
	for _, in := range inputs {
		g.nodes[in].consumers = append(g.nodes[in].consumers, id)
	}
	return id, nil
}

func (g *Graph) add(n node) NodeID {
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

func (g *Graph) node(id NodeID) *node {
	if !g.valid(id) {
		panic(errors.Wrapf(ErrUnknownNode, "id %d", id))
	}
	return &g.nodes[id]
}

// Kind returns the kind of node id.
func (g *Graph) Kind(id NodeID) Kind { return g.node(id).kind }

// Name returns the node name, or "<op>#<id>" for unnamed nodes.
func (g *Graph) Name(id NodeID) string {
	n := g.node(id)
	if n.name != "" {
		return n.name
	}
	op := n.kind.String()
	if n.kernel != nil {
		op = n.kernel.Name()
	}
	return fmt.Sprintf("%s#%d", op, id)
}

// Inputs returns the inputs of id in argument order.
func (g *Graph) Inputs(id NodeID) []NodeID {
	return append([]NodeID(nil), g.node(id).inputs...)
}

// Consumers returns the nodes that take id as an input, once per edge.
func (g *Graph) Consumers(id NodeID) []NodeID {
	return append([]NodeID(nil), g.node(id).consumers...)
}

// Value returns the tensor held by a Constant or Parameter node, nil
// otherwise. Parameter values are live: optimizers update them in place.
func (g *Graph) Value(id NodeID) *tensor.Tensor { return g.node(id).value }

// Regularization returns the L2 coefficient of a Parameter node.
func (g *Graph) Regularization(id NodeID) float64 { return g.node(id).regularization }

// Kernel returns the kernel of an Operation node, nil otherwise.
func (g *Graph) Kernel(id NodeID) ops.Kernel { return g.node(id).kernel }

// IsConstant reports whether id always evaluates to the same value.
func (g *Graph) IsConstant(id NodeID) bool { return g.node(id).constant }

// IsTrainable reports whether a Parameter feeds id.
func (g *Graph) IsTrainable(id NodeID) bool { return g.node(id).trainable }

// Parameters walks from outputs along input edges and returns the reachable
// Parameter nodes in depth-first order, each once.
func (g *Graph) Parameters(outputs ...NodeID) []NodeID {
	seen := make([]bool, len(g.nodes))
	var params []NodeID
	var visit func(NodeID)
	visit = func(id NodeID) {
		if seen[id] {
			return
		}
		seen[id] = true
		n := g.node(id)
		if n.kind == Parameter {
			params = append(params, id)
		}
		for _, in := range n.inputs {
			visit(in)
		}
	}
	for _, out := range outputs {
		visit(out)
	}
	return params
}

// CachedConstants returns how many constant operation outputs are cached.
func (g *Graph) CachedConstants() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cache)
}

// ClearCache drops the cached outputs of constant operation nodes.
func (g *Graph) ClearCache() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.cache)
}

func (g *Graph) cached(id NodeID) (*tensor.Tensor, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.cache[id]
	return v, ok
}

// storeCached keeps the first value stored for id and returns it, so racing
// contexts agree on one tensor.
func (g *Graph) storeCached(id NodeID, v *tensor.Tensor) *tensor.Tensor {
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.cache[id]; ok {
		return prev
	}
	g.cache[id] = v
	return v
}
