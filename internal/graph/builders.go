package graph

import "github.com/born-ml/neurograph/internal/graph/ops"

// The builders below add unnamed operation nodes and panic on construction
// errors, which are programming mistakes. Use Operation to get an error
// value instead.

func (g *Graph) must(k ops.Kernel, inputs ...NodeID) NodeID {
	id, err := g.Operation("", k, inputs...)
	if err != nil {
		panic(err)
	}
	return id
}

// Add returns a node computing a + b, broadcasting a flat operand over a
// matrix one.
func (g *Graph) Add(a, b NodeID) NodeID { return g.must(ops.Add{}, a, b) }

// Subtract returns a node computing a - b.
func (g *Graph) Subtract(a, b NodeID) NodeID { return g.must(ops.Subtract{}, a, b) }

// Multiply returns a node computing the element-wise product a ⊙ b.
func (g *Graph) Multiply(a, b NodeID) NodeID { return g.must(ops.Multiply{}, a, b) }

// MatMul returns a node computing a·b.
func (g *Graph) MatMul(a, b NodeID) NodeID { return g.must(ops.MatMul{}, a, b) }

// Transpose returns a node presenting a transposed.
func (g *Graph) Transpose(a NodeID) NodeID { return g.must(ops.Transpose{}, a) }

// Sigmoid returns a node applying the logistic function.
func (g *Graph) Sigmoid(a NodeID) NodeID { return g.must(ops.Sigmoid{}, a) }

// Tanh returns a node applying tanh.
func (g *Graph) Tanh(a NodeID) NodeID { return g.must(ops.Tanh{}, a) }

// ReLU returns a node applying max(0, x).
func (g *Graph) ReLU(a NodeID) NodeID { return g.must(ops.ReLU{}, a) }

// Exp returns a node applying e^x.
func (g *Graph) Exp(a NodeID) NodeID { return g.must(ops.Exp{}, a) }

// Log returns a node applying the natural logarithm.
func (g *Graph) Log(a NodeID) NodeID { return g.must(ops.Log{}, a) }

// Sum returns a node reducing a to one element.
func (g *Graph) Sum(a NodeID) NodeID { return g.must(ops.Sum{}, a) }

// Scale returns a node computing factor·a.
func (g *Graph) Scale(a NodeID, factor float64) NodeID {
	return g.must(ops.Scale{Factor: factor}, a)
}

// Dropout returns a node that drops elements with probability rate during
// training passes.
func (g *Graph) Dropout(a NodeID, rate float64) NodeID {
	return g.must(ops.Dropout{Rate: rate}, a)
}
