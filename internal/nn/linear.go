package nn

import (
	"github.com/born-ml/neurograph/internal/graph"
	"github.com/born-ml/neurograph/internal/tensor"
)

// Linear is a fully connected layer added to a graph.
//
// Performs the transformation: y = x·W + b
// where:
//   - x is the input with shape [batch, in]
//   - W is the weight matrix with shape [in, out]
//   - b is the bias vector of length out, broadcast over rows
//   - y is the output with shape [batch, out]
//
// Example:
//
//	g := graph.New()
//	x := g.Variable("x")
//	hidden := nn.NewLinear(g, x, 4, 8, nn.LinearConfig{Name: "hidden", Init: nn.NewXavier(1)})
//	out := g.Sigmoid(hidden.Output)
type Linear struct {
	Weight graph.NodeID
	Bias   graph.NodeID
	Output graph.NodeID
}

// LinearConfig configures NewLinear.
type LinearConfig struct {
	Name           string      // Prefix for parameter names ("<name>.weight", "<name>.bias")
	Init           Initializer // Weight initializer (default: zeros)
	Regularization float64     // L2 coefficient of the weights
}

// NewLinear adds the parameters and operations of a linear layer reading x.
// Biases start at zero.
func NewLinear(g *graph.Graph, x graph.NodeID, in, out int, cfg LinearConfig) *Linear {
	name := cfg.Name
	if name == "" {
		name = "linear"
	}
	w := tensor.NewMatrix(in, out)
	if cfg.Init != nil {
		cfg.Init.Apply(w)
	}
	l := &Linear{
		Weight: g.Parameter(name+".weight", w, cfg.Regularization),
		Bias:   g.Parameter(name+".bias", tensor.New(out), 0),
	}
	l.Output = g.Add(g.MatMul(x, l.Weight), l.Bias)
	return l
}
