package ops

import "github.com/born-ml/neurograph/internal/tensor"

// broadcast describes how a flat operand is stretched onto a matrix one.
type broadcast int

const (
	noBroadcast   broadcast = iota
	broadcastRows           // flat operand repeated as every row
	broadcastCols           // flat operand repeated as every column
)

// broadcastOf decides how operand y is presented against x.
func broadcastOf(x, y *tensor.Tensor) broadcast {
	if !x.IsMatrix() || y.IsMatrix() || x.Size() == y.Size() {
		return noBroadcast
	}
	switch y.Size() {
	case x.Cols():
		return broadcastRows
	case x.Rows():
		return broadcastCols
	}
	return noBroadcast
}

func expand(mode broadcast, x, y *tensor.Tensor) *tensor.Tensor {
	switch mode {
	case broadcastRows:
		return y.AsRows(x.Rows())
	case broadcastCols:
		return y.AsCols(x.Cols())
	}
	return y
}

// reduce sums broadcast contributions of tape back onto the flat operand.
func reduce(mode broadcast, tape *tensor.Tensor) *tensor.Tensor {
	switch mode {
	case broadcastRows:
		return tape.SumRows()
	case broadcastCols:
		return tape.SumCols()
	}
	return tape
}

// elementwisePair aligns the two inputs of a binary kernel, stretching a
// flat operand over the matrix one. It returns the aligned operands and
// the broadcast applied to each input.
func elementwisePair(inputs []*tensor.Tensor) (a, b *tensor.Tensor, modes [2]broadcast) {
	a, b = inputs[0], inputs[1]
	if m := broadcastOf(a, b); m != noBroadcast {
		return a, expand(m, a, b), [2]broadcast{noBroadcast, m}
	}
	if m := broadcastOf(b, a); m != noBroadcast {
		return expand(m, b, a), b, [2]broadcast{m, noBroadcast}
	}
	return a, b, modes
}

// Add computes x + y. A flat operand whose length equals the columns (or
// rows) of a matrix operand is repeated along the rows (or columns).
//
// Backward:
//
//	∂L/∂x = ∂L/∂out (summed over the broadcast axis when x was repeated)
//	∂L/∂y = ∂L/∂out (likewise)
type Add struct{}

// Name returns "add".
func (Add) Name() string { return "add" }

// Arity returns 2.
func (Add) Arity() int { return 2 }

// Forward computes x + y.
func (Add) Forward(_ *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	a, b, _ := elementwisePair(inputs)
	return a.Add(b)
}

// Partial passes the tape through, reducing it for broadcast inputs.
func (Add) Partial(_ *Scope, input int, inputs []*tensor.Tensor, _, tape *tensor.Tensor) *tensor.Tensor {
	_, _, modes := elementwisePair(inputs)
	return reduce(modes[input], tape)
}

// Subtract computes x - y with the same broadcasting rules as Add.
type Subtract struct{}

// Name returns "subtract".
func (Subtract) Name() string { return "subtract" }

// Arity returns 2.
func (Subtract) Arity() int { return 2 }

// Forward computes x - y.
func (Subtract) Forward(_ *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	a, b, _ := elementwisePair(inputs)
	return a.Subtract(b)
}

// Partial returns the tape for x and its negation for y.
func (Subtract) Partial(_ *Scope, input int, inputs []*tensor.Tensor, _, tape *tensor.Tensor) *tensor.Tensor {
	_, _, modes := elementwisePair(inputs)
	g := reduce(modes[input], tape)
	if input == 1 {
		return g.Negative()
	}
	return g
}

// Multiply computes the element-wise product x ⊙ y.
type Multiply struct{}

// Name returns "multiply".
func (Multiply) Name() string { return "multiply" }

// Arity returns 2.
func (Multiply) Arity() int { return 2 }

// Forward computes x ⊙ y.
func (Multiply) Forward(_ *Scope, inputs []*tensor.Tensor) *tensor.Tensor {
	a, b, _ := elementwisePair(inputs)
	return a.Multiply(b)
}

// Partial returns tape ⊙ other operand.
func (Multiply) Partial(_ *Scope, input int, inputs []*tensor.Tensor, _, tape *tensor.Tensor) *tensor.Tensor {
	a, b, modes := elementwisePair(inputs)
	other := b
	if input == 1 {
		other = a
	}
	return reduce(modes[input], tape.Multiply(other))
}
