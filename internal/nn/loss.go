// Package nn provides reference collaborators for the graph engine: loss
// functions, parameter initializers and layer builders.
package nn

import (
	"math"

	"github.com/born-ml/neurograph/internal/tensor"
)

// MSE computes Mean Squared Error loss.
//
//	Loss = mean((output - desired)²)
//	∂Loss/∂output = 2·(output - desired) / n
//
// MSE is commonly used for regression tasks where the goal is to predict
// continuous values.
type MSE struct{}

// Evaluate returns the mean squared error. Panics with
// *tensor.DimensionMismatchError when the shapes differ.
func (MSE) Evaluate(output, desired *tensor.Tensor) float64 {
	diff := output.Subtract(desired)
	if diff.Size() == 0 {
		return 0
	}
	return diff.Dot(diff) / float64(diff.Size())
}

// Derivative returns ∂Loss/∂output.
func (MSE) Derivative(output, desired *tensor.Tensor) *tensor.Tensor {
	diff := output.Subtract(desired)
	if diff.Size() == 0 {
		return diff
	}
	return diff.SelfMultiplyScalar(2 / float64(diff.Size()))
}

// bceEps keeps log and division away from 0 and 1.
const bceEps = 1e-12

// BinaryCrossEntropy computes the binary cross-entropy of probabilities in
// (0, 1) against targets in [0, 1].
//
//	Loss = -mean(d·log(o) + (1-d)·log(1-o))
//	∂Loss/∂o = (o - d) / (o·(1-o)) / n
//
// Outputs are clamped to [ε, 1-ε].
type BinaryCrossEntropy struct{}

// Evaluate returns the mean cross-entropy.
func (BinaryCrossEntropy) Evaluate(output, desired *tensor.Tensor) float64 {
	output.AssertMatching("BinaryCrossEntropy", desired)
	n := output.Size()
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		o, d := clamp(output.Get(i)), desired.Get(i)
		sum -= d*math.Log(o) + (1-d)*math.Log(1-o)
	}
	return sum / float64(n)
}

// Derivative returns ∂Loss/∂output.
func (BinaryCrossEntropy) Derivative(output, desired *tensor.Tensor) *tensor.Tensor {
	output.AssertMatching("BinaryCrossEntropy", desired)
	grad := tensor.DenseLike(nil, output)
	n := float64(output.Size())
	for i := 0; i < output.Size(); i++ {
		o, d := clamp(output.Get(i)), desired.Get(i)
		grad.Put(i, (o-d)/(o*(1-o))/n)
	}
	return grad
}

func clamp(p float64) float64 {
	return min(max(p, bceEps), 1-bceEps)
}
