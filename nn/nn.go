// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides losses, initializers and layer builders for
// neurograph models.
//
// # Overview
//
//   - Losses: MSE, BinaryCrossEntropy
//   - Initializers: Xavier, Kaiming, Constant, applied with Initialize
//   - Layers: Linear (x·W + b)
//
// # Basic Usage
//
//	g := graph.New()
//	x := g.Variable("x")
//	hidden := nn.NewLinear(g, x, 4, 8, nn.LinearConfig{Name: "hidden", Init: nn.NewXavier(1)})
//	out := nn.NewLinear(g, g.Tanh(hidden.Output), 8, 1, nn.LinearConfig{Name: "out"})
//	m := model.New(g).AddInput(x).AddOutput(g.Sigmoid(out.Output))
package nn

import (
	"github.com/born-ml/neurograph/internal/graph"
	"github.com/born-ml/neurograph/internal/nn"
)

// MSE computes Mean Squared Error loss.
type MSE = nn.MSE

// BinaryCrossEntropy computes the binary cross-entropy of probabilities.
type BinaryCrossEntropy = nn.BinaryCrossEntropy

// Initializer fills a parameter tensor in place.
type Initializer = nn.Initializer

// ParameterSource exposes the learnable nodes of a model.
type ParameterSource = nn.ParameterSource

// Xavier (Glorot) uniform initialization.
type Xavier = nn.Xavier

// Kaiming (He) normal initialization.
type Kaiming = nn.Kaiming

// Constant initialization.
type Constant = nn.Constant

// NewXavier creates a seeded Xavier initializer.
func NewXavier(seed uint64) *Xavier { return nn.NewXavier(seed) }

// NewKaiming creates a seeded Kaiming initializer.
func NewKaiming(seed uint64) *Kaiming { return nn.NewKaiming(seed) }

// Initialize applies init to every Parameter of src.
func Initialize(init Initializer, src ParameterSource) { nn.Initialize(init, src) }

// Linear is a fully connected layer.
type Linear = nn.Linear

// LinearConfig configures NewLinear.
type LinearConfig = nn.LinearConfig

// NewLinear adds a linear layer reading x to g.
func NewLinear(g *graph.Graph, x graph.NodeID, in, out int, cfg LinearConfig) *Linear {
	return nn.NewLinear(g, x, in, out, cfg)
}
