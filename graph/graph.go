// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph builds and executes differentiable computation graphs.
//
// Nodes are Variables (bound per execution), Constants, Parameters
// (learnable, updated only by an optimizer) and Operations (a kernel over a
// fixed number of inputs). All per-pass state lives in a Context, so one
// graph can be executed by several goroutines at once, each with its own
// context:
//
//	g := graph.New()
//	x := g.Variable("x")
//	w := g.Parameter("w", tensor.FromSlice([]float64{2}), 0)
//	y := g.Sigmoid(g.Multiply(w, x))
//
//	ctx := g.NewContext(0)
//	ctx.Begin(true)
//	_ = ctx.Bind(x, tensor.FromSlice([]float64{1}))
//	out, _ := ctx.RunPrediction(y)
//	_ = ctx.ForceBackpropagate(opt, y, dLoss(out))
//
// Failures inside kernels surface as *ExecutionError; structural problems
// are reported once by Validate as *TopologyError.
package graph

import (
	"github.com/born-ml/neurograph/internal/graph"
	"github.com/born-ml/neurograph/internal/graph/ops"
)

// Graph is an append-only DAG of nodes addressed by NodeID.
type Graph = graph.Graph

// NodeID is the index of a node within its Graph.
type NodeID = graph.NodeID

// Kind classifies nodes.
type Kind = graph.Kind

// Node kinds.
const (
	Variable  = graph.Variable
	Constant  = graph.Constant
	Parameter = graph.Parameter
	Operation = graph.Operation
)

// Context holds the mutable state of one pass over a graph.
type Context = graph.Context

// Optimizer receives accumulated Parameter gradients.
type Optimizer = graph.Optimizer

// Kernel is the forward/backward implementation of an operation node.
type Kernel = ops.Kernel

// Scope is the environment a kernel runs in.
type Scope = ops.Scope

// Errors.
type (
	// ExecutionError reports a kernel failure with node context.
	ExecutionError = graph.ExecutionError
	// TopologyError reports unreachable outputs and dead nodes.
	TopologyError = graph.TopologyError
)

// Sentinel errors.
var (
	ErrUnknownNode   = graph.ErrUnknownNode
	ErrArity         = graph.ErrArity
	ErrUnbound       = graph.ErrUnbound
	ErrFanInOverflow = graph.ErrFanInOverflow
)

// New creates an empty graph.
func New() *Graph { return graph.New() }
