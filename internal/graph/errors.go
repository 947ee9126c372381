package graph

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrUnknownNode     = errors.New("graph: unknown node")
	ErrArity           = errors.New("graph: wrong number of inputs")
	ErrNotVariable     = errors.New("graph: node is not a variable")
	ErrUnbound         = errors.New("graph: variable has no bound value")
	ErrNotComputed     = errors.New("graph: node has no output in this context")
	ErrFanInOverflow   = errors.New("graph: more gradient contributions than consumers")
	ErrGradientMissing = errors.New("graph: gradient count does not match outputs")
)

// Phase names the half of a pass in which a kernel failed.
type Phase string

// Execution phases.
const (
	PhaseForward  Phase = "forward"
	PhaseBackward Phase = "backward"
)

// ExecutionError reports a failure while running a node. It carries the
// node identity and a description of each immediate input value.
type ExecutionError struct {
	Node   NodeID
	Name   string   // Node name
	Op     string   // Kernel name, or the node kind for leaves
	Phase  Phase    // Forward or backward
	Inputs []string // Shapes of the input values, in input order
	Err    error    // Underlying cause
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "graph: %s of node %d %q (%s)", e.Phase, e.Node, e.Name, e.Op)
	if len(e.Inputs) > 0 {
		fmt.Fprintf(&b, " with inputs [%s]", strings.Join(e.Inputs, ", "))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error { return e.Err }

// TopologyError reports structural problems found by Validate.
type TopologyError struct {
	Unreachable []NodeID // Outputs that no input reaches
	Dead        []NodeID // Nodes fed by live nodes that never reach an output
}

// Error implements the error interface.
func (e *TopologyError) Error() string {
	var parts []string
	if len(e.Unreachable) > 0 {
		parts = append(parts, fmt.Sprintf("outputs %v unreachable from any input", e.Unreachable))
	}
	if len(e.Dead) > 0 {
		parts = append(parts, fmt.Sprintf("nodes %v never reach an output", e.Dead))
	}
	return "graph: invalid topology: " + strings.Join(parts, "; ")
}

// panicError turns a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.Errorf("panic: %v", r)
}
