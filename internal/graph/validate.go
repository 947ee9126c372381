package graph

import (
	"slices"

	"github.com/pkg/errors"
)

// Validate checks the topology between the given inputs and outputs. It
// reports, in one *TopologyError, every output that no input reaches and
// every dead node: a node fed by an ancestor of an output that does not
// itself lead to any output. Dead nodes are consumers whose gradient
// contribution a standalone Backpropagate would wait for forever.
//
// Validate returns nil when the topology is sound.
func (g *Graph) Validate(inputs, outputs []NodeID) error {
	for _, id := range slices.Concat(inputs, outputs) {
		if !g.valid(id) {
			return errors.Wrapf(ErrUnknownNode, "id %d", id)
		}
	}

	// Nodes from which an output is reachable.
	live := make([]bool, len(g.nodes))
	var up func(NodeID)
	up = func(id NodeID) {
		if live[id] {
			return
		}
		live[id] = true
		for _, in := range g.nodes[id].inputs {
			up(in)
		}
	}
	for _, out := range outputs {
		up(out)
	}

	// Nodes reachable from an input.
	fed := make([]bool, len(g.nodes))
	var down func(NodeID)
	down = func(id NodeID) {
		if fed[id] {
			return
		}
		fed[id] = true
		for _, c := range g.nodes[id].consumers {
			down(c)
		}
	}
	for _, in := range inputs {
		down(in)
	}

	var e TopologyError
	for _, out := range outputs {
		if !fed[out] && !slices.Contains(e.Unreachable, out) {
			e.Unreachable = append(e.Unreachable, out)
		}
	}
	for id := range g.nodes {
		if live[id] {
			continue
		}
		for _, in := range g.nodes[id].inputs {
			if live[in] {
				e.Dead = append(e.Dead, NodeID(id))
				break
			}
		}
	}
	if len(e.Unreachable) == 0 && len(e.Dead) == 0 {
		return nil
	}
	return &e
}
