package model

import (
	"io"
	"strconv"

	"github.com/born-ml/neurograph/internal/graph"
	"github.com/born-ml/neurograph/internal/serialization"
	"github.com/born-ml/neurograph/internal/tensor"
	"github.com/pkg/errors"
)

// Snapshot is a copy of parameter values keyed by node.
type Snapshot map[graph.NodeID]*tensor.Tensor

// Snapshot copies the current value of every parameter.
func (m *Model) Snapshot() Snapshot {
	s := make(Snapshot)
	for _, id := range m.Parameters() {
		s[id] = m.g.Value(id).Copy()
	}
	return s
}

// Restore writes the values of s back into the parameters. It must not run
// concurrently with passes over the model.
func (m *Model) Restore(s Snapshot) error {
	for id, v := range s {
		if m.g.Kind(id) != graph.Parameter {
			return errors.Errorf("model: restore: node %d is a %s", id, m.g.Kind(id))
		}
		if err := tensor.Try(func() { m.g.Value(id).Assign(v) }); err != nil {
			return errors.Wrapf(err, "model: restore %s", m.g.Name(id))
		}
	}
	return nil
}

// SaveParameters writes every parameter to w in the .born format, named
// after its node.
func (m *Model) SaveParameters(w io.Writer, meta map[string]string) error {
	params := m.Parameters()
	named := make([]serialization.Named, len(params))
	for i, id := range params {
		named[i] = serialization.Named{Name: m.g.Name(id), Value: m.g.Value(id)}
	}
	header := serialization.Header{RunID: m.id.String(), Metadata: meta}
	if header.Metadata == nil {
		header.Metadata = map[string]string{}
	}
	header.Metadata["inputs"] = strconv.Itoa(len(m.inputs))
	header.Metadata["outputs"] = strconv.Itoa(len(m.outputs))
	return errors.Wrap(serialization.Write(w, named, header), "model: save parameters")
}

// LoadParameters reads a checkpoint written by SaveParameters and assigns
// each stored tensor to the parameter of the same name. Every parameter
// must be present with a matching shape.
func (m *Model) LoadParameters(r io.Reader) error {
	ckpt, err := serialization.Read(r, serialization.ReaderOptions{})
	if err != nil {
		return errors.Wrap(err, "model: load parameters")
	}
	s := make(Snapshot)
	for _, id := range m.Parameters() {
		name := m.g.Name(id)
		v, ok := ckpt.Tensors[name]
		if !ok {
			return errors.Errorf("model: load parameters: %q missing from checkpoint", name)
		}
		if !m.g.Value(id).IsMatching(v) {
			return errors.Errorf("model: load parameters: %q is %s, checkpoint has %s",
				name, m.g.Value(id).Describe(), v.Describe())
		}
		s[id] = v
	}
	return m.Restore(s)
}
