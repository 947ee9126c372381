package nn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/neurograph/internal/graph"
	"github.com/born-ml/neurograph/internal/tensor"
)

// Initializer fills a parameter tensor in place.
type Initializer interface {
	Apply(value *tensor.Tensor)
}

// ParameterSource exposes the learnable nodes of a model.
type ParameterSource interface {
	Graph() *graph.Graph
	Parameters() []graph.NodeID
}

// Initialize applies init to every Parameter reachable from the outputs of
// src. Call it once before training.
func Initialize(init Initializer, src ParameterSource) {
	g := src.Graph()
	for _, id := range src.Parameters() {
		init.Apply(g.Value(id))
	}
}

// fans returns fan_in and fan_out. Matrices are in×out weights of x·W;
// flat tensors count as a single column.
func fans(t *tensor.Tensor) (fanIn, fanOut int) {
	return t.Dims()
}

// Xavier (Glorot) initialization.
//
// Draws weights from U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))),
// which keeps activation variance roughly constant across layers.
type Xavier struct {
	rng *rand.Rand
}

// NewXavier creates a Xavier initializer with a seeded random source.
func NewXavier(seed uint64) *Xavier {
	return &Xavier{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Apply overwrites every element of value.
func (x *Xavier) Apply(value *tensor.Tensor) {
	fanIn, fanOut := fans(value)
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	for i := 0; i < value.Size(); i++ {
		value.Put(i, (x.rng.Float64()*2-1)*bound)
	}
}

// Kaiming (He) initialization for ReLU networks.
//
// Draws weights from N(0, sqrt(2/fan_in)).
type Kaiming struct {
	rng *rand.Rand
}

// NewKaiming creates a Kaiming initializer with a seeded random source.
func NewKaiming(seed uint64) *Kaiming {
	return &Kaiming{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Apply overwrites every element of value.
func (k *Kaiming) Apply(value *tensor.Tensor) {
	fanIn, _ := fans(value)
	std := math.Sqrt(2.0 / float64(fanIn))
	for i := 0; i < value.Size(); i++ {
		value.Put(i, k.rng.NormFloat64()*std)
	}
}

// Constant sets every element to Value. Constant{} zeroes parameters.
type Constant struct {
	Value float64
}

// Apply overwrites every element of value.
func (c Constant) Apply(value *tensor.Tensor) {
	for i := 0; i < value.Size(); i++ {
		value.Put(i, c.Value)
	}
}
