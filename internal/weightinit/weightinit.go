// Package weightinit provides initial values for layer weights and biases.
package weightinit

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

// Initializer produces initial parameter tensors for a weighted layer.
type Initializer interface {
	// InitWeights returns a tensor of the given dims. fanIn and fanOut are
	// the number of inputs and outputs of one unit.
	InitWeights(fanIn, fanOut int, dims ...int) *tensor.Tensor

	// InitBias returns n initial bias values.
	InitBias(n int) *tensor.Tensor
}

// He draws weights from N(0, 2/fanIn). Biases start at zero.
// The zero value uses the global random source.
type He struct {
	src rand.Source
}

// NewHe creates a He initializer with a deterministic seed.
func NewHe(seed uint64) *He {
	return &He{src: rand.NewSource(seed)}
}

func (h *He) InitWeights(fanIn, fanOut int, dims ...int) *tensor.Tensor {
	dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(2 / float64(fanIn)), Src: h.src}
	return sample(dist.Rand, dims)
}

func (h *He) InitBias(n int) *tensor.Tensor {
	return tensor.New(n)
}

// Xavier draws weights uniformly from +-sqrt(6/(fanIn+fanOut)). Biases start at zero.
type Xavier struct {
	src rand.Source
}

// NewXavier creates a Xavier initializer with a deterministic seed.
func NewXavier(seed uint64) *Xavier {
	return &Xavier{src: rand.NewSource(seed)}
}

func (x *Xavier) InitWeights(fanIn, fanOut int, dims ...int) *tensor.Tensor {
	lim := math.Sqrt(6 / float64(fanIn+fanOut))
	dist := distuv.Uniform{Min: -lim, Max: lim, Src: x.src}
	return sample(dist.Rand, dims)
}

func (x *Xavier) InitBias(n int) *tensor.Tensor {
	return tensor.New(n)
}

// Constant fills weights and biases with fixed values.
type Constant struct {
	Weight float64
	Bias   float64
}

func (c Constant) InitWeights(_, _ int, dims ...int) *tensor.Tensor {
	t := tensor.New(dims...)
	t.Fill(c.Weight)
	return t
}

func (c Constant) InitBias(n int) *tensor.Tensor {
	t := tensor.New(n)
	t.Fill(c.Bias)
	return t
}

func sample(draw func() float64, dims []int) *tensor.Tensor {
	t := tensor.New(dims...)
	data := t.Data()
	for i := range data {
		data[i] = draw()
	}
	return t
}
