// Package layer provides neural network layer implementations.
//
// Shapes given to SetInputShape exclude the example axis. The tensors passed
// to Forward and Backward carry the examples on their last axis.
package layer

import (
	"github.com/FlavioCFOliveira/convnet/internal/tensor"
	"github.com/FlavioCFOliveira/convnet/internal/weightinit"
)

// Layer is a neural network layer with manual forward and backward passes.
type Layer interface {
	// SetInputShape fixes the per-example input shape and derives the output
	// shape. Invalid configurations are rejected here, before data flows.
	SetInputShape(dims []int) error
	InputShape() []int
	OutputShape() []int

	// InitSpace sizes the per-batch buffers for numExamples examples. Forward
	// calls it when the batch size changes.
	InitSpace(numExamples int)

	// Forward computes the output for x and caches x for Backward.
	Forward(x *tensor.Tensor, isTest bool) (*tensor.Tensor, error)

	// Backward takes the gradient of the loss w.r.t. the last output and
	// returns the gradient w.r.t. the last input.
	Backward(chainGrad *tensor.Tensor) (*tensor.Tensor, error)

	// Output returns the output of the last Forward.
	Output() *tensor.Tensor

	// Gradient returns the input gradient of the last Backward.
	Gradient() *tensor.Tensor
}

// Parametric is a layer owning learnable weights and biases.
type Parametric interface {
	Layer

	// InitParams allocates and initializes weights, bias and their gradients.
	// The input shape must be set first.
	InitParams(init weightinit.Initializer)

	// NumParams is the number of weights plus the number of biases.
	NumParams() int

	Weights() *tensor.Tensor
	Bias() *tensor.Tensor
	WeightsGrad() *tensor.Tensor
	BiasGrad() *tensor.Tensor

	// UpdateParamGrad overwrites the weight and bias gradients from the
	// gradient w.r.t. the output of the last Forward.
	UpdateParamGrad(chainGrad *tensor.Tensor) error
}

// Stochastic is implemented by layers that draw random numbers in training
// mode. Reseeding with the same seed repeats the same draws.
type Stochastic interface {
	Reseed(seed uint64)
}

// base holds the state every layer shares: its shapes and the cached
// tensors of the batch in flight.
type base struct {
	name     string
	inShape  []int
	outShape []int

	numExamples int
	input       *tensor.Tensor // last forward input, owned by the caller
	output      *tensor.Tensor
	grad        *tensor.Tensor
}

func (b *base) InputShape() []int {
	return cloneInts(b.inShape)
}

func (b *base) OutputShape() []int {
	return cloneInts(b.outShape)
}

func (b *base) Output() *tensor.Tensor {
	return b.output
}

func (b *base) Gradient() *tensor.Tensor {
	return b.grad
}

// initSpace resizes the output and gradient buffers for n examples.
func (b *base) initSpace(n int) {
	b.numExamples = n
	b.output = resize(b.output, withExamples(b.outShape, n))
	b.grad = resize(b.grad, withExamples(b.inShape, n))
}

// accept validates x against the input shape, resizes the buffers through
// initSpace when the batch size changed, and caches x.
func (b *base) accept(x *tensor.Tensor, initSpace func(int)) error {
	if b.inShape == nil {
		return &ConfigError{Layer: b.name, Reason: "input shape not set"}
	}
	want := withExamples(b.inShape, x.LastDim())
	if got := x.Dims(); !sameInts(got, want) {
		return &tensor.ShapeError{Op: b.name + " forward", Got: got, Want: want}
	}
	if n := x.LastDim(); n != b.numExamples || b.output == nil {
		initSpace(n)
	}
	b.input = x
	return nil
}

// checkChain validates a chain gradient against the output of the last forward.
func (b *base) checkChain(chainGrad *tensor.Tensor) error {
	if b.input == nil {
		return ErrNoForward
	}
	if !chainGrad.SameShape(b.output) {
		return &tensor.ShapeError{Op: b.name + " backward", Got: chainGrad.Dims(), Want: b.output.Dims()}
	}
	return nil
}

func resize(t *tensor.Tensor, dims []int) *tensor.Tensor {
	if t == nil {
		return tensor.New(dims...)
	}
	return t.Resize(dims...)
}

func withExamples(dims []int, n int) []int {
	out := make([]int, len(dims)+1)
	copy(out, dims)
	out[len(dims)] = n
	return out
}

func cloneInts(s []int) []int {
	if s == nil {
		return nil
	}
	c := make([]int, len(s))
	copy(c, s)
	return c
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
