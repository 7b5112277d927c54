package layer

import "github.com/FlavioCFOliveira/convnet/internal/tensor"

// Flatten collapses every example to a vector. Output and gradient are views
// of the input and chain gradient.
type Flatten struct {
	base
}

// NewFlatten creates a new flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{base: base{name: "flatten"}}
}

func (f *Flatten) SetInputShape(dims []int) error {
	f.inShape = cloneInts(dims)
	f.outShape = []int{product(dims)}
	return nil
}

func (f *Flatten) InitSpace(n int) {
	f.numExamples = n
}

func (f *Flatten) Forward(x *tensor.Tensor, _ bool) (*tensor.Tensor, error) {
	if f.inShape == nil {
		return nil, &ConfigError{Layer: f.name, Reason: "input shape not set"}
	}
	want := withExamples(f.inShape, x.LastDim())
	if got := x.Dims(); !sameInts(got, want) {
		return nil, &tensor.ShapeError{Op: "flatten forward", Got: got, Want: want}
	}
	f.InitSpace(x.LastDim())
	f.input = x
	out, err := x.Reshape(withExamples(f.outShape, f.numExamples)...)
	if err != nil {
		return nil, err
	}
	f.output = out
	return out, nil
}

func (f *Flatten) Backward(chainGrad *tensor.Tensor) (*tensor.Tensor, error) {
	if err := f.checkChain(chainGrad); err != nil {
		return nil, err
	}
	grad, err := chainGrad.Reshape(withExamples(f.inShape, f.numExamples)...)
	if err != nil {
		return nil, err
	}
	f.grad = grad
	return grad, nil
}
