package layer

import (
	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/convnet/internal/activations"
	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

// Activation applies an elementwise activation function.
type Activation struct {
	base
	fn activations.Activation
}

// NewActivation creates an activation layer for fn.
func NewActivation(fn activations.Activation) *Activation {
	return &Activation{base: base{name: "activation"}, fn: fn}
}

// Func returns the wrapped activation function.
func (a *Activation) Func() activations.Activation {
	return a.fn
}

func (a *Activation) SetInputShape(dims []int) error {
	a.inShape = cloneInts(dims)
	a.outShape = cloneInts(dims)
	return nil
}

func (a *Activation) InitSpace(n int) {
	a.initSpace(n)
}

func (a *Activation) Forward(x *tensor.Tensor, _ bool) (*tensor.Tensor, error) {
	if err := a.accept(x, a.InitSpace); err != nil {
		return nil, err
	}
	out := a.output.Data()
	for i, v := range x.Data() {
		out[i] = a.fn.Activate(v)
	}
	return a.output, nil
}

func (a *Activation) Backward(chainGrad *tensor.Tensor) (*tensor.Tensor, error) {
	if err := a.checkChain(chainGrad); err != nil {
		return nil, err
	}
	in, out, grad := a.input.Data(), a.output.Data(), a.grad.Data()
	for i, g := range chainGrad.Data() {
		grad[i] = a.fn.Derivative(in[i], out[i]) * g
	}
	return a.grad, nil
}

// RReLU is a randomized leaky rectifier. In training every negative input
// gets its own slope drawn uniformly from [lower, upper); at test time the
// slope is the midpoint.
type RReLU struct {
	base
	lower, upper float64
	rng          *rand.Rand
	slopes       []float64
}

// NewRReLU creates an RReLU layer with the default range [1/8, 1/3).
func NewRReLU(seed uint64) *RReLU {
	return NewRReLUWithRange(1.0/8, 1.0/3, seed)
}

// NewRReLUWithRange creates an RReLU layer with slopes in [lower, upper).
func NewRReLUWithRange(lower, upper float64, seed uint64) *RReLU {
	return &RReLU{
		base:  base{name: "rrelu"},
		lower: lower,
		upper: upper,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (r *RReLU) Reseed(seed uint64) {
	r.rng.Seed(seed)
}

func (r *RReLU) SetInputShape(dims []int) error {
	r.inShape = cloneInts(dims)
	r.outShape = cloneInts(dims)
	return nil
}

func (r *RReLU) InitSpace(n int) {
	r.initSpace(n)
	size := product(r.inShape) * n
	if cap(r.slopes) < size {
		r.slopes = make([]float64, size)
	}
	r.slopes = r.slopes[:size]
}

func (r *RReLU) Forward(x *tensor.Tensor, isTest bool) (*tensor.Tensor, error) {
	if err := r.accept(x, r.InitSpace); err != nil {
		return nil, err
	}
	out := r.output.Data()
	mid := (r.lower + r.upper) / 2
	for i, v := range x.Data() {
		a := mid
		if !isTest {
			a = r.rng.Float64()*(r.upper-r.lower) + r.lower
		}
		r.slopes[i] = a
		if v > 0 {
			out[i] = v
		} else {
			out[i] = v * a
		}
	}
	return r.output, nil
}

func (r *RReLU) Backward(chainGrad *tensor.Tensor) (*tensor.Tensor, error) {
	if err := r.checkChain(chainGrad); err != nil {
		return nil, err
	}
	in, grad := r.input.Data(), r.grad.Data()
	for i, g := range chainGrad.Data() {
		if in[i] > 0 {
			grad[i] = g
		} else {
			grad[i] = r.slopes[i] * g
		}
	}
	return r.grad, nil
}
