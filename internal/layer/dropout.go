package layer

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

// Dropout implements inverted dropout regularization.
// During training, zeroes each input with probability p and scales the
// survivors by 1/(1-p). At test time it passes inputs through unchanged.
type Dropout struct {
	base
	p    float64
	rng  *rand.Rand
	mask []float64 // nil after a test-mode forward
}

// NewDropout creates a dropout layer dropping with probability p.
func NewDropout(p float64, seed uint64) *Dropout {
	return &Dropout{
		base: base{name: "dropout"},
		p:    p,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (d *Dropout) Reseed(seed uint64) {
	d.rng.Seed(seed)
}

func (d *Dropout) SetInputShape(dims []int) error {
	if d.p < 0 || d.p >= 1 {
		return &ConfigError{Layer: d.name, Reason: fmt.Sprintf("drop probability %v outside [0, 1)", d.p)}
	}
	d.inShape = cloneInts(dims)
	d.outShape = cloneInts(dims)
	return nil
}

func (d *Dropout) InitSpace(n int) {
	d.initSpace(n)
}

func (d *Dropout) Forward(x *tensor.Tensor, isTest bool) (*tensor.Tensor, error) {
	if err := d.accept(x, d.InitSpace); err != nil {
		return nil, err
	}
	if isTest {
		d.mask = nil
		return d.output, d.output.CopyFrom(x)
	}
	d.mask = growFloat(d.mask, x.Size())
	scale := 1 / (1 - d.p)
	out := d.output.Data()
	for i, v := range x.Data() {
		if d.rng.Float64() < d.p {
			d.mask[i] = 0
		} else {
			d.mask[i] = scale
		}
		out[i] = v * d.mask[i]
	}
	return d.output, nil
}

func (d *Dropout) Backward(chainGrad *tensor.Tensor) (*tensor.Tensor, error) {
	if err := d.checkChain(chainGrad); err != nil {
		return nil, err
	}
	if d.mask == nil {
		return d.grad, d.grad.CopyFrom(chainGrad)
	}
	grad := d.grad.Data()
	for i, g := range chainGrad.Data() {
		grad[i] = g * d.mask[i]
	}
	return d.grad, nil
}
