package layer

import (
	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

// MaxPool2D downsamples each channel by the maximum over pooling windows.
// It records the position of every maximum so the backward pass routes
// gradients to it.
type MaxPool2D struct {
	base
	pool

	argmax []int // flat input index of each output's maximum
}

// NewMaxPool2D creates a max pooling layer with poolW x poolH windows.
func NewMaxPool2D(poolW, poolH int, opts ...PoolOption) *MaxPool2D {
	return &MaxPool2D{
		base: base{name: "maxpool2d"},
		pool: newPool(poolW, poolH, opts),
	}
}

func (m *MaxPool2D) SetInputShape(dims []int) error {
	out, err := m.setShape(m.name, dims)
	if err != nil {
		return err
	}
	m.inShape = cloneInts(dims)
	m.outShape = out
	return nil
}

func (m *MaxPool2D) InitSpace(n int) {
	m.initSpace(n)
	size := m.output.Size()
	if cap(m.argmax) < size {
		m.argmax = make([]int, size)
	}
	m.argmax = m.argmax[:size]
}

// Forward picks the first maximum in each window.
func (m *MaxPool2D) Forward(x *tensor.Tensor, _ bool) (*tensor.Tensor, error) {
	if err := m.accept(x, m.InitSpace); err != nil {
		return nil, err
	}
	in, out := x.Data(), m.output.Data()
	inPlane, oPlane := m.iW*m.iH, m.oW*m.oH
	for p := 0; p < m.nC*m.numExamples; p++ {
		for i := 0; i < m.oH; i++ {
			for j := 0; j < m.oW; j++ {
				best := inPlane*p + m.iW*i*m.sH + j*m.sW
				for k := 0; k < m.pH; k++ {
					row := inPlane*p + m.iW*(i*m.sH+k) + j*m.sW
					for l := 0; l < m.pW; l++ {
						if in[row+l] > in[best] {
							best = row + l
						}
					}
				}
				o := oPlane*p + j + m.oW*i
				out[o] = in[best]
				m.argmax[o] = best
			}
		}
	}
	return m.output, nil
}

// Backward adds every output gradient to the input that won its window.
func (m *MaxPool2D) Backward(chainGrad *tensor.Tensor) (*tensor.Tensor, error) {
	if err := m.checkChain(chainGrad); err != nil {
		return nil, err
	}
	m.grad.Zero()
	grad := m.grad.Data()
	for o, v := range chainGrad.Data() {
		grad[m.argmax[o]] += v
	}
	return m.grad, nil
}
