package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

// pool holds the window geometry shared by the pooling layers.
type pool struct {
	pW, pH int
	sW, sH int

	iW, iH, nC int
	oW, oH     int
}

// PoolOption configures a pooling layer.
type PoolOption func(*pool)

// WithPoolStride sets the stride. The default equals the pool size.
func WithPoolStride(w, h int) PoolOption {
	return func(p *pool) {
		p.sW, p.sH = w, h
	}
}

func newPool(poolW, poolH int, opts []PoolOption) pool {
	p := pool{pW: poolW, pH: poolH, sW: poolW, sH: poolH}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// setShape validates dims for layer name and returns the output shape.
func (p *pool) setShape(name string, dims []int) ([]int, error) {
	switch len(dims) {
	case 2:
		p.iW, p.iH, p.nC = dims[0], dims[1], 1
	case 3:
		p.iW, p.iH, p.nC = dims[0], dims[1], dims[2]
	default:
		return nil, &ConfigError{Layer: name, Reason: fmt.Sprintf("input shape %v must have rank 2 or 3", dims)}
	}
	oW, err := windowSize(name, "width", p.iW, p.pW, p.sW)
	if err != nil {
		return nil, err
	}
	oH, err := windowSize(name, "height", p.iH, p.pH, p.sH)
	if err != nil {
		return nil, err
	}
	p.oW, p.oH = oW, oH
	if len(dims) == 2 {
		return []int{oW, oH}, nil
	}
	return []int{oW, oH, p.nC}, nil
}

// MeanPool2D downsamples each channel by the mean over pooling windows.
// Inputs have shape (width, height, channels) or (width, height).
type MeanPool2D struct {
	base
	pool
}

// NewMeanPool2D creates a mean pooling layer with poolW x poolH windows.
func NewMeanPool2D(poolW, poolH int, opts ...PoolOption) *MeanPool2D {
	return &MeanPool2D{
		base: base{name: "meanpool2d"},
		pool: newPool(poolW, poolH, opts),
	}
}

func (m *MeanPool2D) SetInputShape(dims []int) error {
	out, err := m.setShape(m.name, dims)
	if err != nil {
		return err
	}
	m.inShape = cloneInts(dims)
	m.outShape = out
	return nil
}

func (m *MeanPool2D) InitSpace(n int) {
	m.initSpace(n)
}

func (m *MeanPool2D) Forward(x *tensor.Tensor, _ bool) (*tensor.Tensor, error) {
	if err := m.accept(x, m.InitSpace); err != nil {
		return nil, err
	}
	in, out := x.Data(), m.output.Data()
	inPlane, oPlane := m.iW*m.iH, m.oW*m.oH
	area := float64(m.pW * m.pH)
	for p := 0; p < m.nC*m.numExamples; p++ {
		src, dst := in[inPlane*p:], out[oPlane*p:]
		for i := 0; i < m.oH; i++ {
			for j := 0; j < m.oW; j++ {
				sum := 0.0
				for k := 0; k < m.pH; k++ {
					row := src[m.iW*(i*m.sH+k)+j*m.sW:]
					for l := 0; l < m.pW; l++ {
						sum += row[l]
					}
				}
				dst[j+m.oW*i] = sum / area
			}
		}
	}
	return m.output, nil
}

// Backward spreads every output gradient evenly over its window. Windows
// that overlap add up; positions no window covers get zero.
func (m *MeanPool2D) Backward(chainGrad *tensor.Tensor) (*tensor.Tensor, error) {
	if err := m.checkChain(chainGrad); err != nil {
		return nil, err
	}
	m.grad.Zero()
	g, grad := chainGrad.Data(), m.grad.Data()
	inPlane, oPlane := m.iW*m.iH, m.oW*m.oH
	area := float64(m.pW * m.pH)
	for p := 0; p < m.nC*m.numExamples; p++ {
		src, dst := g[oPlane*p:], grad[inPlane*p:]
		for i := 0; i < m.oH; i++ {
			for j := 0; j < m.oW; j++ {
				v := src[j+m.oW*i] / area
				for k := 0; k < m.pH; k++ {
					row := dst[m.iW*(i*m.sH+k)+j*m.sW:]
					for l := 0; l < m.pW; l++ {
						row[l] += v
					}
				}
			}
		}
	}
	return m.grad, nil
}
