package layer

import (
	"math"

	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

// Softmax normalizes every example to a probability distribution over all
// of its non-example elements.
type Softmax struct {
	base
}

// NewSoftmax creates a softmax layer.
func NewSoftmax() *Softmax {
	return &Softmax{base: base{name: "softmax"}}
}

func (s *Softmax) SetInputShape(dims []int) error {
	s.inShape = cloneInts(dims)
	s.outShape = cloneInts(dims)
	return nil
}

func (s *Softmax) InitSpace(n int) {
	s.initSpace(n)
}

// Forward subtracts each example's maximum before exponentiating so large
// logits cannot overflow.
func (s *Softmax) Forward(x *tensor.Tensor, _ bool) (*tensor.Tensor, error) {
	if err := s.accept(x, s.InitSpace); err != nil {
		return nil, err
	}
	dims2d := x.ShapeDims2D()
	x2d, err := x.Reshape(dims2d...)
	if err != nil {
		return nil, err
	}
	out2d, err := s.output.Reshape(dims2d...)
	if err != nil {
		return nil, err
	}

	maxes, err := x2d.Aggregate(0, tensor.AggMax)
	if err != nil {
		return nil, err
	}
	if _, err := x2d.BroadcastOp(0, maxes, tensor.OpSub, out2d); err != nil {
		return nil, err
	}
	if _, err := out2d.Apply(math.Exp, out2d); err != nil {
		return nil, err
	}
	sums, err := out2d.Aggregate(0, tensor.AggSum)
	if err != nil {
		return nil, err
	}
	if _, err := out2d.BroadcastOp(0, sums, tensor.OpDiv, out2d); err != nil {
		return nil, err
	}
	return s.output, nil
}

// Backward multiplies the chain gradient by the softmax Jacobian of every
// example, J[i][j] = y[i](delta(i,j) - y[j]).
func (s *Softmax) Backward(chainGrad *tensor.Tensor) (*tensor.Tensor, error) {
	if err := s.checkChain(chainGrad); err != nil {
		return nil, err
	}
	dims2d := s.output.ShapeDims2D()
	c, n := dims2d[0], dims2d[1]
	y, g, grad := s.output.Data(), chainGrad.Data(), s.grad.Data()
	for e := 0; e < n; e++ {
		ye, ge := y[e*c:(e+1)*c], g[e*c:(e+1)*c]
		for i := 0; i < c; i++ {
			sum := 0.0
			for j := 0; j < c; j++ {
				jac := -ye[j] * ye[i]
				if i == j {
					jac += ye[i]
				}
				sum += jac * ge[j]
			}
			grad[e*c+i] = sum
		}
	}
	return s.grad, nil
}
