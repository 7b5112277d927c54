// Package loss provides loss functions over batches of network outputs.
//
// Outputs carry examples on their last axis. Classification targets are a
// tensor of class indices with one entry per example; example weights, when
// used, have the same shape.
package loss

import (
	"math"

	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

// Epsilon is added to predicted probabilities before taking logarithms.
var Epsilon = math.Exp(-36)

// Loss computes a scalar loss and its gradient w.r.t. the network output.
type Loss interface {
	// Eval returns the loss of out against targets y with optional
	// per-example weights w.
	Eval(out, y, w *tensor.Tensor) (float64, error)

	// Backward returns the gradient of Eval w.r.t. out, shaped like out.
	Backward(out, y, w *tensor.Tensor) (*tensor.Tensor, error)
}

// SoftmaxShortcut is implemented by losses that know the closed form of
// their gradient composed with a softmax output layer, i.e. the gradient
// w.r.t. the softmax input.
type SoftmaxShortcut interface {
	SoftmaxGrad(out, y, w *tensor.Tensor) (*tensor.Tensor, error)
}

// CrossEntropy is the summed negative log-likelihood of the true classes.
type CrossEntropy struct{}

func (CrossEntropy) Eval(out, y, w *tensor.Tensor) (float64, error) {
	return crossEntropy(out, y, nil)
}

func (CrossEntropy) Backward(out, y, w *tensor.Tensor) (*tensor.Tensor, error) {
	return crossEntropyGrad(out, y, nil)
}

// SoftmaxGrad returns (p - onehot(y)) / (1 + eps/p_y), the gradient of
// -log(p_y + eps) w.r.t. the logits.
func (CrossEntropy) SoftmaxGrad(out, y, w *tensor.Tensor) (*tensor.Tensor, error) {
	return softmaxCrossEntropyGrad(out, y, nil)
}

// WeightedCrossEntropy scales the cross-entropy of every example by its weight.
type WeightedCrossEntropy struct{}

func (WeightedCrossEntropy) Eval(out, y, w *tensor.Tensor) (float64, error) {
	if w == nil {
		return 0, ErrMissingWeights
	}
	return crossEntropy(out, y, w)
}

func (WeightedCrossEntropy) Backward(out, y, w *tensor.Tensor) (*tensor.Tensor, error) {
	if w == nil {
		return nil, ErrMissingWeights
	}
	return crossEntropyGrad(out, y, w)
}

func (WeightedCrossEntropy) SoftmaxGrad(out, y, w *tensor.Tensor) (*tensor.Tensor, error) {
	if w == nil {
		return nil, ErrMissingWeights
	}
	return softmaxCrossEntropyGrad(out, y, w)
}

// MSE is the mean squared error over every element.
type MSE struct{}

func (MSE) Eval(out, y, _ *tensor.Tensor) (float64, error) {
	diff, err := out.Sub(y)
	if err != nil {
		return 0, err
	}
	return diff.SumSq() / float64(diff.Size()), nil
}

func (MSE) Backward(out, y, _ *tensor.Tensor) (*tensor.Tensor, error) {
	diff, err := out.Sub(y)
	if err != nil {
		return nil, err
	}
	diff.ScaleInPlace(2 / float64(diff.Size()))
	return diff, nil
}

// classView reshapes out to [classes, examples].
func classView(out *tensor.Tensor) (*tensor.Tensor, error) {
	return out.Reshape(out.ShapeDims2D()...)
}

func crossEntropy(out, y, w *tensor.Tensor) (float64, error) {
	out2d, err := classView(out)
	if err != nil {
		return 0, err
	}
	p, err := out2d.SelectByIndices(0, y)
	if err != nil {
		return 0, err
	}
	if w != nil && !w.SameShape(p) {
		return 0, &tensor.ShapeError{Op: "weighted cross entropy", Got: w.Dims(), Want: p.Dims()}
	}
	sum := 0.0
	for i, v := range p.Data() {
		l := -math.Log(v + Epsilon)
		if w != nil {
			l *= w.Data()[i]
		}
		sum += l
	}
	return sum, nil
}

// crossEntropyGrad returns -onehot(y) / (out + eps), times w when given.
func crossEntropyGrad(out, y, w *tensor.Tensor) (*tensor.Tensor, error) {
	out2d, err := classView(out)
	if err != nil {
		return nil, err
	}
	grad, err := y.Index(out2d.Dim(0))
	if err != nil {
		return nil, err
	}
	if !grad.SameShape(out2d) {
		return nil, &tensor.ShapeError{Op: "cross entropy", Got: grad.Dims(), Want: out2d.Dims()}
	}
	denom := out2d.Clone()
	denom.AddScalarInPlace(Epsilon)
	if _, err := grad.Elementwise(tensor.OpDiv, denom, grad); err != nil {
		return nil, err
	}
	grad.ScaleInPlace(-1)
	if w != nil {
		if _, err := grad.BroadcastOp(0, w, tensor.OpMul, grad); err != nil {
			return nil, err
		}
	}
	return grad.Reshape(out.Dims()...)
}

func softmaxCrossEntropyGrad(out, y, w *tensor.Tensor) (*tensor.Tensor, error) {
	out2d, err := classView(out)
	if err != nil {
		return nil, err
	}
	onehot, err := y.Index(out2d.Dim(0))
	if err != nil {
		return nil, err
	}
	grad, err := out2d.Sub(onehot)
	if err != nil {
		return nil, err
	}
	p, err := out2d.SelectByIndices(0, y)
	if err != nil {
		return nil, err
	}
	// 1 + eps/p_y
	if _, err := p.Scalar(tensor.OpRDiv, Epsilon, p); err != nil {
		return nil, err
	}
	p.AddScalarInPlace(1)
	if _, err := grad.BroadcastOp(0, p, tensor.OpDiv, grad); err != nil {
		return nil, err
	}
	if w != nil {
		if _, err := grad.BroadcastOp(0, w, tensor.OpMul, grad); err != nil {
			return nil, err
		}
	}
	return grad.Reshape(out.Dims()...)
}
