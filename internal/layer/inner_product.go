package layer

import (
	"github.com/FlavioCFOliveira/convnet/internal/tensor"
	"github.com/FlavioCFOliveira/convnet/internal/weightinit"
)

// InnerProduct is a fully connected layer. Every input example is flattened
// to a vector of length nI; weights have shape [nI, numNeurons].
type InnerProduct struct {
	base
	numNeurons int
	inSize     int

	weights     *tensor.Tensor
	bias        *tensor.Tensor
	weightsGrad *tensor.Tensor
	biasGrad    *tensor.Tensor
}

// NewInnerProduct creates a fully connected layer with numNeurons outputs.
func NewInnerProduct(numNeurons int) *InnerProduct {
	return &InnerProduct{base: base{name: "inner product"}, numNeurons: numNeurons}
}

func (l *InnerProduct) SetInputShape(dims []int) error {
	if l.numNeurons <= 0 {
		return &ConfigError{Layer: l.name, Reason: "number of neurons must be positive"}
	}
	l.inShape = cloneInts(dims)
	l.inSize = product(dims)
	l.outShape = []int{l.numNeurons}
	return nil
}

func (l *InnerProduct) InitSpace(n int) {
	l.initSpace(n)
}

func (l *InnerProduct) InitParams(init weightinit.Initializer) {
	l.weights = init.InitWeights(l.inSize, l.numNeurons, l.inSize, l.numNeurons)
	l.bias = init.InitBias(l.numNeurons)
	l.weightsGrad = tensor.New(l.inSize, l.numNeurons)
	l.biasGrad = tensor.New(l.numNeurons)
}

func (l *InnerProduct) NumParams() int {
	return (l.inSize + 1) * l.numNeurons
}

func (l *InnerProduct) Weights() *tensor.Tensor     { return l.weights }
func (l *InnerProduct) Bias() *tensor.Tensor        { return l.bias }
func (l *InnerProduct) WeightsGrad() *tensor.Tensor { return l.weightsGrad }
func (l *InnerProduct) BiasGrad() *tensor.Tensor    { return l.biasGrad }

// Forward computes W^T x + b for every example.
func (l *InnerProduct) Forward(x *tensor.Tensor, _ bool) (*tensor.Tensor, error) {
	if l.weights == nil {
		return nil, ErrNoParams
	}
	if err := l.accept(x, l.InitSpace); err != nil {
		return nil, err
	}
	x2d, err := x.Reshape(l.inSize, x.LastDim())
	if err != nil {
		return nil, err
	}
	if _, err := l.weights.MatMul(true, false, x2d, l.output); err != nil {
		return nil, err
	}
	if _, err := l.output.BroadcastOp(1, l.bias, tensor.OpAdd, l.output); err != nil {
		return nil, err
	}
	return l.output, nil
}

// Backward computes W g.
func (l *InnerProduct) Backward(chainGrad *tensor.Tensor) (*tensor.Tensor, error) {
	if err := l.checkChain(chainGrad); err != nil {
		return nil, err
	}
	grad2d, err := l.grad.Reshape(l.inSize, l.numExamples)
	if err != nil {
		return nil, err
	}
	if _, err := l.weights.MatMul(false, false, chainGrad, grad2d); err != nil {
		return nil, err
	}
	return l.grad, nil
}

// UpdateParamGrad sets dW = x g^T and db = sum of g over the examples.
func (l *InnerProduct) UpdateParamGrad(chainGrad *tensor.Tensor) error {
	if err := l.checkChain(chainGrad); err != nil {
		return err
	}
	x2d, err := l.input.Reshape(l.inSize, l.numExamples)
	if err != nil {
		return err
	}
	if _, err := x2d.MatMul(false, true, chainGrad, l.weightsGrad); err != nil {
		return err
	}
	sums, err := chainGrad.Aggregate(1, tensor.AggSum)
	if err != nil {
		return err
	}
	return l.biasGrad.CopyFrom(sums)
}
