package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/convnet/internal/tensor"
	"github.com/FlavioCFOliveira/convnet/internal/weightinit"
)

// ConvAlgorithm selects how Conv2D computes its correlations.
type ConvAlgorithm int

const (
	// ConvDirect loops over every kernel offset.
	ConvDirect ConvAlgorithm = iota
	// ConvFFT multiplies spectra of power-of-two tiles and overlap-adds them.
	ConvFFT
)

func (a ConvAlgorithm) String() string {
	switch a {
	case ConvDirect:
		return "direct"
	case ConvFFT:
		return "fft"
	}
	return fmt.Sprintf("ConvAlgorithm(%d)", int(a))
}

// Conv2D is a 2D convolution (cross-correlation) layer without padding.
//
// Inputs have shape (width, height, channels) or (width, height) for a
// single channel. Weights have shape (kernelW, kernelH, channels, filters)
// and outputs (outW, outH, filters).
type Conv2D struct {
	base
	numFilters int
	kW, kH     int
	sW, sH     int
	algo       ConvAlgorithm

	iW, iH, nC int
	oW, oH     int

	weights     *tensor.Tensor
	bias        *tensor.Tensor
	weightsGrad *tensor.Tensor
	biasGrad    *tensor.Tensor

	fft *fftWorkspace
}

// ConvOption configures a Conv2D.
type ConvOption func(*Conv2D)

// WithStride sets the horizontal and vertical stride. The default is 1.
func WithStride(w, h int) ConvOption {
	return func(c *Conv2D) {
		c.sW, c.sH = w, h
	}
}

// WithAlgorithm selects the convolution backend. The default is ConvDirect.
func WithAlgorithm(a ConvAlgorithm) ConvOption {
	return func(c *Conv2D) {
		c.algo = a
	}
}

// NewConv2D creates a convolution layer with numFilters kernels of size
// kernelW x kernelH.
func NewConv2D(numFilters, kernelW, kernelH int, opts ...ConvOption) *Conv2D {
	c := &Conv2D{
		base:       base{name: "conv2d"},
		numFilters: numFilters,
		kW:         kernelW,
		kH:         kernelH,
		sW:         1,
		sH:         1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Algorithm returns the backend in use.
func (c *Conv2D) Algorithm() ConvAlgorithm {
	return c.algo
}

// SetAlgorithm switches the backend. Parameters are kept.
func (c *Conv2D) SetAlgorithm(a ConvAlgorithm) {
	c.algo = a
}

func (c *Conv2D) SetInputShape(dims []int) error {
	switch len(dims) {
	case 2:
		c.iW, c.iH, c.nC = dims[0], dims[1], 1
	case 3:
		c.iW, c.iH, c.nC = dims[0], dims[1], dims[2]
	default:
		return &ConfigError{Layer: c.name, Reason: fmt.Sprintf("input shape %v must have rank 2 or 3", dims)}
	}
	if c.numFilters <= 0 {
		return &ConfigError{Layer: c.name, Reason: "number of filters must be positive"}
	}
	oW, err := windowSize(c.name, "width", c.iW, c.kW, c.sW)
	if err != nil {
		return err
	}
	oH, err := windowSize(c.name, "height", c.iH, c.kH, c.sH)
	if err != nil {
		return err
	}
	c.oW, c.oH = oW, oH
	c.inShape = cloneInts(dims)
	c.outShape = []int{oW, oH, c.numFilters}
	return nil
}

func (c *Conv2D) InitSpace(n int) {
	c.initSpace(n)
}

func (c *Conv2D) InitParams(init weightinit.Initializer) {
	c.weights = init.InitWeights(c.nC, c.numFilters, c.kW, c.kH, c.nC, c.numFilters)
	c.bias = init.InitBias(c.numFilters)
	c.weightsGrad = tensor.New(c.kW, c.kH, c.nC, c.numFilters)
	c.biasGrad = tensor.New(c.numFilters)
}

func (c *Conv2D) NumParams() int {
	return (c.kW*c.kH*c.nC + 1) * c.numFilters
}

func (c *Conv2D) Weights() *tensor.Tensor     { return c.weights }
func (c *Conv2D) Bias() *tensor.Tensor        { return c.bias }
func (c *Conv2D) WeightsGrad() *tensor.Tensor { return c.weightsGrad }
func (c *Conv2D) BiasGrad() *tensor.Tensor    { return c.biasGrad }

func (c *Conv2D) workspace() *fftWorkspace {
	if c.fft == nil {
		c.fft = &fftWorkspace{}
	}
	return c.fft
}

func (c *Conv2D) Forward(x *tensor.Tensor, _ bool) (*tensor.Tensor, error) {
	if c.weights == nil {
		return nil, ErrNoParams
	}
	if err := c.accept(x, c.InitSpace); err != nil {
		return nil, err
	}
	g := c.geometry()
	switch c.algo {
	case ConvFFT:
		c.workspace().forward(g, x.Data(), c.weights.Data(), c.bias.Data(), c.output.Data())
	default:
		directForward(g, x.Data(), c.weights.Data(), c.bias.Data(), c.output.Data())
	}
	return c.output, nil
}

// Backward computes the full convolution of the chain gradient with the
// kernels. Input positions no window covers get zero.
func (c *Conv2D) Backward(chainGrad *tensor.Tensor) (*tensor.Tensor, error) {
	if err := c.checkChain(chainGrad); err != nil {
		return nil, err
	}
	g := c.geometry()
	switch c.algo {
	case ConvFFT:
		c.workspace().backwardInput(g, chainGrad.Data(), c.weights.Data(), c.grad.Data())
	default:
		directBackwardInput(g, chainGrad.Data(), c.weights.Data(), c.grad.Data())
	}
	return c.grad, nil
}

// UpdateParamGrad correlates the last input with the chain gradient, summed
// over the batch, and sums the chain gradient per filter for the bias.
func (c *Conv2D) UpdateParamGrad(chainGrad *tensor.Tensor) error {
	if err := c.checkChain(chainGrad); err != nil {
		return err
	}
	g := c.geometry()
	switch c.algo {
	case ConvFFT:
		c.workspace().weightGrad(g, c.input.Data(), chainGrad.Data(), c.weightsGrad.Data())
	default:
		directWeightGrad(g, c.input.Data(), chainGrad.Data(), c.weightsGrad.Data())
	}
	sums, err := chainGrad.AggregateAll(2, tensor.AggSum)
	if err != nil {
		return err
	}
	return c.biasGrad.CopyFrom(sums)
}

// convGeometry carries the sizes the convolution kernels index with.
type convGeometry struct {
	iW, iH, nC int
	kW, kH, nK int
	sW, sH     int
	oW, oH     int
	n          int
}

func (c *Conv2D) geometry() convGeometry {
	return convGeometry{
		iW: c.iW, iH: c.iH, nC: c.nC,
		kW: c.kW, kH: c.kH, nK: c.numFilters,
		sW: c.sW, sH: c.sH,
		oW: c.oW, oH: c.oH,
		n: c.numExamples,
	}
}
