// Package net assembles layers into a trainable model.
package net

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/convnet/internal/layer"
	"github.com/FlavioCFOliveira/convnet/internal/loss"
	"github.com/FlavioCFOliveira/convnet/internal/regul"
	"github.com/FlavioCFOliveira/convnet/internal/tensor"
	"github.com/FlavioCFOliveira/convnet/internal/weightinit"
)

var (
	// ErrGradientReuse is returned by Backward when no Forward ran since the
	// previous Backward.
	ErrGradientReuse = errors.New("net: backward called twice without forward")

	// ErrWeightCount is returned when a parameter vector does not match the
	// model's parameter count.
	ErrWeightCount = errors.New("net: parameter count mismatch")

	// ErrNotConfigured is returned when data flows before SetInputShape.
	ErrNotConfigured = errors.New("net: input shape not set")
)

// Model is an ordered stack of layers with a loss and a weight penalty.
//
// The flat parameter vector lists, for every weighted layer in order, its
// biases followed by its weights.
type Model struct {
	layers   []layer.Layer
	weighted []layer.Parametric
	loss     loss.Loss
	reg      regul.Regularizer

	inShape []int
	fresh   bool
}

// NewModel creates a model. A nil regularizer means no penalty.
func NewModel(l loss.Loss, reg regul.Regularizer, layers ...layer.Layer) *Model {
	if reg == nil {
		reg = regul.None{}
	}
	m := &Model{layers: layers, loss: l, reg: reg}
	for _, ly := range layers {
		if p, ok := ly.(layer.Parametric); ok {
			m.weighted = append(m.weighted, p)
		}
	}
	return m
}

// Layers returns the model's layers slice.
func (m *Model) Layers() []layer.Layer {
	return m.layers
}

// Weighted returns the layers owning parameters, in order.
func (m *Model) Weighted() []layer.Parametric {
	return m.weighted
}

// Loss returns the model's loss function.
func (m *Model) Loss() loss.Loss {
	return m.loss
}

// SetInputShape threads the per-example input shape through every layer.
func (m *Model) SetInputShape(dims []int) error {
	shape := dims
	for i, l := range m.layers {
		if err := l.SetInputShape(shape); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		shape = l.OutputShape()
	}
	m.inShape = append([]int(nil), dims...)
	return nil
}

// InputShape returns the per-example input shape.
func (m *Model) InputShape() []int {
	return append([]int(nil), m.inShape...)
}

// OutputShape returns the per-example output shape of the last layer.
func (m *Model) OutputShape() []int {
	if len(m.layers) == 0 {
		return m.InputShape()
	}
	return m.layers[len(m.layers)-1].OutputShape()
}

// InitParams initializes the parameters of every weighted layer.
func (m *Model) InitParams(init weightinit.Initializer) error {
	if m.inShape == nil {
		return ErrNotConfigured
	}
	for _, p := range m.weighted {
		p.InitParams(init)
	}
	return nil
}

// NumParams returns the length of the flat parameter vector.
func (m *Model) NumParams() int {
	n := 0
	for _, p := range m.weighted {
		n += p.NumParams()
	}
	return n
}

// Forward threads x through every layer. isTest disables training-only
// behavior such as dropout and random slopes.
func (m *Model) Forward(x *tensor.Tensor, isTest bool) (*tensor.Tensor, error) {
	if m.inShape == nil {
		return nil, ErrNotConfigured
	}
	curr := x
	for i, l := range m.layers {
		out, err := l.Forward(curr, isTest)
		if err != nil {
			return nil, fmt.Errorf("layer %d forward: %w", i, err)
		}
		curr = out
	}
	m.fresh = true
	return curr, nil
}

// Cost runs a training-mode forward pass and returns the loss plus the
// weight penalty scaled by adjust, the fraction of the training set in x.
func (m *Model) Cost(x, y, w *tensor.Tensor, adjust float64) (float64, error) {
	out, err := m.Forward(x, false)
	if err != nil {
		return 0, err
	}
	c, err := m.loss.Eval(out, y, w)
	if err != nil {
		return 0, fmt.Errorf("loss: %w", err)
	}
	return c + m.reg.Penalty(m.weighted, adjust), nil
}

// Backward propagates the loss gradient of the last Forward through the
// layers and fills every parameter gradient, penalty included.
//
// A softmax output layer paired with a loss implementing
// loss.SoftmaxShortcut is differentiated in one step. The first layer's
// input gradient is never computed.
func (m *Model) Backward(y, w *tensor.Tensor, adjust float64) error {
	if !m.fresh {
		return ErrGradientReuse
	}
	if len(m.layers) == 0 {
		return nil
	}
	last := len(m.layers) - 1
	out := m.layers[last].Output()

	var (
		chain *tensor.Tensor
		err   error
	)
	start := last
	sc, shortcut := m.loss.(loss.SoftmaxShortcut)
	if _, softmax := m.layers[last].(*layer.Softmax); softmax && shortcut {
		chain, err = sc.SoftmaxGrad(out, y, w)
		start = last - 1
	} else {
		chain, err = m.loss.Backward(out, y, w)
	}
	if err != nil {
		return fmt.Errorf("loss gradient: %w", err)
	}

	for i := start; i >= 0; i-- {
		l := m.layers[i]
		if p, ok := l.(layer.Parametric); ok {
			if err := p.UpdateParamGrad(chain); err != nil {
				return fmt.Errorf("layer %d parameter gradient: %w", i, err)
			}
		}
		if i > 0 {
			if chain, err = l.Backward(chain); err != nil {
				return fmt.Errorf("layer %d backward: %w", i, err)
			}
		}
	}
	m.reg.AddGrad(m.weighted, adjust)
	m.fresh = false
	return nil
}

// ValueAndGradient returns Cost and the flat gradient for one batch.
func (m *Model) ValueAndGradient(x, y, w *tensor.Tensor, adjust float64) (float64, []float64, error) {
	c, err := m.Cost(x, y, w, adjust)
	if err != nil {
		return 0, nil, err
	}
	if err := m.Backward(y, w, adjust); err != nil {
		return 0, nil, err
	}
	return c, m.ParamGrads(), nil
}

// Params returns a copy of all parameters, flattened.
func (m *Model) Params() []float64 {
	params := make([]float64, 0, m.NumParams())
	for _, p := range m.weighted {
		params = append(params, p.Bias().Data()...)
		params = append(params, p.Weights().Data()...)
	}
	return params
}

// SetParams copies a flat parameter vector into the layers. Layers without
// parameters yet are allocated first.
func (m *Model) SetParams(params []float64) error {
	if m.inShape == nil {
		return ErrNotConfigured
	}
	if len(params) != m.NumParams() {
		return fmt.Errorf("%w: got %d values, model has %d", ErrWeightCount, len(params), m.NumParams())
	}
	k := 0
	for _, p := range m.weighted {
		if p.Weights() == nil {
			p.InitParams(weightinit.Constant{})
		}
		k += copy(p.Bias().Data(), params[k:])
		k += copy(p.Weights().Data(), params[k:])
	}
	return nil
}

// ParamGrads returns a copy of the gradients of the last Backward, in the
// order of Params.
func (m *Model) ParamGrads() []float64 {
	grads := make([]float64, 0, m.NumParams())
	for _, p := range m.weighted {
		grads = append(grads, p.BiasGrad().Data()...)
		grads = append(grads, p.WeightsGrad().Data()...)
	}
	return grads
}

// Predict returns the arg max class of every example, in test mode.
func (m *Model) Predict(x *tensor.Tensor) ([]int, error) {
	out, err := m.Forward(x, true)
	if err != nil {
		return nil, err
	}
	dims := out.ShapeDims2D()
	classes, n := dims[0], dims[1]
	data := out.Data()
	pred := make([]int, n)
	for e := range pred {
		pred[e] = floats.MaxIdx(data[e*classes : (e+1)*classes])
	}
	return pred, nil
}

// Misclassified counts the examples whose predicted class differs from
// the label.
func (m *Model) Misclassified(x, labels *tensor.Tensor) (int, error) {
	pred, err := m.Predict(x)
	if err != nil {
		return 0, err
	}
	if labels.Size() != len(pred) {
		return 0, &tensor.ShapeError{Op: "misclassified", Got: labels.Dims(), Want: []int{len(pred)}}
	}
	wrong := 0
	for e, c := range pred {
		if float64(c) != labels.Data()[e] {
			wrong++
		}
	}
	return wrong, nil
}
