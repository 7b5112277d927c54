// Package activations provides elementwise activation functions.
package activations

import "math"

// Activation is an elementwise activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x) given the input x and the output y = f(x),
	// whichever is cheaper for the function.
	Derivative(x, y float64) float64
}

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (r ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if x > 0, else 0
func (r ReLU) Derivative(x, _ float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

// DefaultLeakyAlpha is the slope LeakyReLU uses for negative inputs by default.
const DefaultLeakyAlpha = 1.0 / 5.5

// LeakyReLU activation function to prevent dying neurons.
type LeakyReLU struct {
	Alpha float64 // Slope for x <= 0
}

// NewLeakyReLU creates a LeakyReLU with the given alpha value.
func NewLeakyReLU(alpha float64) *LeakyReLU {
	return &LeakyReLU{Alpha: alpha}
}

// Activate computes x if x > 0, else alpha*x
func (l *LeakyReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return l.Alpha * x
}

// Derivative returns 1 if x > 0, else alpha
func (l *LeakyReLU) Derivative(x, _ float64) float64 {
	if x > 0 {
		return 1
	}
	return l.Alpha
}

// Sigmoid activation function.
type Sigmoid struct{}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Activate computes sigmoid(x)
func (s Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes y * (1 - y)
func (s Sigmoid) Derivative(_, y float64) float64 {
	return y * (1 - y)
}

// Tanh activation function.
type Tanh struct{}

// Activate computes tanh(x)
func (t Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

// Derivative computes 1 - y^2
func (t Tanh) Derivative(_, y float64) float64 {
	return 1 - y*y
}

// SoftPlusLimit is the smallest x for which 1 + exp(-x) == 1 in float64.
const SoftPlusLimit = 36.0436533891172

// SoftPlus is the smooth rectifier ln(1 + exp(x)).
type SoftPlus struct{}

// Activate computes ln(1 + exp(x)), returning x or 0 beyond +-SoftPlusLimit.
func (s SoftPlus) Activate(x float64) float64 {
	switch {
	case x > SoftPlusLimit:
		return x
	case x < -SoftPlusLimit:
		return 0
	}
	return math.Log1p(math.Exp(x))
}

// Derivative computes sigmoid(x)
func (s SoftPlus) Derivative(x, _ float64) float64 {
	return sigmoid(x)
}

// SoftSign computes x / (1 + |x|).
type SoftSign struct{}

func (s SoftSign) Activate(x float64) float64 {
	return x / (1 + math.Abs(x))
}

// Derivative computes 1 / (1 + |x|)^2
func (s SoftSign) Derivative(x, _ float64) float64 {
	d := 1 + math.Abs(x)
	return 1 / (d * d)
}

// Identity passes its input through.
type Identity struct{}

func (Identity) Activate(x float64) float64 { return x }

func (Identity) Derivative(_, _ float64) float64 { return 1 }
