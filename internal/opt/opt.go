// Package opt provides first-order optimizers over flat parameter vectors,
// step size schedules, and mini-batch sampling.
package opt

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Optimizer updates network parameters based on gradients.
//
// Stateful optimizers size their state on the first call and keep it for the
// lifetime of the instance, so one Optimizer serves one parameter vector.
type Optimizer interface {
	// StepInPlace updates params in place from gradients.
	StepInPlace(params, gradients []float64)

	// StepSize returns the current learning rate.
	StepSize() float64

	// SetStepSize replaces the learning rate. Schedulers use it to anneal.
	SetStepSize(lr float64)
}

// Epsilon keeps adaptive denominators away from zero.
const Epsilon = 1e-8

// growState returns s when it already has length n, or a zeroed slice of
// length n otherwise.
func growState(s []float64, n int) []float64 {
	if len(s) != n {
		return make([]float64, n)
	}
	return s
}

// SGD is plain stochastic gradient descent: params -= lr * gradients.
type SGD struct {
	LearningRate float64
}

// NewSGD creates a plain gradient descent optimizer.
func NewSGD(learningRate float64) *SGD {
	return &SGD{LearningRate: learningRate}
}

func (s *SGD) StepInPlace(params, gradients []float64) {
	floats.AddScaled(params, -s.LearningRate, gradients)
}

func (s *SGD) StepSize() float64      { return s.LearningRate }
func (s *SGD) SetStepSize(lr float64) { s.LearningRate = lr }

// Momentum keeps a velocity v = mu*v - lr*g and moves params by v.
type Momentum struct {
	LearningRate float64
	Mu           float64

	v []float64
}

// NewMomentum creates a momentum optimizer. 0.9 is a common mu.
func NewMomentum(learningRate, mu float64) *Momentum {
	return &Momentum{LearningRate: learningRate, Mu: mu}
}

func (m *Momentum) StepInPlace(params, gradients []float64) {
	m.v = growState(m.v, len(params))
	floats.Scale(m.Mu, m.v)
	floats.AddScaled(m.v, -m.LearningRate, gradients)
	floats.Add(params, m.v)
}

func (m *Momentum) StepSize() float64      { return m.LearningRate }
func (m *Momentum) SetStepSize(lr float64) { m.LearningRate = lr }

// Nesterov is momentum with the look-ahead correction
// params += -mu*v_prev + (1+mu)*v.
type Nesterov struct {
	LearningRate float64
	Mu           float64

	v []float64
}

// NewNesterov creates a Nesterov momentum optimizer.
func NewNesterov(learningRate, mu float64) *Nesterov {
	return &Nesterov{LearningRate: learningRate, Mu: mu}
}

func (n *Nesterov) StepInPlace(params, gradients []float64) {
	n.v = growState(n.v, len(params))
	for i, g := range gradients {
		prev := n.v[i]
		n.v[i] = n.Mu*prev - n.LearningRate*g
		params[i] += -n.Mu*prev + (1+n.Mu)*n.v[i]
	}
}

func (n *Nesterov) StepSize() float64      { return n.LearningRate }
func (n *Nesterov) SetStepSize(lr float64) { n.LearningRate = lr }

// Adagrad scales every coordinate by the root of its accumulated squared
// gradients.
type Adagrad struct {
	LearningRate float64

	cache []float64
}

// NewAdagrad creates an Adagrad optimizer.
func NewAdagrad(learningRate float64) *Adagrad {
	return &Adagrad{LearningRate: learningRate}
}

func (a *Adagrad) StepInPlace(params, gradients []float64) {
	a.cache = growState(a.cache, len(params))
	for i, g := range gradients {
		a.cache[i] += g * g
		params[i] -= a.LearningRate * g / (math.Sqrt(a.cache[i]) + Epsilon)
	}
}

func (a *Adagrad) StepSize() float64      { return a.LearningRate }
func (a *Adagrad) SetStepSize(lr float64) { a.LearningRate = lr }

// DefaultRMSPropDecay is the decay rate used by NewRMSProp.
const DefaultRMSPropDecay = 0.99

// RMSProp is Adagrad with an exponentially decaying cache.
type RMSProp struct {
	LearningRate float64
	Decay        float64

	cache []float64
}

// NewRMSProp creates an RMSProp optimizer with DefaultRMSPropDecay.
func NewRMSProp(learningRate float64) *RMSProp {
	return &RMSProp{LearningRate: learningRate, Decay: DefaultRMSPropDecay}
}

func (r *RMSProp) StepInPlace(params, gradients []float64) {
	r.cache = growState(r.cache, len(params))
	for i, g := range gradients {
		r.cache[i] = r.Decay*r.cache[i] + (1-r.Decay)*g*g
		params[i] -= r.LearningRate * g / (math.Sqrt(r.cache[i]) + Epsilon)
	}
}

func (r *RMSProp) StepSize() float64      { return r.LearningRate }
func (r *RMSProp) SetStepSize(lr float64) { r.LearningRate = lr }

// Adam optimizer with bias-corrected first and second moments.
type Adam struct {
	LearningRate float64
	Beta1        float64 // Exponential decay rate for first moment
	Beta2        float64 // Exponential decay rate for second moment
	Epsilon      float64 // Small constant for numerical stability

	m, v []float64
	t    int
}

// NewAdam creates a new Adam optimizer with default values.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      Epsilon,
	}
}

func (a *Adam) StepInPlace(params, gradients []float64) {
	a.m = growState(a.m, len(params))
	a.v = growState(a.v, len(params))
	a.t++
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))
	for i, g := range gradients {
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*g
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*g*g
		params[i] -= a.LearningRate * (a.m[i] / c1) / (math.Sqrt(a.v[i]/c2) + a.Epsilon)
	}
}

func (a *Adam) StepSize() float64      { return a.LearningRate }
func (a *Adam) SetStepSize(lr float64) { a.LearningRate = lr }

// AdaMax is the infinity-norm variant of Adam.
type AdaMax struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64

	m, u []float64
	t    int
}

// NewAdaMax creates an AdaMax optimizer with beta1 0.9 and beta2 0.999.
// 0.002 is the usual learning rate.
func NewAdaMax(learningRate float64) *AdaMax {
	return &AdaMax{LearningRate: learningRate, Beta1: 0.9, Beta2: 0.999}
}

func (a *AdaMax) StepInPlace(params, gradients []float64) {
	a.m = growState(a.m, len(params))
	a.u = growState(a.u, len(params))
	a.t++
	lr := a.LearningRate / (1 - math.Pow(a.Beta1, float64(a.t)))
	for i, g := range gradients {
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*g
		a.u[i] = math.Max(a.Beta2*a.u[i], math.Abs(g))
		// u is zero only while every gradient seen so far was zero.
		if a.u[i] > 0 {
			params[i] -= lr * a.m[i] / a.u[i]
		}
	}
}

func (a *AdaMax) StepSize() float64      { return a.LearningRate }
func (a *AdaMax) SetStepSize(lr float64) { a.LearningRate = lr }
