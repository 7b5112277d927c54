package opt

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestSGDStepInPlace tests params -= lr * gradients.
func TestSGDStepInPlace(t *testing.T) {
	sgd := NewSGD(0.1)
	params := []float64{1.0, 2.0, 3.0}
	sgd.StepInPlace(params, []float64{0.1, 0.2, 0.3})
	assertClose(t, params, []float64{0.99, 1.98, 2.97}, 1e-12)
}

func TestMomentum(t *testing.T) {
	m := NewMomentum(0.1, 0.9)
	params := []float64{1}
	m.StepInPlace(params, []float64{1}) // v = -0.1
	assertClose(t, params, []float64{0.9}, 1e-12)
	m.StepInPlace(params, []float64{1}) // v = -0.09 - 0.1
	assertClose(t, params, []float64{0.71}, 1e-12)
}

func TestNesterov(t *testing.T) {
	n := NewNesterov(0.1, 0.9)
	params := []float64{1}
	// v: 0 -> -0.1; x += 0 + 1.9*(-0.1)
	n.StepInPlace(params, []float64{1})
	assertClose(t, params, []float64{0.81}, 1e-12)
	// v: -0.1 -> -0.19; x += 0.09 + 1.9*(-0.19)
	n.StepInPlace(params, []float64{1})
	assertClose(t, params, []float64{0.81 + 0.09 - 0.361}, 1e-12)
}

func TestAdagrad(t *testing.T) {
	a := NewAdagrad(0.5)
	params := []float64{0, 0}
	a.StepInPlace(params, []float64{2, -4})
	// First step moves every coordinate by lr in the direction of -sign(g).
	assertClose(t, params, []float64{-0.5, 0.5}, 1e-7)
	a.StepInPlace(params, []float64{2, 0})
	assertClose(t, params, []float64{-0.5 - 0.5*2/math.Sqrt(8), 0.5}, 1e-7)
}

func TestRMSProp(t *testing.T) {
	r := NewRMSProp(0.01)
	if r.Decay != DefaultRMSPropDecay {
		t.Fatalf("decay = %v, want %v", r.Decay, DefaultRMSPropDecay)
	}
	params := []float64{1}
	r.StepInPlace(params, []float64{2})
	// cache = 0.01*4, step = 0.01*2/0.2
	assertClose(t, params, []float64{1 - 0.1}, 1e-6)
}

func TestAdamFirstStepIsLearningRate(t *testing.T) {
	a := NewAdam(0.001)
	params := []float64{1, 1, 1}
	a.StepInPlace(params, []float64{5, -0.01, 100})
	assertClose(t, params, []float64{0.999, 1.001, 0.999}, 1e-8)
}

func TestAdaMax(t *testing.T) {
	a := NewAdaMax(0.002)
	params := []float64{1, 1}
	a.StepInPlace(params, []float64{3, 0})
	// m = 0.3, u = 3, lr/(1-0.9) = 0.02
	assertClose(t, params, []float64{1 - 0.002, 1}, 1e-12)
	for _, p := range params {
		if math.IsNaN(p) {
			t.Fatal("zero gradient produced NaN")
		}
	}
}

// TestOptimizersMinimizeQuadratic runs every optimizer on f(x) = sum (x-3)^2.
func TestOptimizersMinimizeQuadratic(t *testing.T) {
	optimizers := map[string]Optimizer{
		"sgd":      NewSGD(0.1),
		"momentum": NewMomentum(0.05, 0.9),
		"nesterov": NewNesterov(0.05, 0.9),
		"adagrad":  NewAdagrad(1),
		"rmsprop":  NewRMSProp(0.01),
		"adam":     NewAdam(0.05),
		"adamax":   NewAdaMax(0.1),
	}
	for name, o := range optimizers {
		t.Run(name, func(t *testing.T) {
			params := []float64{0, 10, -4}
			grads := make([]float64, len(params))
			for step := 0; step < 2000; step++ {
				for i, p := range params {
					grads[i] = 2 * (p - 3)
				}
				o.StepInPlace(params, grads)
			}
			assertClose(t, params, []float64{3, 3, 3}, 0.05)
		})
	}
}

func TestSetStepSize(t *testing.T) {
	for _, o := range []Optimizer{NewSGD(1), NewMomentum(1, 0), NewNesterov(1, 0), NewAdagrad(1), NewRMSProp(1), NewAdam(1), NewAdaMax(1)} {
		o.SetStepSize(0.25)
		if o.StepSize() != 0.25 {
			t.Errorf("%T step size = %v, want 0.25", o, o.StepSize())
		}
	}
}
