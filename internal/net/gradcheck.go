package net

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/FlavioCFOliveira/convnet/internal/layer"
	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

// GradCheck configures CheckGradient.
type GradCheck struct {
	Samples int     // parameter indices to probe
	Step    float64 // central difference step
	Seed    uint64
}

// DefaultGradCheck probes 50 parameters with a step of 1e-7.
func DefaultGradCheck() GradCheck {
	return GradCheck{Samples: 50, Step: 1e-7, Seed: 1}
}

// CheckGradient compares the backpropagated gradient of the cost on
// (x, y, w) with central differences at randomly chosen parameter
// indices and returns the mean relative error
// |analytic - numeric| / max(|analytic| + |numeric|, 1e-8). Stochastic
// layers are reseeded with cfg.Seed before every evaluation so all of them
// see the same random draws. The model's parameters are left unchanged.
func CheckGradient(m *Model, x, y, w *tensor.Tensor, cfg GradCheck) (float64, error) {
	n := m.NumParams()
	if n == 0 {
		return 0, fmt.Errorf("gradient check: model has no parameters")
	}
	m.reseed(cfg.Seed)
	_, analytic, err := m.ValueAndGradient(x, y, w, 1)
	if err != nil {
		return 0, err
	}
	params := m.Params()

	var costErr error
	cost := func(i int) func(float64) float64 {
		return func(v float64) float64 {
			old := params[i]
			params[i] = v
			defer func() { params[i] = old }()
			if err := m.SetParams(params); err != nil {
				costErr = err
				return math.NaN()
			}
			m.reseed(cfg.Seed)
			c, err := m.Cost(x, y, w, 1)
			if err != nil {
				costErr = err
			}
			return c
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	settings := &fd.Settings{Formula: fd.Central, Step: cfg.Step}
	total := 0.0
	samples := max(cfg.Samples, 1)
	for s := 0; s < samples; s++ {
		i := rng.Intn(n)
		numeric := fd.Derivative(cost(i), params[i], settings)
		if costErr != nil {
			return 0, costErr
		}
		a := analytic[i]
		total += math.Abs(a-numeric) / math.Max(math.Abs(a)+math.Abs(numeric), 1e-8)
	}
	if err := m.SetParams(params); err != nil {
		return 0, err
	}
	return total / float64(samples), nil
}

func (m *Model) reseed(seed uint64) {
	for _, l := range m.layers {
		if s, ok := l.(layer.Stochastic); ok {
			s.Reseed(seed)
		}
	}
}
