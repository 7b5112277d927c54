// Package regul provides weight penalties added to the data loss.
//
// Penalties act on layer weights only, never on biases. The adjust factor is
// the fraction of the training set in the current batch, so that summing the
// batch losses over an epoch charges the penalty once.
package regul

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/convnet/internal/layer"
)

// Regularizer adds a penalty to the cost and its gradient to the weight
// gradients of every weighted layer.
type Regularizer interface {
	Penalty(layers []layer.Parametric, adjust float64) float64
	AddGrad(layers []layer.Parametric, adjust float64)
}

// None applies no penalty.
type None struct{}

func (None) Penalty([]layer.Parametric, float64) float64 { return 0 }
func (None) AddGrad([]layer.Parametric, float64)         {}

// L1 is the lasso penalty lambda * sum |w|.
type L1 struct {
	Lambda float64
}

// NewL1 returns an L1 penalty with the given strength.
func NewL1(lambda float64) L1 {
	return L1{Lambda: lambda}
}

func (r L1) Penalty(layers []layer.Parametric, adjust float64) float64 {
	sum := 0.0
	for _, l := range layers {
		sum += floats.Norm(l.Weights().Data(), 1)
	}
	return r.Lambda * adjust * sum
}

// AddGrad adds lambda*adjust*sign(w) to every weight gradient. The
// subgradient at zero is zero.
func (r L1) AddGrad(layers []layer.Parametric, adjust float64) {
	s := r.Lambda * adjust
	for _, l := range layers {
		w, g := l.Weights().Data(), l.WeightsGrad().Data()
		for i, v := range w {
			if v != 0 {
				g[i] += s * math.Copysign(1, v)
			}
		}
	}
}

// L2 is the ridge penalty lambda/2 * sum w^2.
type L2 struct {
	Lambda float64
}

func (r L2) Penalty(layers []layer.Parametric, adjust float64) float64 {
	sum := 0.0
	for _, l := range layers {
		w := l.Weights().Data()
		sum += floats.Dot(w, w)
	}
	return r.Lambda * adjust * sum / 2
}

func (r L2) AddGrad(layers []layer.Parametric, adjust float64) {
	for _, l := range layers {
		floats.AddScaled(l.WeightsGrad().Data(), r.Lambda*adjust, l.Weights().Data())
	}
}
