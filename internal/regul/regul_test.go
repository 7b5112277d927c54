package regul

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/convnet/internal/layer"
	"github.com/FlavioCFOliveira/convnet/internal/weightinit"
)

func dense(t *testing.T, w []float64) *layer.InnerProduct {
	t.Helper()
	l := layer.NewInnerProduct(2)
	require.NoError(t, l.SetInputShape([]int{2}))
	l.InitParams(weightinit.Constant{Bias: 5})
	copy(l.Weights().Data(), w)
	return l
}

func TestL1_PenaltyIgnoresBias(t *testing.T) {
	layers := []layer.Parametric{
		dense(t, []float64{1, -2, 0, 3}),
		dense(t, []float64{-1, 1, 1, -1}),
	}
	assert.InDelta(t, 0.1*0.5*10, NewL1(0.1).Penalty(layers, 0.5), 1e-12)
}

func TestL1_AddGrad(t *testing.T) {
	l := dense(t, []float64{1, -2, 0, 3})
	copy(l.WeightsGrad().Data(), []float64{1, 1, 1, 1})
	NewL1(0.2).AddGrad([]layer.Parametric{l}, 0.5)
	assert.InDeltaSlice(t, []float64{1.1, 0.9, 1, 1.1}, l.WeightsGrad().Data(), 1e-12)
	assert.Equal(t, []float64{0, 0}, l.BiasGrad().Data())
}

func TestL2_PenaltyAndGrad(t *testing.T) {
	l := dense(t, []float64{1, -2, 0, 3})
	layers := []layer.Parametric{l}
	r := L2{Lambda: 0.5}
	assert.InDelta(t, 0.5*14/2, r.Penalty(layers, 1), 1e-12)
	r.AddGrad(layers, 1)
	assert.InDeltaSlice(t, []float64{0.5, -1, 0, 1.5}, l.WeightsGrad().Data(), 1e-12)
}

func TestNone(t *testing.T) {
	l := dense(t, []float64{1, 1, 1, 1})
	assert.Zero(t, None{}.Penalty([]layer.Parametric{l}, 1))
	None{}.AddGrad([]layer.Parametric{l}, 1)
	assert.Equal(t, []float64{0, 0, 0, 0}, l.WeightsGrad().Data())
}
