package net

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/convnet/internal/layer"
	"github.com/FlavioCFOliveira/convnet/internal/loss"
	"github.com/FlavioCFOliveira/convnet/internal/opt"
	"github.com/FlavioCFOliveira/convnet/internal/weightinit"
)

func TestEarlyStopping(t *testing.T) {
	var out bytes.Buffer
	es := NewEarlyStopping(2, 0.01)
	es.Out = &out
	for epoch, l := range []float64{1, 0.5, 0.495, 0.6} {
		es.OnEpochEnd(epoch, l, nil)
	}
	assert.True(t, es.ShouldStop())
	assert.Contains(t, out.String(), "Early stopping at epoch 3")
}

func TestWeightCheckpoint_SavesOnlyOnImprovement(t *testing.T) {
	m := NewModel(loss.MSE{}, nil, layer.NewInnerProduct(1))
	require.NoError(t, m.SetInputShape([]int{1}))
	require.NoError(t, m.InitParams(weightinit.Constant{Weight: 1}))

	path := filepath.Join(t.TempDir(), "best.dat")
	var out bytes.Buffer
	cp := NewWeightCheckpoint(path)
	cp.Out = &out

	cp.OnEpochEnd(0, 1.0, m)
	require.NoError(t, m.SetParams([]float64{0, 9}))
	cp.OnEpochEnd(1, 2.0, m)

	loaded := NewModel(loss.MSE{}, nil, layer.NewInnerProduct(1))
	require.NoError(t, loaded.SetInputShape([]int{1}))
	require.NoError(t, loaded.LoadWeights(path))
	assert.Equal(t, []float64{0, 1}, loaded.Params())
	assert.Contains(t, out.String(), "Checkpoint saved: loss 1.000000 is new best")
}

func TestSchedulerCallback(t *testing.T) {
	o := opt.NewSGD(1)
	cb := NewSchedulerCallback(opt.NewStepLR(o, 1, 0.5))
	cb.OnEpochEnd(0, 0, nil)
	cb.OnEpochEnd(1, 0, nil)
	assert.Equal(t, 0.25, o.StepSize())
}

func TestCSVLogger_OpenFailure(t *testing.T) {
	c := NewCSVLogger(filepath.Join(t.TempDir(), "missing", "log.csv"), false)
	c.OnTrainBegin(nil)
	require.Error(t, c.Err())
	c.OnEpochEnd(0, 1, nil)
	c.OnTrainEnd(nil)
}

func TestCSVLogger_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	m := NewModel(loss.MSE{}, nil, layer.NewInnerProduct(1))
	require.NoError(t, m.SetInputShape([]int{1}))

	for run := 0; run < 2; run++ {
		c := NewCSVLogger(path, true)
		c.OnTrainBegin(m)
		c.OnEpochEnd(0, 0.5, m)
		c.OnTrainEnd(m)
		require.NoError(t, c.Err())
	}
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(raw, []byte("epoch,loss")))
	assert.Equal(t, 3, bytes.Count(raw, []byte("\n")))
}
