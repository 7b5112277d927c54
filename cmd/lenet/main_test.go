package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/FlavioCFOliveira/convnet/goneuron"
)

func TestTrainingReport(t *testing.T) {
	assert.Equal(t, "Trained 0 epochs in 0s", trainingReport(&goneuron.History{}, 0))
	h := &goneuron.History{Loss: []float64{2, 0.5}}
	assert.Equal(t, "Trained 2 epochs in 1.5s, final loss 0.5000", trainingReport(h, 1500*time.Millisecond))
}

func TestSyntheticDigits(t *testing.T) {
	d := syntheticDigits(20, 1)
	assert.Equal(t, []int{28, 28, 20}, d.X.Dims())
	assert.Equal(t, 20, d.NumExamples())
	assert.Equal(t, 3.0, d.Y.Data()[13])
}
