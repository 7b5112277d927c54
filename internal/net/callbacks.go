package net

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/FlavioCFOliveira/convnet/internal/opt"
)

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(m *Model)
	OnTrainEnd(m *Model)
	OnEpochBegin(epoch int, m *Model)
	OnEpochEnd(epoch int, loss float64, m *Model)
	OnBatchBegin(batch int, m *Model)
	OnBatchEnd(batch int, loss float64, m *Model)
}

// Stopper is implemented by callbacks that can end training early. Train
// checks it after every epoch.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(m *Model)                        {}
func (c BaseCallback) OnTrainEnd(m *Model)                          {}
func (c BaseCallback) OnEpochBegin(epoch int, m *Model)             {}
func (c BaseCallback) OnEpochEnd(epoch int, loss float64, m *Model) {}
func (c BaseCallback) OnBatchBegin(batch int, m *Model)             {}
func (c BaseCallback) OnBatchEnd(batch int, loss float64, m *Model) {}

// SchedulerCallback drives a step size scheduler with the mean epoch loss.
type SchedulerCallback struct {
	BaseCallback
	scheduler opt.Scheduler
}

func NewSchedulerCallback(scheduler opt.Scheduler) *SchedulerCallback {
	return &SchedulerCallback{scheduler: scheduler}
}

func (c *SchedulerCallback) OnEpochEnd(epoch int, loss float64, m *Model) {
	c.scheduler.EpochEnd(epoch, loss)
}

// EarlyStopping stops training when the epoch loss has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64
	Out       io.Writer // nil means os.Stdout

	bestLoss     float64
	numBadEpochs int
	Stopped      bool
}

func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.Inf(1),
	}
}

func (c *EarlyStopping) OnEpochEnd(epoch int, loss float64, m *Model) {
	if loss < c.bestLoss-c.Threshold {
		c.bestLoss = loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		fmt.Fprintf(writerOr(c.Out), "Early stopping at epoch %d: loss %.6f did not improve for %d epochs\n", epoch, loss, c.Patience)
		c.Stopped = true
	}
}

func (c *EarlyStopping) ShouldStop() bool { return c.Stopped }

// WeightCheckpoint saves the weights after every epoch that sets a new best
// loss.
type WeightCheckpoint struct {
	BaseCallback
	Filename string
	Out      io.Writer // nil means os.Stdout

	bestLoss float64
}

func NewWeightCheckpoint(filename string) *WeightCheckpoint {
	return &WeightCheckpoint{
		Filename: filename,
		bestLoss: math.Inf(1),
	}
}

func (c *WeightCheckpoint) OnEpochEnd(epoch int, loss float64, m *Model) {
	if loss >= c.bestLoss {
		return
	}
	c.bestLoss = loss
	if err := m.SaveWeights(c.Filename); err != nil {
		fmt.Fprintf(writerOr(c.Out), "Error saving checkpoint: %v\n", err)
		return
	}
	fmt.Fprintf(writerOr(c.Out), "Checkpoint saved: loss %.6f is new best\n", loss)
}

// Logger logs training progress.
type Logger struct {
	BaseCallback
	Interval int
	Out      io.Writer // nil means os.Stdout
}

func (c Logger) OnEpochEnd(epoch int, loss float64, m *Model) {
	if c.Interval > 0 && epoch%c.Interval == 0 {
		fmt.Fprintf(writerOr(c.Out), "Epoch %d: loss = %.6f\n", epoch, loss)
	}
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
