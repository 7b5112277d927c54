package net

import (
	"fmt"

	"github.com/FlavioCFOliveira/convnet/internal/opt"
	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

// TrainConfig holds the settings of the mini-batch training loop.
type TrainConfig struct {
	Epochs    int
	BatchSize int // capped at the number of examples

	// Annealing: every AnnealEvery epochs the step size is divided by
	// AnnealRate, either always or only when the loss on a fixed sample of
	// the training set went up. AnnealEvery <= 0 disables it.
	AnnealEvery  int
	AnnealRate   float64
	AlwaysAnneal bool

	// Scheduler replaces the annealing settings above when set. It is fed
	// the loss on the fixed sample.
	Scheduler opt.Scheduler

	// SaveWeights writes the parameters to WeightsFile after every epoch.
	SaveWeights bool
	WeightsFile string

	Seed      uint64
	Callbacks []Callback
}

// DefaultTrainConfig returns 5 epochs of 256-example batches, annealing by
// 1.02 every 5 epochs when the loss went up.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:      5,
		BatchSize:   256,
		AnnealEvery: 5,
		AnnealRate:  1.02,
		WeightsFile: "weights.dat",
		Seed:        1,
	}
}

// History records one entry per completed epoch.
type History struct {
	Loss     []float64 // mean batch cost
	StepSize []float64 // step size after the epoch's scheduling
}

// annealSampleSize is 5% of the examples, kept between 250 and 1000.
func annealSampleSize(n int) int {
	return min(1000, max(250, n*5/100))
}

// Train minimizes the model's cost on (x, y, w) with mini-batches drawn
// in a new random order every epoch. Each batch's penalty is scaled by its
// share of the examples. w may be nil for unweighted losses.
func Train(m *Model, o opt.Optimizer, x, y, w *tensor.Tensor, cfg TrainConfig) (*History, error) {
	n := x.LastDim()
	sampler, err := opt.NewBatchSampler(x, y, w, cfg.BatchSize, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	sched := cfg.Scheduler
	if sched == nil {
		sched = opt.NewAnnealer(o, cfg.AnnealEvery, cfg.AnnealRate, cfg.AlwaysAnneal)
	}
	fixed, err := sampler.Sample(annealSampleSize(n))
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	fixedAdjust := float64(fixed.X.LastDim()) / float64(n)

	params := m.Params()
	hist := &History{}
	for _, cb := range cfg.Callbacks {
		cb.OnTrainBegin(m)
	}
	defer func() {
		for _, cb := range cfg.Callbacks {
			cb.OnTrainEnd(m)
		}
	}()

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for _, cb := range cfg.Callbacks {
			cb.OnEpochBegin(epoch, m)
		}

		sampler.Shuffle()
		total, batches := 0.0, 0
		for {
			b, ok, err := sampler.Next()
			if err != nil {
				return hist, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			if !ok {
				break
			}
			for _, cb := range cfg.Callbacks {
				cb.OnBatchBegin(batches, m)
			}
			adjust := float64(b.X.LastDim()) / float64(n)
			cost, grads, err := m.ValueAndGradient(b.X, b.Y, b.W, adjust)
			if err != nil {
				return hist, fmt.Errorf("epoch %d batch %d: %w", epoch, batches, err)
			}
			o.StepInPlace(params, grads)
			if err := m.SetParams(params); err != nil {
				return hist, err
			}
			for _, cb := range cfg.Callbacks {
				cb.OnBatchEnd(batches, cost, m)
			}
			total += cost
			batches++
		}
		epochLoss := total / float64(batches)

		var fixedLoss float64
		if sched.NeedsLoss(epoch) {
			if fixedLoss, err = m.Cost(fixed.X, fixed.Y, fixed.W, fixedAdjust); err != nil {
				return hist, fmt.Errorf("epoch %d anneal sample: %w", epoch, err)
			}
		}
		sched.EpochEnd(epoch, fixedLoss)

		if cfg.SaveWeights {
			if err := saveFloats(cfg.WeightsFile, params); err != nil {
				return hist, fmt.Errorf("epoch %d: %w", epoch, err)
			}
		}

		hist.Loss = append(hist.Loss, epochLoss)
		hist.StepSize = append(hist.StepSize, o.StepSize())
		for _, cb := range cfg.Callbacks {
			cb.OnEpochEnd(epoch, epochLoss, m)
		}
		if stopRequested(cfg.Callbacks) {
			break
		}
	}
	return hist, nil
}

func stopRequested(callbacks []Callback) bool {
	for _, cb := range callbacks {
		if s, ok := cb.(Stopper); ok && s.ShouldStop() {
			return true
		}
	}
	return false
}
