package opt

import "math"

// Scheduler adjusts the step size of an Optimizer once per epoch.
type Scheduler interface {
	// EpochEnd is called after every epoch with the epoch index (from 0)
	// and a loss that is comparable across epochs.
	EpochEnd(epoch int, loss float64)

	// NeedsLoss reports whether the scheduler reads the loss at the given
	// epoch, so callers can skip computing it otherwise.
	NeedsLoss(epoch int) bool

	StepSize() float64
}

// Annealer divides the step size by Rate every Every epochs. Unless Always
// is set it only divides when the loss rose since the previous check.
// Epoch 0 records the reference loss.
type Annealer struct {
	optimizer Optimizer
	Every     int
	Rate      float64
	Always    bool

	lastLoss float64
}

// NewAnnealer creates an annealer for o. Every <= 0 disables it.
func NewAnnealer(o Optimizer, every int, rate float64, always bool) *Annealer {
	return &Annealer{optimizer: o, Every: every, Rate: rate, Always: always}
}

func (a *Annealer) NeedsLoss(epoch int) bool {
	if a.Every <= 0 {
		return false
	}
	return epoch == 0 || (!a.Always && epoch%a.Every == 0)
}

func (a *Annealer) EpochEnd(epoch int, loss float64) {
	if a.Every <= 0 {
		return
	}
	switch {
	case epoch == 0:
		a.lastLoss = loss
	case epoch%a.Every != 0:
	case a.Always:
		a.optimizer.SetStepSize(a.optimizer.StepSize() / a.Rate)
	default:
		if loss > a.lastLoss {
			a.optimizer.SetStepSize(a.optimizer.StepSize() / a.Rate)
		}
		a.lastLoss = loss
	}
}

func (a *Annealer) StepSize() float64 { return a.optimizer.StepSize() }

// StepLR decays the step size by gamma every stepSize epochs.
type StepLR struct {
	optimizer Optimizer
	stepSize  int
	gamma     float64
}

func NewStepLR(optimizer Optimizer, stepSize int, gamma float64) *StepLR {
	return &StepLR{optimizer: optimizer, stepSize: stepSize, gamma: gamma}
}

func (s *StepLR) NeedsLoss(int) bool { return false }

func (s *StepLR) EpochEnd(epoch int, _ float64) {
	if (epoch+1)%s.stepSize == 0 {
		s.optimizer.SetStepSize(s.optimizer.StepSize() * s.gamma)
	}
}

func (s *StepLR) StepSize() float64 { return s.optimizer.StepSize() }

// ExponentialLR decays the step size by gamma every epoch.
type ExponentialLR struct {
	optimizer Optimizer
	gamma     float64
}

func NewExponentialLR(optimizer Optimizer, gamma float64) *ExponentialLR {
	return &ExponentialLR{optimizer: optimizer, gamma: gamma}
}

func (s *ExponentialLR) NeedsLoss(int) bool { return false }

func (s *ExponentialLR) EpochEnd(int, float64) {
	s.optimizer.SetStepSize(s.optimizer.StepSize() * s.gamma)
}

func (s *ExponentialLR) StepSize() float64 { return s.optimizer.StepSize() }

// ReduceLROnPlateau reduces the step size when the loss has stopped improving.
type ReduceLROnPlateau struct {
	optimizer Optimizer
	factor    float64
	patience  int
	threshold float64
	cooldown  int
	minLR     float64

	bestLoss        float64
	numBadEpochs    int
	cooldownCounter int
}

func NewReduceLROnPlateau(optimizer Optimizer, factor float64, patience int, threshold, minLR float64) *ReduceLROnPlateau {
	return &ReduceLROnPlateau{
		optimizer: optimizer,
		factor:    factor,
		patience:  patience,
		threshold: threshold,
		minLR:     minLR,
		bestLoss:  math.Inf(1),
	}
}

// WithCooldown sets how many epochs to wait after a reduction before
// counting bad epochs again.
func (s *ReduceLROnPlateau) WithCooldown(epochs int) *ReduceLROnPlateau {
	s.cooldown = epochs
	return s
}

func (s *ReduceLROnPlateau) NeedsLoss(int) bool { return true }

func (s *ReduceLROnPlateau) EpochEnd(_ int, loss float64) {
	if s.cooldownCounter > 0 {
		s.cooldownCounter--
		return
	}

	if loss < s.bestLoss-s.threshold {
		s.bestLoss = loss
		s.numBadEpochs = 0
	} else {
		s.numBadEpochs++
	}

	if s.numBadEpochs >= s.patience {
		s.optimizer.SetStepSize(math.Max(s.optimizer.StepSize()*s.factor, s.minLR))
		s.numBadEpochs = 0
		s.cooldownCounter = s.cooldown
	}
}

func (s *ReduceLROnPlateau) StepSize() float64 { return s.optimizer.StepSize() }
