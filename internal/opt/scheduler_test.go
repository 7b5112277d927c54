package opt

import (
	"math"
	"testing"
)

func TestAnnealerOnlyOnIncrease(t *testing.T) {
	o := NewSGD(1.02 * 1.02)
	a := NewAnnealer(o, 2, 1.02, false)

	losses := []float64{5, 9, 4, 9, 6}
	var needs []bool
	for epoch, l := range losses {
		needs = append(needs, a.NeedsLoss(epoch))
		a.EpochEnd(epoch, l)
	}
	// Epoch 2 (4 < 5) keeps the step, epoch 4 (6 > 4) anneals.
	if math.Abs(o.StepSize()-1.02) > 1e-12 {
		t.Errorf("step size = %v, want 1.02", o.StepSize())
	}
	want := []bool{true, false, true, false, true}
	for i := range want {
		if needs[i] != want[i] {
			t.Errorf("NeedsLoss(%d) = %v, want %v", i, needs[i], want[i])
		}
	}
}

func TestAnnealerAlways(t *testing.T) {
	o := NewSGD(1)
	a := NewAnnealer(o, 5, 2, true)
	for epoch := 0; epoch < 11; epoch++ {
		a.EpochEnd(epoch, 0)
	}
	if o.StepSize() != 0.25 {
		t.Errorf("step size = %v, want 0.25", o.StepSize())
	}
	if a.NeedsLoss(5) {
		t.Error("always annealing never reads the loss after epoch 0")
	}
}

func TestAnnealerDisabled(t *testing.T) {
	o := NewSGD(1)
	a := NewAnnealer(o, 0, 2, true)
	for epoch := 0; epoch < 10; epoch++ {
		if a.NeedsLoss(epoch) {
			t.Fatal("disabled annealer asked for loss")
		}
		a.EpochEnd(epoch, float64(epoch))
	}
	if o.StepSize() != 1 {
		t.Errorf("step size = %v, want 1", o.StepSize())
	}
}

func TestStepLR(t *testing.T) {
	o := NewSGD(1)
	s := NewStepLR(o, 3, 0.5)
	for epoch := 0; epoch < 6; epoch++ {
		s.EpochEnd(epoch, 0)
	}
	if s.StepSize() != 0.25 {
		t.Errorf("step size = %v, want 0.25", s.StepSize())
	}
}

func TestExponentialLR(t *testing.T) {
	o := NewAdam(1)
	s := NewExponentialLR(o, 0.5)
	s.EpochEnd(0, 0)
	s.EpochEnd(1, 0)
	if s.StepSize() != 0.25 {
		t.Errorf("step size = %v, want 0.25", s.StepSize())
	}
}

func TestReduceLROnPlateau(t *testing.T) {
	o := NewSGD(1)
	s := NewReduceLROnPlateau(o, 0.1, 2, 0, 0.05).WithCooldown(1)
	for epoch, l := range []float64{1, 1, 1, 1, 1, 1} {
		s.EpochEnd(epoch, l)
	}
	// Reductions after epochs 2 and 5, the second clamped to minLR.
	if math.Abs(s.StepSize()-0.05) > 1e-12 {
		t.Errorf("step size = %v, want 0.05", s.StepSize())
	}
}
