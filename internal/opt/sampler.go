package opt

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

// Batch is one mini-batch. W is nil when the sampler has no example weights.
type Batch struct {
	X, Y, W *tensor.Tensor
}

// BatchSampler draws mini-batches along the last (example) axis of the data.
// Every epoch visits each example exactly once in a fresh random order; the
// last batch is short when the batch size does not divide the example count.
type BatchSampler struct {
	x, y, w   *tensor.Tensor
	batchSize int
	rng       *rand.Rand

	perm []int
	pos  int
}

// NewBatchSampler checks that x, y and w (optional) share the example count.
func NewBatchSampler(x, y, w *tensor.Tensor, batchSize int, seed uint64) (*BatchSampler, error) {
	n := x.LastDim()
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size %d must be positive", batchSize)
	}
	if y.LastDim() != n {
		return nil, &tensor.ShapeError{Op: "batch sampler labels", Got: y.Dims(), Want: []int{n}}
	}
	if w != nil && w.LastDim() != n {
		return nil, &tensor.ShapeError{Op: "batch sampler weights", Got: w.Dims(), Want: []int{n}}
	}
	return &BatchSampler{
		x: x, y: y, w: w,
		batchSize: min(batchSize, n),
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// NumExamples returns the number of examples in the data.
func (s *BatchSampler) NumExamples() int { return s.x.LastDim() }

// NumBatches returns ceil(examples / batch size).
func (s *BatchSampler) NumBatches() int {
	n := s.NumExamples()
	return (n + s.batchSize - 1) / s.batchSize
}

// Shuffle starts a new epoch with a fresh permutation.
func (s *BatchSampler) Shuffle() {
	s.perm = s.rng.Perm(s.NumExamples())
	s.pos = 0
}

// Next returns the next batch of the epoch and false once the epoch is done.
func (s *BatchSampler) Next() (Batch, bool, error) {
	if s.perm == nil {
		s.Shuffle()
	}
	if s.pos >= len(s.perm) {
		return Batch{}, false, nil
	}
	idx := s.perm[s.pos:min(s.pos+s.batchSize, len(s.perm))]
	s.pos += len(idx)
	b, err := s.gather(idx)
	return b, err == nil, err
}

// Sample returns a batch of size examples drawn without replacement,
// independent of the epoch order.
func (s *BatchSampler) Sample(size int) (Batch, error) {
	size = min(size, s.NumExamples())
	return s.gather(s.rng.Perm(s.NumExamples())[:size])
}

func (s *BatchSampler) gather(idx []int) (Batch, error) {
	var (
		b   Batch
		err error
	)
	if b.X, err = s.x.GetByDim(s.x.Rank()-1, idx); err != nil {
		return Batch{}, err
	}
	if b.Y, err = s.y.GetByDim(s.y.Rank()-1, idx); err != nil {
		return Batch{}, err
	}
	if s.w != nil {
		if b.W, err = s.w.GetByDim(s.w.Rank()-1, idx); err != nil {
			return Batch{}, err
		}
	}
	return b, nil
}
