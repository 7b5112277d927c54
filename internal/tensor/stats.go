package tensor

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	return floats.Sum(t.data)
}

// SumSq returns the sum of squared elements.
func (t *Tensor) SumSq() float64 {
	return floats.Dot(t.data, t.data)
}

// Mean returns the arithmetic mean of all elements.
func (t *Tensor) Mean() float64 {
	return t.Sum() / float64(len(t.data))
}

// Std returns the sample standard deviation, sqrt(n/(n-1) * (E[X^2] - mean^2)).
func (t *Tensor) Std() float64 {
	n := float64(len(t.data))
	mean := t.Mean()
	return math.Sqrt(n / (n - 1) * (t.SumSq()/n - mean*mean))
}

// MeanAxis returns the mean along axis.
func (t *Tensor) MeanAxis(axis int) (*Tensor, error) {
	res, err := t.Aggregate(axis, AggSum)
	if err != nil {
		return nil, err
	}
	res.ScaleInPlace(1 / float64(t.dims[axis]))
	return res, nil
}

// StdAxis returns the sample standard deviation along axis.
func (t *Tensor) StdAxis(axis int) (*Tensor, error) {
	mean, err := t.MeanAxis(axis)
	if err != nil {
		return nil, err
	}
	sq, err := t.Aggregate(axis, AggSumSq)
	if err != nil {
		return nil, err
	}
	n := float64(t.dims[axis])
	for i, m := range mean.data {
		sq.data[i] = math.Sqrt(n / (n - 1) * (sq.data[i]/n - m*m))
	}
	return sq, nil
}
