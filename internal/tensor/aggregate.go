package tensor

import (
	"math"
)

// AggOp is a reduction applied along an axis.
type AggOp int

const (
	AggSum AggOp = iota
	AggSumSq
	AggMin
	AggMax
	AggProduct
)

func (op AggOp) init() float64 {
	switch op {
	case AggMin:
		return math.MaxFloat64
	case AggMax:
		return -math.MaxFloat64
	case AggProduct:
		return 1
	}
	return 0
}

func (op AggOp) fold(acc, v float64) float64 {
	switch op {
	case AggSum:
		return acc + v
	case AggSumSq:
		return acc + v*v
	case AggMin:
		return math.Min(acc, v)
	case AggMax:
		return math.Max(acc, v)
	case AggProduct:
		return acc * v
	}
	panic("tensor: unknown aggregate op")
}

// split returns the number of elements before, along and after axis, so the
// offset of (i, j, k) in that view is i + before*(j + along*k).
func (t *Tensor) split(axis int) (before, along, after int) {
	before, after = 1, 1
	for i, d := range t.dims {
		switch {
		case i < axis:
			before *= d
		case i > axis:
			after *= d
		}
	}
	return before, t.dims[axis], after
}

func (t *Tensor) checkAxis(op string, axis int) error {
	if axis < 0 || axis >= len(t.dims) {
		return &AxisError{Op: op, Axis: axis, Rank: len(t.dims)}
	}
	return nil
}

// dimsWithout returns the dimensions with axis removed, or [1] for rank 1.
func (t *Tensor) dimsWithout(axis int) []int {
	if len(t.dims) == 1 {
		return []int{1}
	}
	dims := make([]int, 0, len(t.dims)-1)
	dims = append(dims, t.dims[:axis]...)
	return append(dims, t.dims[axis+1:]...)
}

// Aggregate reduces t along axis, returning a tensor of rank-1 (a one element
// tensor when t has rank 1).
func (t *Tensor) Aggregate(axis int, op AggOp) (*Tensor, error) {
	if err := t.checkAxis("aggregate", axis); err != nil {
		return nil, err
	}
	res := New(t.dimsWithout(axis)...)
	before, along, after := t.split(axis)
	for k := 0; k < after; k++ {
		for i := 0; i < before; i++ {
			acc := op.init()
			base := i + before*along*k
			for j := 0; j < along; j++ {
				acc = op.fold(acc, t.data[base+before*j])
			}
			res.data[i+before*k] = acc
		}
	}
	return res, nil
}

// AggregateAll reduces over every axis except keep, returning a tensor of
// shape [dims[keep]].
func (t *Tensor) AggregateAll(keep int, op AggOp) (*Tensor, error) {
	if err := t.checkAxis("aggregate all", keep); err != nil {
		return nil, err
	}
	before, along, after := t.split(keep)
	res := New(along)
	for j := 0; j < along; j++ {
		acc := op.init()
		for k := 0; k < after; k++ {
			base := before * (j + along*k)
			for i := 0; i < before; i++ {
				acc = op.fold(acc, t.data[base+i])
			}
		}
		res.data[j] = acc
	}
	return res, nil
}
