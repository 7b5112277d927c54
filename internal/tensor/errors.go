package tensor

import "fmt"

// ShapeError reports an operation applied to tensors of incompatible shape.
type ShapeError struct {
	Op   string
	Got  []int
	Want []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("tensor: %s: shape mismatch: got %v, want %v", e.Op, e.Got, e.Want)
}

func newShapeError(op string, got, want []int) *ShapeError {
	return &ShapeError{Op: op, Got: cloneInts(got), Want: cloneInts(want)}
}

// AxisError reports an axis that does not exist in a tensor of the given rank.
type AxisError struct {
	Op   string
	Axis int
	Rank int
}

func (e *AxisError) Error() string {
	return fmt.Sprintf("tensor: %s: axis %d out of range for rank %d", e.Op, e.Axis, e.Rank)
}

// IndexError reports an index value outside of the extent it selects from.
type IndexError struct {
	Op     string
	Index  int
	Extent int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("tensor: %s: index %d out of range [0,%d)", e.Op, e.Index, e.Extent)
}
