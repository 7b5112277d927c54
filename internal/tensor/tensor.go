// Package tensor provides a dense n-dimensional float64 array.
//
// Elements live in one flat buffer with the first dimension varying fastest:
// the offset of (i0, i1, ..., ik) is i0 + d0*(i1 + d1*(i2 + ...)).
// Batches of data carry the example count as their last dimension.
package tensor

import (
	"fmt"
	"strings"
)

// Tensor is a dense float64 array of rank >= 1.
type Tensor struct {
	data []float64
	dims []int
}

// New creates a zero-filled tensor with the given dimensions.
func New(dims ...int) *Tensor {
	n := numElements(dims)
	return &Tensor{data: make([]float64, n), dims: cloneInts(dims)}
}

// FromSlice wraps data (without copying) as a tensor with the given dimensions.
func FromSlice(data []float64, dims ...int) (*Tensor, error) {
	if !validDims(dims) {
		return nil, newShapeError("from slice", dims, []int{len(data)})
	}
	n := numElements(dims)
	if len(data) != n {
		return nil, newShapeError("from slice", []int{len(data)}, []int{n})
	}
	return &Tensor{data: data, dims: cloneInts(dims)}, nil
}

// Ones creates a tensor filled with 1.
func Ones(dims ...int) *Tensor {
	t := New(dims...)
	t.Fill(1)
	return t
}

// Zeros is an alias of New kept for symmetry with Ones.
func Zeros(dims ...int) *Tensor {
	return New(dims...)
}

func numElements(dims []int) int {
	if len(dims) == 0 {
		panic("tensor: rank must be at least 1")
	}
	n := 1
	for i, d := range dims {
		if d <= 0 {
			panic(fmt.Sprintf("tensor: invalid dimension %d at index %d", d, i))
		}
		n *= d
	}
	return n
}

// validDims reports whether dims has at least one entry and all are positive.
func validDims(dims []int) bool {
	if len(dims) == 0 {
		return false
	}
	for _, d := range dims {
		if d <= 0 {
			return false
		}
	}
	return true
}

func cloneInts(s []int) []int {
	c := make([]int, len(s))
	copy(c, s)
	return c
}

// Dims returns a copy of the dimension sizes.
func (t *Tensor) Dims() []int {
	return cloneInts(t.dims)
}

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int {
	return t.dims[i]
}

// LastDim returns the size of the last dimension, the example count for batches.
func (t *Tensor) LastDim() int {
	return t.dims[len(t.dims)-1]
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.dims)
}

// Size returns the number of elements.
func (t *Tensor) Size() int {
	return len(t.data)
}

// Data returns the underlying buffer. Writes are visible through t.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Offset maps a logical index to its position in the flat buffer.
func (t *Tensor) Offset(idx ...int) int {
	if len(idx) != len(t.dims) {
		panic(fmt.Sprintf("tensor: index rank %d does not match tensor rank %d", len(idx), len(t.dims)))
	}
	off := 0
	for i := len(idx) - 1; i >= 0; i-- {
		if idx[i] < 0 || idx[i] >= t.dims[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for dims %v", idx, t.dims))
		}
		off = off*t.dims[i] + idx[i]
	}
	return off
}

// At returns the element at idx.
func (t *Tensor) At(idx ...int) float64 {
	return t.data[t.Offset(idx...)]
}

// Set stores v at idx.
func (t *Tensor) Set(v float64, idx ...int) {
	t.data[t.Offset(idx...)] = v
}

// SameShape reports whether o has exactly the dimensions of t.
func (t *Tensor) SameShape(o *Tensor) bool {
	return sameInts(t.dims, o.dims)
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Reshape returns a view of t with new dimensions sharing the same buffer.
func (t *Tensor) Reshape(dims ...int) (*Tensor, error) {
	if !validDims(dims) || numElements(dims) != len(t.data) {
		return nil, newShapeError("reshape", dims, t.dims)
	}
	return &Tensor{data: t.data, dims: cloneInts(dims)}, nil
}

// Resize changes the dimensions of t in place. The buffer is reallocated only
// when its capacity is too small; otherwise its logical length is adjusted.
// Contents are not cleared.
func (t *Tensor) Resize(dims ...int) *Tensor {
	n := numElements(dims)
	if cap(t.data) >= n {
		t.data = t.data[:n]
	} else {
		t.data = make([]float64, n)
	}
	t.dims = cloneInts(dims)
	return t
}

// ShapeDims2D returns the dimensions collapsed to [prod(d0..dn-1), dn].
func (t *Tensor) ShapeDims2D() []int {
	last := t.LastDim()
	return []int{len(t.data) / last, last}
}

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{data: make([]float64, len(t.data)), dims: cloneInts(t.dims)}
	copy(c.data, t.data)
	return c
}

// CopyFrom copies the elements of src into t. Both must have the same shape.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.SameShape(src) {
		return newShapeError("copy", src.dims, t.dims)
	}
	copy(t.data, src.data)
	return nil
}

// Fill sets every element to v.
func (t *Tensor) Fill(v float64) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Zero sets every element to 0.
func (t *Tensor) Zero() {
	clear(t.data)
}

func (t *Tensor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor%v[", t.dims)
	for i, v := range t.data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if i == 16 {
			sb.WriteString("...")
			break
		}
		fmt.Fprintf(&sb, "%.4g", v)
	}
	sb.WriteByte(']')
	return sb.String()
}
