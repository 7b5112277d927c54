package tensor

// SelectByIndices picks one value along axis for every remaining position.
// idx has the shape of t without axis and holds integral positions along axis.
func (t *Tensor) SelectByIndices(axis int, idx *Tensor) (*Tensor, error) {
	if err := t.checkAxis("select", axis); err != nil {
		return nil, err
	}
	want := t.dimsWithout(axis)
	if !sameInts(idx.dims, want) {
		return nil, newShapeError("select", idx.dims, want)
	}
	res := New(want...)
	before, along, after := t.split(axis)
	for k := 0; k < after; k++ {
		for i := 0; i < before; i++ {
			r := i + before*k
			j := int(idx.data[r])
			if j < 0 || j >= along {
				return nil, &IndexError{Op: "select", Index: j, Extent: along}
			}
			res.data[r] = t.data[i+before*(j+along*k)]
		}
	}
	return res, nil
}

// Index treats t as class labels and returns the one-hot indicator tensor
// with a new leading dimension of numClasses.
func (t *Tensor) Index(numClasses int) (*Tensor, error) {
	dims := append([]int{numClasses}, t.dims...)
	res := New(dims...)
	for r, v := range t.data {
		c := int(v)
		if c < 0 || c >= numClasses {
			return nil, &IndexError{Op: "index", Index: c, Extent: numClasses}
		}
		res.data[c+numClasses*r] = 1
	}
	return res, nil
}

// GetByDim gathers the given positions along axis, in order. It is used to
// draw mini-batches from the example axis.
func (t *Tensor) GetByDim(axis int, positions []int) (*Tensor, error) {
	if err := t.checkAxis("get by dim", axis); err != nil {
		return nil, err
	}
	dims := t.Dims()
	dims[axis] = len(positions)
	res := New(dims...)
	before, along, after := t.split(axis)
	n := len(positions)
	for jj, j := range positions {
		if j < 0 || j >= along {
			return nil, &IndexError{Op: "get by dim", Index: j, Extent: along}
		}
		for k := 0; k < after; k++ {
			copy(res.data[before*(jj+n*k):before*(jj+n*k+1)], t.data[before*(j+along*k):before*(j+along*k+1)])
		}
	}
	return res, nil
}
