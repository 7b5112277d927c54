package tensor

// BroadcastOp applies op between t and a lower tensor whose shape is the shape
// of t with axis removed, repeating lower once per position along axis. It
// is how biases are added to every example and how per-example weights
// scale every class. The result goes to out when non-nil.
func (t *Tensor) BroadcastOp(axis int, lower *Tensor, op Op, out *Tensor) (*Tensor, error) {
	if err := t.checkAxis("broadcast "+op.String(), axis); err != nil {
		return nil, err
	}
	want := t.dimsWithout(axis)
	if !sameInts(lower.dims, want) {
		return nil, newShapeError("broadcast "+op.String(), lower.dims, want)
	}
	out, err := t.outFor("broadcast "+op.String(), out)
	if err != nil {
		return nil, err
	}
	before, along, after := t.split(axis)
	for k := 0; k < after; k++ {
		for j := 0; j < along; j++ {
			base := before * (j + along*k)
			low := before * k
			for i := 0; i < before; i++ {
				out.data[base+i] = op.apply(t.data[base+i], lower.data[low+i])
			}
		}
	}
	return out, nil
}
