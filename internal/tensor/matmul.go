package tensor

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

// MatMul computes op(t) x op(other) for rank-2 tensors, where op transposes
// when the matching flag is set. The m x n result is written to out when it is
// non-nil.
//
// A column-major d0 x d1 tensor has the memory of a row-major d1 x d0 matrix,
// so the product is computed as the row-major transpose
// op(other)^T x op(t)^T, which needs no copies.
func (t *Tensor) MatMul(trans, transOther bool, other, out *Tensor) (*Tensor, error) {
	for _, x := range []*Tensor{t, other} {
		if x.Rank() != 2 {
			return nil, newShapeError("matmul operand must be a matrix", x.dims, x.ShapeDims2D())
		}
	}
	m, k := t.dims[0], t.dims[1]
	if trans {
		m, k = k, m
	}
	k2, n := other.dims[0], other.dims[1]
	if transOther {
		k2, n = n, k2
	}
	if k != k2 {
		return nil, newShapeError("matmul", other.dims, opDims(t.dims, trans))
	}
	if out == nil {
		out = New(m, n)
	} else if !sameInts(out.dims, []int{m, n}) {
		return nil, newShapeError("matmul out", out.dims, []int{m, n})
	}

	a := blas64.General{Rows: t.dims[1], Cols: t.dims[0], Stride: t.dims[0], Data: t.data}
	b := blas64.General{Rows: other.dims[1], Cols: other.dims[0], Stride: other.dims[0], Data: other.data}
	c := blas64.General{Rows: n, Cols: m, Stride: m, Data: out.data}
	blas64.Gemm(transpose(transOther), transpose(trans), 1, b, a, 0, c)
	return out, nil
}

func transpose(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

// opDims is the shape other must have on its contracted side, reported in
// matmul shape errors.
func opDims(dims []int, trans bool) []int {
	if trans {
		return []int{dims[1], dims[0]}
	}
	return cloneInts(dims)
}
