package tensor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func randomTensor(rng *rand.Rand, dims ...int) *Tensor {
	t := New(dims...)
	for i := range t.data {
		t.data[i] = rng.Float64()*2 - 1
	}
	return t
}

func TestTensor_OffsetFirstDimFastest(t *testing.T) {
	x := New(2, 3, 4)
	assert.Equal(t, 0, x.Offset(0, 0, 0))
	assert.Equal(t, 1, x.Offset(1, 0, 0))
	assert.Equal(t, 2, x.Offset(0, 1, 0))
	assert.Equal(t, 6, x.Offset(0, 0, 1))
	assert.Equal(t, 1+2*(2+3*3), x.Offset(1, 2, 3))

	x.Set(7, 1, 2, 3)
	assert.Equal(t, 7.0, x.Data()[23])
	assert.Equal(t, 7.0, x.At(1, 2, 3))
}

func TestTensor_FromSliceLengthMismatch(t *testing.T) {
	_, err := FromSlice([]float64{1, 2, 3}, 2, 2)
	var se *ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []int{3}, se.Got)
	assert.Equal(t, []int{4}, se.Want)
}

func TestTensor_InvalidDimsReturnErrors(t *testing.T) {
	var se *ShapeError
	_, err := FromSlice(nil)
	require.ErrorAs(t, err, &se)
	_, err = FromSlice([]float64{1, 2}, 2, -1)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []int{2, -1}, se.Got)

	x := New(4)
	_, err = x.Reshape(0, 4)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []int{0, 4}, se.Got)
	_, err = x.Reshape()
	require.ErrorAs(t, err, &se)
}

func TestTensor_ReshapeSharesBuffer(t *testing.T) {
	x := New(2, 6)
	v, err := x.Reshape(3, 4)
	require.NoError(t, err)
	v.Set(5, 2, 3)
	assert.Equal(t, 5.0, x.Data()[11])

	_, err = x.Reshape(5, 2)
	require.Error(t, err)
}

func TestTensor_ResizeReusesCapacity(t *testing.T) {
	x := New(4, 10)
	before := &x.Data()[0]
	x.Resize(4, 5)
	assert.Equal(t, []int{4, 5}, x.Dims())
	assert.Equal(t, 20, x.Size())
	assert.Same(t, before, &x.Data()[0])

	x.Resize(4, 10)
	assert.Same(t, before, &x.Data()[0], "capacity was sufficient")

	x.Resize(4, 11)
	assert.Equal(t, 44, x.Size())
}

func TestTensor_ShapeDims2D(t *testing.T) {
	x := New(3, 4, 2, 5)
	assert.Equal(t, []int{24, 5}, x.ShapeDims2D())
}

func TestTensor_ElementwiseOps(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4}, 2, 2)
	b, _ := FromSlice([]float64{4, 3, 2, 1}, 2, 2)

	tests := []struct {
		op   Op
		want []float64
	}{
		{OpAdd, []float64{5, 5, 5, 5}},
		{OpSub, []float64{-3, -1, 1, 3}},
		{OpRSub, []float64{3, 1, -1, -3}},
		{OpMul, []float64{4, 6, 6, 4}},
		{OpDiv, []float64{0.25, 2.0 / 3, 1.5, 4}},
		{OpRDiv, []float64{4, 1.5, 2.0 / 3, 0.25}},
		{OpMin, []float64{1, 2, 2, 1}},
		{OpMax, []float64{4, 3, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			got, err := a.Elementwise(tt.op, b, nil)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got.Data(), 1e-12)
		})
	}
}

func TestTensor_ElementwiseInPlace(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3}, 3)
	b, _ := FromSlice([]float64{1, 1, 1}, 3)
	require.NoError(t, a.AddInPlace(b))
	assert.Equal(t, []float64{2, 3, 4}, a.Data())

	got, err := a.Scalar(OpRSub, 10, a)
	require.NoError(t, err)
	assert.Same(t, a, got)
	assert.Equal(t, []float64{8, 7, 6}, a.Data())
}

func TestTensor_ElementwiseShapeMismatch(t *testing.T) {
	a := New(2, 3)
	b := New(3, 2)
	_, err := a.Add(b)
	var se *ShapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "add", se.Op)
	assert.Equal(t, []int{3, 2}, se.Got)
	assert.Equal(t, []int{2, 3}, se.Want)

	_, err = a.Elementwise(OpAdd, New(2, 3), New(6))
	require.ErrorAs(t, err, &se)
}

func TestTensor_AggregateConstantSum(t *testing.T) {
	const n, m, c = 4, 3, 2.5
	x := New(n, m)
	x.Fill(c)
	sum, err := x.Aggregate(0, AggSum)
	require.NoError(t, err)
	assert.Equal(t, []int{m}, sum.Dims())
	for _, v := range sum.Data() {
		assert.Equal(t, n*c, v)
	}
}

func TestTensor_AggregateMaxAlongAxis0(t *testing.T) {
	x := New(4, 3)
	for j := 0; j < 3; j++ {
		for i := 0; i < 4; i++ {
			x.Set(float64(10*j+i), i, j)
		}
	}
	maxes, err := x.Aggregate(0, AggMax)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 13, 23}, maxes.Data())

	mins, err := x.Aggregate(1, AggMin)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, mins.Data())
}

func TestTensor_AggregateOps(t *testing.T) {
	x, _ := FromSlice([]float64{1, 2, 3, -4, 5, 6}, 3, 2)
	tests := []struct {
		name string
		op   AggOp
		want []float64
	}{
		{"sum", AggSum, []float64{6, 7}},
		{"sumsq", AggSumSq, []float64{14, 77}},
		{"min", AggMin, []float64{1, -4}},
		{"max", AggMax, []float64{3, 6}},
		{"product", AggProduct, []float64{6, -120}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := x.Aggregate(0, tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Data())
		})
	}
}

func TestTensor_AggregateMiddleAxis(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := randomTensor(rng, 2, 3, 4)
	got, err := x.Aggregate(1, AggSum)
	require.NoError(t, err)
	require.Equal(t, []int{2, 4}, got.Dims())
	for i := 0; i < 2; i++ {
		for k := 0; k < 4; k++ {
			want := 0.0
			for j := 0; j < 3; j++ {
				want += x.At(i, j, k)
			}
			assert.InDelta(t, want, got.At(i, k), 1e-12)
		}
	}
}

func TestTensor_AggregateRank1(t *testing.T) {
	x, _ := FromSlice([]float64{1, 2, 3}, 3)
	got, err := x.Aggregate(0, AggSum)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got.Dims())
	assert.Equal(t, 6.0, got.Data()[0])

	_, err = x.Aggregate(1, AggSum)
	var ae *AxisError
	require.ErrorAs(t, err, &ae)
}

func TestTensor_AggregateAll(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	x := randomTensor(rng, 2, 3, 4, 5)
	got, err := x.AggregateAll(2, AggSum)
	require.NoError(t, err)
	require.Equal(t, []int{4}, got.Dims())
	for c := 0; c < 4; c++ {
		want := 0.0
		for e := 0; e < 5; e++ {
			for j := 0; j < 3; j++ {
				for i := 0; i < 2; i++ {
					want += x.At(i, j, c, e)
				}
			}
		}
		assert.InDelta(t, want, got.Data()[c], 1e-12)
	}
}

func TestTensor_BroadcastAddSubRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	dims := []int{3, 4, 2, 5}
	for axis := range dims {
		x := randomTensor(rng, dims...)
		v := randomTensor(rng, x.dimsWithout(axis)...)

		added, err := x.BroadcastOp(axis, v, OpAdd, nil)
		require.NoError(t, err)
		back, err := added.BroadcastOp(axis, v, OpSub, nil)
		require.NoError(t, err)
		for i := range x.Data() {
			// exact for values of comparable magnitude in [-1, 1]
			assert.InDelta(t, x.Data()[i], back.Data()[i], 1e-15, "axis %d index %d", axis, i)
		}
	}
}

func TestTensor_BroadcastBiasPerRow(t *testing.T) {
	x := New(3, 2)
	bias, _ := FromSlice([]float64{1, 2, 3}, 3)
	got, err := x.BroadcastOp(1, bias, OpAdd, x)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, got.Data())

	w, _ := FromSlice([]float64{2, 10}, 2)
	_, err = x.BroadcastOp(0, w, OpMul, x)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6, 10, 20, 30}, x.Data())
}

func TestTensor_BroadcastShapeMismatch(t *testing.T) {
	x := New(3, 2)
	_, err := x.BroadcastOp(1, New(2), OpAdd, nil)
	var se *ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []int{3}, se.Want)
}

func TestTensor_SelectByIndices(t *testing.T) {
	// 3 classes, 2 examples
	x, _ := FromSlice([]float64{0.1, 0.7, 0.2, 0.5, 0.3, 0.2}, 3, 2)
	labels, _ := FromSlice([]float64{1, 0}, 2)
	got, err := x.SelectByIndices(0, labels)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.7, 0.5}, got.Data())

	bad, _ := FromSlice([]float64{3, 0}, 2)
	_, err = x.SelectByIndices(0, bad)
	var ie *IndexError
	require.ErrorAs(t, err, &ie)
}

func TestTensor_IndexOneHot(t *testing.T) {
	labels, _ := FromSlice([]float64{2, 0, 1}, 3)
	got, err := labels.Index(3)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3}, got.Dims())
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 0, 0, 1, 0}, got.Data())

	_, err = labels.Index(2)
	require.Error(t, err)
}

func TestTensor_GetByDim(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	x := randomTensor(rng, 2, 3, 5)
	got, err := x.GetByDim(2, []int{4, 0})
	require.NoError(t, err)
	require.Equal(t, []int{2, 3, 2}, got.Dims())
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, x.At(i, j, 4), got.At(i, j, 0))
			assert.Equal(t, x.At(i, j, 0), got.At(i, j, 1))
		}
	}

	mid, err := x.GetByDim(1, []int{2})
	require.NoError(t, err)
	assert.Equal(t, x.At(1, 2, 3), mid.At(1, 0, 3))
}

func toDense(x *Tensor, trans bool) *mat.Dense {
	r, c := x.Dim(0), x.Dim(1)
	d := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d.Set(i, j, x.At(i, j))
		}
	}
	if trans {
		var tr mat.Dense
		tr.CloneFrom(d.T())
		return &tr
	}
	return d
}

func TestTensor_MatMulMatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tests := []struct {
		name              string
		a, b              []int
		trans, transOther bool
	}{
		{"nn", []int{3, 4}, []int{4, 5}, false, false},
		{"tn", []int{4, 3}, []int{4, 5}, true, false},
		{"nt", []int{3, 4}, []int{5, 4}, false, true},
		{"tt", []int{4, 3}, []int{5, 4}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := randomTensor(rng, tt.a...)
			b := randomTensor(rng, tt.b...)
			got, err := a.MatMul(tt.trans, tt.transOther, b, nil)
			require.NoError(t, err)
			require.Equal(t, []int{3, 5}, got.Dims())

			var want mat.Dense
			want.Mul(toDense(a, tt.trans), toDense(b, tt.transOther))
			for i := 0; i < 3; i++ {
				for j := 0; j < 5; j++ {
					assert.InDelta(t, want.At(i, j), got.At(i, j), 1e-12)
				}
			}
		})
	}
}

func TestTensor_MatMulShapeErrors(t *testing.T) {
	a := New(3, 4)
	_, err := a.MatMul(false, false, New(3, 5), nil)
	var se *ShapeError
	require.ErrorAs(t, err, &se)

	_, err = a.MatMul(true, false, New(3, 5), nil)
	require.NoError(t, err)

	_, err = a.MatMul(false, false, New(4, 5), New(5, 3))
	require.ErrorAs(t, err, &se)

	_, err = New(2, 2, 2).MatMul(false, false, New(2, 2), nil)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []int{2, 2, 2}, se.Got)

	_, err = New(2, 3).MatMul(false, false, New(3), nil)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []int{3}, se.Got)
	assert.Equal(t, []int{1, 3}, se.Want)
}

func TestTensor_Stats(t *testing.T) {
	x, _ := FromSlice([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 4, 2)
	assert.InDelta(t, 40.0, x.Sum(), 1e-12)
	assert.InDelta(t, 5.0, x.Mean(), 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7), x.Std(), 1e-12)

	mean, err := x.MeanAxis(0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3.5, 6.5}, mean.Data(), 1e-12)

	std, err := x.StdAxis(0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, math.Sqrt(11.0 / 3)}, std.Data(), 1e-12)
}
