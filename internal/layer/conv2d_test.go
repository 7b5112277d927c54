package layer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/convnet/internal/tensor"
	"github.com/FlavioCFOliveira/convnet/internal/weightinit"
)

func TestConv2D_KnownValues(t *testing.T) {
	for _, algo := range []ConvAlgorithm{ConvDirect, ConvFFT} {
		t.Run(algo.String(), func(t *testing.T) {
			c := NewConv2D(1, 2, 2, WithAlgorithm(algo))
			require.NoError(t, c.SetInputShape([]int{3, 3}))
			c.InitParams(weightinit.Constant{Weight: 1, Bias: 0.5})
			assert.Equal(t, []int{2, 2, 1}, c.OutputShape())
			assert.Equal(t, 5, c.NumParams())

			x, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, 3, 3, 1)
			out, err := c.Forward(x, true)
			require.NoError(t, err)
			assert.InDeltaSlice(t, []float64{12.5, 16.5, 24.5, 28.5}, out.Data(), 1e-9)
		})
	}
}

func TestConv2D_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      []int
		k, s    int
		wantErr bool
		out     []int
	}{
		{"stride one", []int{28, 28, 1}, 5, 1, false, []int{24, 24, 3}},
		{"stride two divides", []int{9, 9, 2}, 3, 2, false, []int{4, 4, 3}},
		{"stride two does not divide", []int{8, 8, 2}, 3, 2, true, nil},
		{"stride above kernel", []int{9, 9}, 2, 3, false, []int{3, 3, 3}},
		{"kernel larger than input", []int{4, 4}, 5, 1, true, nil},
		{"rank four input", []int{4, 4, 1, 1}, 2, 1, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConv2D(3, tt.k, tt.k, WithStride(tt.s, tt.s))
			err := c.SetInputShape(tt.in)
			if tt.wantErr {
				var ce *ConfigError
				require.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.out, c.OutputShape())
		})
	}
}

type convCase struct {
	iW, iH, nC, nK int
	kW, kH, sW, sH int
	n              int
}

func (c convCase) String() string {
	return fmt.Sprintf("in%dx%dx%d_k%dx%dx%d_s%dx%d_n%d", c.iW, c.iH, c.nC, c.kW, c.kH, c.nK, c.sW, c.sH, c.n)
}

var convCases = []convCase{
	{iW: 8, iH: 8, nC: 1, nK: 2, kW: 3, kH: 3, sW: 1, sH: 1, n: 2},
	{iW: 12, iH: 10, nC: 3, nK: 4, kW: 5, kH: 3, sW: 1, sH: 1, n: 2},
	{iW: 9, iH: 9, nC: 2, nK: 3, kW: 3, kH: 3, sW: 2, sH: 2, n: 3},
	{iW: 9, iH: 9, nC: 2, nK: 2, kW: 2, kH: 2, sW: 3, sH: 3, n: 1},
	{iW: 28, iH: 20, nC: 1, nK: 3, kW: 5, kH: 5, sW: 1, sH: 1, n: 1},
	{iW: 11, iH: 13, nC: 2, nK: 2, kW: 3, kH: 5, sW: 1, sH: 2, n: 2},
}

func newConvPair(t *testing.T, c convCase) (direct, fft *Conv2D) {
	t.Helper()
	direct = NewConv2D(c.nK, c.kW, c.kH, WithStride(c.sW, c.sH))
	fft = NewConv2D(c.nK, c.kW, c.kH, WithStride(c.sW, c.sH), WithAlgorithm(ConvFFT))
	for _, l := range []*Conv2D{direct, fft} {
		require.NoError(t, l.SetInputShape([]int{c.iW, c.iH, c.nC}))
	}
	direct.InitParams(weightinit.NewHe(1))
	fft.InitParams(weightinit.NewHe(1))
	copy(direct.Bias().Data(), []float64{0.1, -0.2, 0.3, -0.4}[:c.nK])
	copy(fft.Bias().Data(), direct.Bias().Data())
	return direct, fft
}

func TestConv2D_DirectAndFFTAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	for _, c := range convCases {
		t.Run(c.String(), func(t *testing.T) {
			direct, fft := newConvPair(t, c)
			x := randomTensor(rng, c.iW, c.iH, c.nC, c.n)

			outD, err := direct.Forward(x, false)
			require.NoError(t, err)
			outF, err := fft.Forward(x, false)
			require.NoError(t, err)
			assert.InDeltaSlice(t, outD.Data(), outF.Data(), 1e-6)

			g := randomTensor(rng, outD.Dims()...)
			gradD, err := direct.Backward(g)
			require.NoError(t, err)
			gradF, err := fft.Backward(g)
			require.NoError(t, err)
			assert.InDeltaSlice(t, gradD.Data(), gradF.Data(), 1e-6)

			require.NoError(t, direct.UpdateParamGrad(g))
			require.NoError(t, fft.UpdateParamGrad(g))
			assert.InDeltaSlice(t, direct.WeightsGrad().Data(), fft.WeightsGrad().Data(), 1e-6)
			assert.InDeltaSlice(t, direct.BiasGrad().Data(), fft.BiasGrad().Data(), 1e-12)
		})
	}
}

func TestConv2D_Gradients(t *testing.T) {
	cases := []convCase{
		{iW: 6, iH: 5, nC: 2, nK: 2, kW: 3, kH: 2, sW: 1, sH: 1, n: 2},
		{iW: 7, iH: 7, nC: 1, nK: 2, kW: 3, kH: 3, sW: 2, sH: 2, n: 2},
	}
	rng := rand.New(rand.NewSource(22))
	for _, c := range cases {
		for _, algo := range []ConvAlgorithm{ConvDirect, ConvFFT} {
			t.Run(c.String()+"_"+algo.String(), func(t *testing.T) {
				l := NewConv2D(c.nK, c.kW, c.kH, WithStride(c.sW, c.sH), WithAlgorithm(algo))
				require.NoError(t, l.SetInputShape([]int{c.iW, c.iH, c.nC}))
				l.InitParams(weightinit.NewXavier(3))
				checkLayerGradients(t, l, randomTensor(rng, c.iW, c.iH, c.nC, c.n), 23)
			})
		}
	}
}

func TestConv2D_StrideGapsGetZeroGradient(t *testing.T) {
	// 1x1 kernel with stride 2 over 4x4 reads only even positions.
	c := NewConv2D(1, 1, 1, WithStride(2, 2))
	require.NoError(t, c.SetInputShape([]int{4, 4}))
	c.InitParams(weightinit.Constant{Weight: 3})

	out, err := c.Forward(tensor.Ones(4, 4, 1), true)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1, 1}, out.Dims())

	grad, err := c.Backward(tensor.Ones(2, 2, 1, 1))
	require.NoError(t, err)
	for h := 0; h < 4; h++ {
		for w := 0; w < 4; w++ {
			want := 0.0
			if w%2 == 0 && h%2 == 0 {
				want = 3
			}
			assert.Equal(t, want, grad.At(w, h, 0), "position (%d,%d)", w, h)
		}
	}
}

func TestConv2D_SwitchAlgorithmKeepsParams(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	c := NewConv2D(2, 3, 3)
	require.NoError(t, c.SetInputShape([]int{10, 10, 1}))
	c.InitParams(weightinit.NewHe(2))
	x := randomTensor(rng, 10, 10, 1, 2)

	direct, err := c.Forward(x, true)
	require.NoError(t, err)
	want := direct.Clone()

	c.SetAlgorithm(ConvFFT)
	got, err := c.Forward(x, true)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Data(), got.Data(), 1e-9)
}

func TestFFTPlan_Tiles(t *testing.T) {
	p := newFFTPlan(28, 20, 5, 3)
	assert.Equal(t, 8, p.tW)
	assert.Equal(t, 4, p.tH)
	assert.Equal(t, 16, p.fW)
	assert.Equal(t, 8, p.fH)
	assert.Equal(t, 4, p.nx)
	assert.Equal(t, 5, p.ny)
	assert.Equal(t, 32, p.fullW())
}

func TestMulAdd_IsComplexProduct(t *testing.T) {
	a := []complex128{complex(1, 2), complex(-3, 0.5)}
	b := []complex128{complex(0.5, -1), complex(2, 4)}
	dst := []complex128{complex(1, 1), 0}
	mulAdd(dst, a, b)
	assert.InDelta(t, real(complex(1, 1)+a[0]*b[0]), real(dst[0]), 1e-12)
	assert.InDelta(t, imag(complex(1, 1)+a[0]*b[0]), imag(dst[0]), 1e-12)
	assert.InDelta(t, real(a[1]*b[1]), real(dst[1]), 1e-12)
	assert.InDelta(t, imag(a[1]*b[1]), imag(dst[1]), 1e-12)
}

func BenchmarkConv2D_Forward(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	for _, algo := range []ConvAlgorithm{ConvDirect, ConvFFT} {
		b.Run(algo.String(), func(b *testing.B) {
			c := NewConv2D(20, 5, 5, WithAlgorithm(algo))
			if err := c.SetInputShape([]int{28, 28, 1}); err != nil {
				b.Fatal(err)
			}
			c.InitParams(weightinit.NewHe(1))
			x := randomTensor(rng, 28, 28, 1, 16)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.Forward(x, true); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
