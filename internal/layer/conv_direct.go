package layer

import "gonum.org/v1/gonum/floats"

// Flat layouts, first index fastest:
//   input  (w, h, c, e):  w + iW*(h + iH*(c + nC*e))
//   kernel (l, k, c, f):  l + kW*(k + kH*(c + nC*f))
//   output (j, i, f, e):  j + oW*(i + oH*(f + nK*e))

// directForward computes out[f,i,j] = bias[f] + sum over c, k, l of
// in[c, i*sH+k, j*sW+l] * K[l, k, c, f].
func directForward(g convGeometry, in, ker, bias, out []float64) {
	inPlane, kPlane, oPlane := g.iW*g.iH, g.kW*g.kH, g.oW*g.oH
	for e := 0; e < g.n; e++ {
		for f := 0; f < g.nK; f++ {
			dst := out[oPlane*(f+g.nK*e) : oPlane*(f+g.nK*e+1)]
			for i := range dst {
				dst[i] = bias[f]
			}
			for c := 0; c < g.nC; c++ {
				src := in[inPlane*(c+g.nC*e):]
				kc := ker[kPlane*(c+g.nC*f):]
				for i := 0; i < g.oH; i++ {
					for k := 0; k < g.kH; k++ {
						row := src[g.iW*(i*g.sH+k):]
						kRow := kc[g.kW*k : g.kW*(k+1)]
						for j := 0; j < g.oW; j++ {
							dst[j+g.oW*i] += floats.Dot(kRow, row[j*g.sW:j*g.sW+g.kW])
						}
					}
				}
			}
		}
	}
}

// directBackwardInput scatters every output gradient back over the input
// window it was computed from, which is the full convolution of the
// stride-dilated gradient with the kernel.
func directBackwardInput(g convGeometry, chain, ker, grad []float64) {
	clear(grad)
	inPlane, kPlane, oPlane := g.iW*g.iH, g.kW*g.kH, g.oW*g.oH
	for e := 0; e < g.n; e++ {
		for f := 0; f < g.nK; f++ {
			gf := chain[oPlane*(f+g.nK*e):]
			for c := 0; c < g.nC; c++ {
				dst := grad[inPlane*(c+g.nC*e):]
				kc := ker[kPlane*(c+g.nC*f):]
				for i := 0; i < g.oH; i++ {
					for j := 0; j < g.oW; j++ {
						v := gf[j+g.oW*i]
						if v == 0 {
							continue
						}
						for k := 0; k < g.kH; k++ {
							row := dst[g.iW*(i*g.sH+k)+j*g.sW:]
							floats.AddScaled(row[:g.kW], v, kc[g.kW*k:g.kW*(k+1)])
						}
					}
				}
			}
		}
	}
}

// directWeightGrad computes dK[l,k,c,f] = sum over e, i, j of
// in[c, i*sH+k, j*sW+l] * g[f, i, j].
func directWeightGrad(g convGeometry, in, chain, wGrad []float64) {
	clear(wGrad)
	inPlane, kPlane, oPlane := g.iW*g.iH, g.kW*g.kH, g.oW*g.oH
	for e := 0; e < g.n; e++ {
		for f := 0; f < g.nK; f++ {
			gf := chain[oPlane*(f+g.nK*e):]
			for c := 0; c < g.nC; c++ {
				src := in[inPlane*(c+g.nC*e):]
				dst := wGrad[kPlane*(c+g.nC*f):]
				for i := 0; i < g.oH; i++ {
					for j := 0; j < g.oW; j++ {
						v := gf[j+g.oW*i]
						if v == 0 {
							continue
						}
						for k := 0; k < g.kH; k++ {
							row := src[g.iW*(i*g.sH+k)+j*g.sW:]
							floats.AddScaled(dst[g.kW*k:g.kW*(k+1)], v, row[:g.kW])
						}
					}
				}
			}
		}
	}
}
