package layer

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// fftPlan tiles an aW x aH plane for linear convolution with a bW x bH
// kernel. Tiles are the kernel size rounded up to a power of two and the
// transform is twice the tile size, so tile and kernel never wrap around.
type fftPlan struct {
	aW, aH int
	bW, bH int
	tW, tH int
	fW, fH int
	nx, ny int
}

func newFFTPlan(aW, aH, bW, bH int) fftPlan {
	tW, tH := nextPow2(bW), nextPow2(bH)
	return fftPlan{
		aW: aW, aH: aH,
		bW: bW, bH: bH,
		tW: tW, tH: tH,
		fW: 2 * tW, fH: 2 * tH,
		nx: (aW + tW - 1) / tW,
		ny: (aH + tH - 1) / tH,
	}
}

func (p fftPlan) size() int  { return p.fW * p.fH }
func (p fftPlan) tiles() int { return p.nx * p.ny }

// fullW and fullH are the extents of the full linear convolution.
func (p fftPlan) fullW() int { return p.aW + p.bW - 1 }
func (p fftPlan) fullH() int { return p.aH + p.bH - 1 }

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// fftWorkspace owns every buffer the FFT convolution needs. Buffers are sized
// on first use and only grow afterwards.
type fftWorkspace struct {
	rows, cols *fourier.CmplxFFT
	col        []complex128
	acc        []complex128

	kernels []complex128 // kernel spectra, one block of plan size per kernel
	tiles   []complex128 // tile spectra, one block per (plane, tile)
	plane   []float64    // dilated gradient scratch
	full    []float64    // overlap-add result
}

func (ws *fftWorkspace) prepare(p fftPlan) {
	if ws.rows == nil || ws.rows.Len() != p.fW {
		ws.rows = fourier.NewCmplxFFT(p.fW)
	}
	if ws.cols == nil || ws.cols.Len() != p.fH {
		ws.cols = fourier.NewCmplxFFT(p.fH)
	}
	ws.col = growComplex(ws.col, p.fH)
	ws.acc = growComplex(ws.acc, p.size())
}

func growComplex(s []complex128, n int) []complex128 {
	if cap(s) < n {
		return make([]complex128, n)
	}
	return s[:n]
}

func growFloat(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}

// fft2 transforms buf (fW wide, fH high) in place. Forward transforms skip the
// rows at or beyond usedRows, which hold zeros. The inverse is unnormalized.
func (ws *fftWorkspace) fft2(p fftPlan, buf []complex128, usedRows int, inverse bool) {
	if inverse {
		usedRows = p.fH
	}
	for y := 0; y < usedRows; y++ {
		row := buf[y*p.fW : (y+1)*p.fW]
		if inverse {
			ws.rows.Sequence(row, row)
		} else {
			ws.rows.Coefficients(row, row)
		}
	}
	for x := 0; x < p.fW; x++ {
		for y := 0; y < p.fH; y++ {
			ws.col[y] = buf[x+p.fW*y]
		}
		if inverse {
			ws.cols.Sequence(ws.col, ws.col)
		} else {
			ws.cols.Coefficients(ws.col, ws.col)
		}
		for y := 0; y < p.fH; y++ {
			buf[x+p.fW*y] = ws.col[y]
		}
	}
}

// tileSpectra transforms every tile of the aW x aH plane img into dst, one
// block of plan size per tile in row-major tile order.
func (ws *fftWorkspace) tileSpectra(p fftPlan, img []float64, dst []complex128) {
	size := p.size()
	for ty := 0; ty < p.ny; ty++ {
		for tx := 0; tx < p.nx; tx++ {
			buf := dst[size*(tx+p.nx*ty) : size*(tx+p.nx*ty+1)]
			clear(buf)
			x0, y0 := tx*p.tW, ty*p.tH
			w, h := min(p.tW, p.aW-x0), min(p.tH, p.aH-y0)
			for y := 0; y < h; y++ {
				src := img[x0+p.aW*(y0+y):]
				for x := 0; x < w; x++ {
					buf[x+p.fW*y] = complex(src[x], 0)
				}
			}
			ws.fft2(p, buf, h, false)
		}
	}
}

// kernelSpectrum transforms the bW x bH kernel ker into dst, flipping it in
// both axes when flip is set.
func (ws *fftWorkspace) kernelSpectrum(p fftPlan, ker []float64, flip bool, dst []complex128) {
	clear(dst)
	for y := 0; y < p.bH; y++ {
		for x := 0; x < p.bW; x++ {
			v := ker[x+p.bW*y]
			if flip {
				dst[(p.bW-1-x)+p.fW*(p.bH-1-y)] = complex(v, 0)
			} else {
				dst[x+p.fW*y] = complex(v, 0)
			}
		}
	}
	ws.fft2(p, dst, p.bH, false)
}

// overlapAdd inverse-transforms the product spectrum of tile (tx, ty) in
// place and adds its linear convolution into full.
func (ws *fftWorkspace) overlapAdd(p fftPlan, spec []complex128, tx, ty int, full []float64) {
	ws.fft2(p, spec, 0, true)
	scale := 1 / float64(p.size())
	fullW, fullH := p.fullW(), p.fullH()
	x0, y0 := tx*p.tW, ty*p.tH
	w := min(p.tW+p.bW-1, fullW-x0)
	h := min(p.tH+p.bH-1, fullH-y0)
	for y := 0; y < h; y++ {
		dst := full[x0+fullW*(y0+y):]
		src := spec[p.fW*y:]
		for x := 0; x < w; x++ {
			dst[x] += real(src[x]) * scale
		}
	}
}

// mulAdd accumulates the elementwise complex product a*b into dst with three
// real multiplications per element.
func mulAdd(dst, a, b []complex128) {
	for i := range dst {
		ar, ai := real(a[i]), imag(a[i])
		br, bi := real(b[i]), imag(b[i])
		k1 := ar * (br + bi)
		k2 := bi * (ar + ai)
		k3 := br * (ai - ar)
		dst[i] += complex(k1-k2, k1+k3)
	}
}

// dilate spreads the oW x oH gradient plane src over a
// ((oW-1)sW+1) x ((oH-1)sH+1) plane, zeros between samples.
func dilate(g convGeometry, src, dst []float64) {
	clear(dst)
	dW := (g.oW-1)*g.sW + 1
	for i := 0; i < g.oH; i++ {
		for j := 0; j < g.oW; j++ {
			dst[j*g.sW+dW*i*g.sH] = src[j+g.oW*i]
		}
	}
}

// convolveSum fills ws.full with the sum over inputs of the full
// convolution of each tile-transformed plane with its kernel spectrum.
// tileBlock(in) and kernelBlock(in) select the spectra of one input.
func (ws *fftWorkspace) convolveSum(p fftPlan, inputs int, tileBlock, kernelBlock func(in int) []complex128) {
	size, nt := p.size(), p.tiles()
	ws.full = growFloat(ws.full, p.fullW()*p.fullH())
	clear(ws.full)
	for t := 0; t < nt; t++ {
		clear(ws.acc)
		for in := 0; in < inputs; in++ {
			mulAdd(ws.acc, tileBlock(in)[size*t:size*(t+1)], kernelBlock(in))
		}
		ws.overlapAdd(p, ws.acc, t%p.nx, t/p.nx, ws.full)
	}
}

// forward computes the valid correlation of every input plane with its
// kernel as the full convolution with the flipped kernel, read back at the
// strided window positions.
func (ws *fftWorkspace) forward(g convGeometry, in, ker, bias, out []float64) {
	p := newFFTPlan(g.iW, g.iH, g.kW, g.kH)
	ws.prepare(p)
	size, nt := p.size(), p.tiles()
	inPlane, kPlane, oPlane := g.iW*g.iH, g.kW*g.kH, g.oW*g.oH

	ws.kernels = growComplex(ws.kernels, g.nC*g.nK*size)
	for f := 0; f < g.nK; f++ {
		for c := 0; c < g.nC; c++ {
			ki := c + g.nC*f
			ws.kernelSpectrum(p, ker[kPlane*ki:kPlane*(ki+1)], true, ws.kernels[size*ki:size*(ki+1)])
		}
	}

	ws.tiles = growComplex(ws.tiles, g.nC*nt*size)
	fullW := p.fullW()
	for e := 0; e < g.n; e++ {
		for c := 0; c < g.nC; c++ {
			pi := c + g.nC*e
			ws.tileSpectra(p, in[inPlane*pi:inPlane*(pi+1)], ws.tiles[size*nt*c:size*nt*(c+1)])
		}
		for f := 0; f < g.nK; f++ {
			ws.convolveSum(p, g.nC,
				func(c int) []complex128 { return ws.tiles[size*nt*c : size*nt*(c+1)] },
				func(c int) []complex128 { ki := c + g.nC*f; return ws.kernels[size*ki : size*(ki+1)] },
			)
			dst := out[oPlane*(f+g.nK*e) : oPlane*(f+g.nK*e+1)]
			for i := 0; i < g.oH; i++ {
				for j := 0; j < g.oW; j++ {
					dst[j+g.oW*i] = bias[f] + ws.full[(j*g.sW+g.kW-1)+fullW*(i*g.sH+g.kH-1)]
				}
			}
		}
	}
}

// backwardInput computes the full convolution of the dilated chain gradient
// with the unflipped kernels, summed over filters.
func (ws *fftWorkspace) backwardInput(g convGeometry, chain, ker, grad []float64) {
	dW, dH := (g.oW-1)*g.sW+1, (g.oH-1)*g.sH+1
	p := newFFTPlan(dW, dH, g.kW, g.kH)
	ws.prepare(p)
	size, nt := p.size(), p.tiles()
	inPlane, kPlane, oPlane := g.iW*g.iH, g.kW*g.kH, g.oW*g.oH

	ws.kernels = growComplex(ws.kernels, g.nC*g.nK*size)
	for f := 0; f < g.nK; f++ {
		for c := 0; c < g.nC; c++ {
			ki := c + g.nC*f
			ws.kernelSpectrum(p, ker[kPlane*ki:kPlane*(ki+1)], false, ws.kernels[size*ki:size*(ki+1)])
		}
	}

	ws.tiles = growComplex(ws.tiles, g.nK*nt*size)
	ws.plane = growFloat(ws.plane, dW*dH)
	fullW, fullH := p.fullW(), p.fullH()
	for e := 0; e < g.n; e++ {
		for f := 0; f < g.nK; f++ {
			oi := f + g.nK*e
			dilate(g, chain[oPlane*oi:oPlane*(oi+1)], ws.plane)
			ws.tileSpectra(p, ws.plane, ws.tiles[size*nt*f:size*nt*(f+1)])
		}
		for c := 0; c < g.nC; c++ {
			ws.convolveSum(p, g.nK,
				func(f int) []complex128 { return ws.tiles[size*nt*f : size*nt*(f+1)] },
				func(f int) []complex128 { ki := c + g.nC*f; return ws.kernels[size*ki : size*(ki+1)] },
			)
			dst := grad[inPlane*(c+g.nC*e) : inPlane*(c+g.nC*e+1)]
			clear(dst)
			for h := 0; h < min(g.iH, fullH); h++ {
				copy(dst[g.iW*h:g.iW*h+min(g.iW, fullW)], ws.full[fullW*h:fullW*h+min(g.iW, fullW)])
			}
		}
	}
}

// weightGrad computes dK[c,f] as the correlation of input plane c with the
// dilated gradient of filter f, summed over examples. The correlation is the
// full convolution with the flipped gradient, offset by the gradient size.
func (ws *fftWorkspace) weightGrad(g convGeometry, in, chain, wGrad []float64) {
	dW, dH := (g.oW-1)*g.sW+1, (g.oH-1)*g.sH+1
	p := newFFTPlan(g.iW, g.iH, dW, dH)
	ws.prepare(p)
	size, nt := p.size(), p.tiles()
	inPlane, kPlane, oPlane := g.iW*g.iH, g.kW*g.kH, g.oW*g.oH

	clear(wGrad)
	ws.tiles = growComplex(ws.tiles, g.nC*nt*size)
	ws.kernels = growComplex(ws.kernels, g.nK*size)
	ws.plane = growFloat(ws.plane, dW*dH)
	fullW := p.fullW()
	for e := 0; e < g.n; e++ {
		for c := 0; c < g.nC; c++ {
			pi := c + g.nC*e
			ws.tileSpectra(p, in[inPlane*pi:inPlane*(pi+1)], ws.tiles[size*nt*c:size*nt*(c+1)])
		}
		for f := 0; f < g.nK; f++ {
			oi := f + g.nK*e
			dilate(g, chain[oPlane*oi:oPlane*(oi+1)], ws.plane)
			ws.kernelSpectrum(p, ws.plane, true, ws.kernels[size*f:size*(f+1)])
		}
		for f := 0; f < g.nK; f++ {
			for c := 0; c < g.nC; c++ {
				ws.convolveSum(p, 1,
					func(int) []complex128 { return ws.tiles[size*nt*c : size*nt*(c+1)] },
					func(int) []complex128 { return ws.kernels[size*f : size*(f+1)] },
				)
				dst := wGrad[kPlane*(c+g.nC*f):]
				for k := 0; k < g.kH; k++ {
					for l := 0; l < g.kW; l++ {
						dst[l+g.kW*k] += ws.full[(l+dW-1)+fullW*(k+dH-1)]
					}
				}
			}
		}
	}
}
