package main

import (
	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/convnet/internal/net"
	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

const (
	imageSize  = 28
	glyphW     = 3
	glyphH     = 5
	glyphScale = 4
)

// Digit glyphs, row by row, glyphW pixels per row.
var digitGlyphs = [10][glyphW * glyphH]float64{
	{1, 1, 1, 1, 0, 1, 1, 0, 1, 1, 0, 1, 1, 1, 1},
	{0, 1, 0, 1, 1, 0, 0, 1, 0, 0, 1, 0, 1, 1, 1},
	{1, 1, 1, 0, 0, 1, 1, 1, 1, 1, 0, 0, 1, 1, 1},
	{1, 1, 1, 0, 0, 1, 0, 1, 1, 0, 0, 1, 1, 1, 1},
	{1, 0, 1, 1, 0, 1, 1, 1, 1, 0, 0, 1, 0, 0, 1},
	{1, 1, 1, 1, 0, 0, 1, 1, 1, 0, 0, 1, 1, 1, 1},
	{1, 1, 1, 1, 0, 0, 1, 1, 1, 1, 0, 1, 1, 1, 1},
	{1, 1, 1, 0, 0, 1, 0, 1, 0, 0, 1, 0, 0, 1, 0},
	{1, 1, 1, 1, 0, 1, 1, 1, 1, 1, 0, 1, 1, 1, 1},
	{1, 1, 1, 1, 0, 1, 1, 1, 1, 0, 0, 1, 1, 1, 1},
}

// syntheticDigits renders n 28x28 digit images cycling through the ten
// classes. Each glyph is scaled up, dropped at a random offset and covered
// with uniform noise.
func syntheticDigits(n int, seed uint64) *net.Dataset {
	rng := rand.New(rand.NewSource(seed))
	x := tensor.New(imageSize, imageSize, n)
	y := tensor.New(n)
	data := x.Data()
	plane := imageSize * imageSize

	maxX := imageSize - glyphW*glyphScale
	maxY := imageSize - glyphH*glyphScale
	for e := 0; e < n; e++ {
		digit := e % 10
		y.Data()[e] = float64(digit)
		img := data[e*plane : (e+1)*plane]
		for i := range img {
			img[i] = rng.Float64() * 0.1
		}

		ox, oy := rng.Intn(maxX+1), rng.Intn(maxY+1)
		for gy := 0; gy < glyphH; gy++ {
			for gx := 0; gx < glyphW; gx++ {
				if digitGlyphs[digit][gy*glyphW+gx] == 0 {
					continue
				}
				for sy := 0; sy < glyphScale; sy++ {
					for sx := 0; sx < glyphScale; sx++ {
						px, py := ox+gx*glyphScale+sx, oy+gy*glyphScale+sy
						img[px+imageSize*py] = 0.9 + rng.Float64()*0.1
					}
				}
			}
		}
	}
	return &net.Dataset{X: x, Y: y}
}
