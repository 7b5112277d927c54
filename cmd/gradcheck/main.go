// Command gradcheck compares analytic and numerical gradients of a small
// convolutional network on random data, once per convolution backend.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/convnet/goneuron"
)

func main() {
	var (
		samples   = flag.Int("samples", 50, "parameters to probe")
		step      = flag.Float64("step", 1e-7, "finite difference step")
		examples  = flag.Int("n", 4, "examples in the batch")
		l1        = flag.Float64("l1", 1e-3, "L1 penalty strength")
		seed      = flag.Uint64("seed", 1, "random seed")
		tolerance = flag.Float64("tol", 1e-5, "largest accepted mean relative error")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	x := goneuron.NewTensor(10, 10, 2, *examples)
	for i := range x.Data() {
		x.Data()[i] = rng.Float64()*2 - 1
	}
	y := goneuron.NewTensor(*examples)
	for i := range y.Data() {
		y.Data()[i] = float64(rng.Intn(3))
	}

	cfg := goneuron.DefaultGradCheck()
	cfg.Samples = *samples
	cfg.Step = *step
	cfg.Seed = *seed

	failed := false
	for _, algo := range []goneuron.ConvAlgorithm{goneuron.ConvDirect, goneuron.ConvFFT} {
		m := goneuron.NewModel(goneuron.CrossEntropy, goneuron.L1(*l1),
			goneuron.Conv2D(3, 3, 3, goneuron.WithAlgorithm(algo)),
			goneuron.MeanPool2D(2, 2),
			goneuron.Activation(goneuron.Tanh),
			goneuron.InnerProduct(3),
			goneuron.Softmax(),
		)
		if err := m.SetInputShape([]int{10, 10, 2}); err != nil {
			log.Fatal(err)
		}
		if err := m.InitParams(goneuron.Xavier(*seed)); err != nil {
			log.Fatal(err)
		}

		relErr, err := goneuron.CheckGradient(m, x, y, nil, cfg)
		if err != nil {
			log.Fatal(err)
		}
		status := "ok"
		if relErr > *tolerance {
			status = "FAILED"
			failed = true
		}
		fmt.Printf("%-7s mean relative error %.3e  %s\n", algo, relErr, status)
	}
	if failed {
		os.Exit(1)
	}
}
