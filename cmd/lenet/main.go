// Command lenet trains the two-stage convolutional digit classifier.
//
// Without -csv it trains on synthetic 28x28 digits. With -csv it reads an
// MNIST-style file: label in the first column, then 784 pixel values.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/FlavioCFOliveira/convnet/goneuron"
	"github.com/FlavioCFOliveira/convnet/internal/net"
)

func main() {
	var (
		csvFile = flag.String("csv", "", "MNIST-style CSV file (label first)")
		header  = flag.Bool("header", false, "skip the first CSV line")
		n       = flag.Int("n", 2000, "number of synthetic examples")
		epochs  = flag.Int("epochs", 5, "training epochs")
		batch   = flag.Int("batch", 64, "mini-batch size")
		lr      = flag.Float64("lr", 1e-3, "Adam step size")
		l1      = flag.Float64("l1", 0, "L1 penalty strength")
		fft     = flag.Bool("fft", false, "use the FFT convolution backend")
		weights = flag.String("weights", "weights.dat", "weight file written after every epoch")
		load    = flag.String("load", "", "start from this weight file")
		seed    = flag.Uint64("seed", 1, "random seed")
	)
	flag.Parse()

	fmt.Println("=== LeNet Digit Classification ===")

	data, err := loadData(*csvFile, *header, *n, *seed)
	if err != nil {
		log.Fatal(err)
	}
	train, test, err := data.Split(0.8)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Train: %d examples, test: %d examples\n\n", train.NumExamples(), test.NumExamples())

	algo := goneuron.ConvDirect
	if *fft {
		algo = goneuron.ConvFFT
	}
	var reg goneuron.Regularizer
	if *l1 > 0 {
		reg = goneuron.L1(*l1)
	}
	model, err := goneuron.LeNet(algo, reg)
	if err != nil {
		log.Fatal(err)
	}
	if *load != "" {
		err = model.LoadWeights(*load)
	} else {
		err = model.InitParams(goneuron.He(*seed))
	}
	if err != nil {
		log.Fatal(err)
	}
	model.Summary(os.Stdout)
	fmt.Println()

	cfg := goneuron.DefaultTrainConfig()
	cfg.Epochs = *epochs
	cfg.BatchSize = *batch
	cfg.Seed = *seed
	cfg.SaveWeights = *weights != ""
	cfg.WeightsFile = *weights
	cfg.Callbacks = []goneuron.Callback{goneuron.Logger(1)}

	start := time.Now()
	history, err := goneuron.Train(model, goneuron.Adam(*lr), train.X, train.Y, nil, cfg)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\n%s\n", trainingReport(history, time.Since(start)))

	for _, set := range []struct {
		name string
		d    *net.Dataset
	}{{"train", train}, {"test", test}} {
		wrong, err := model.Misclassified(set.d.X, set.d.Y)
		if err != nil {
			log.Fatal(err)
		}
		total := set.d.NumExamples()
		fmt.Printf("%-5s misclassified: %d/%d (accuracy %.1f%%)\n",
			set.name, wrong, total, 100*float64(total-wrong)/float64(total))
	}
}

func trainingReport(h *goneuron.History, elapsed time.Duration) string {
	s := fmt.Sprintf("Trained %d epochs in %v", len(h.Loss), elapsed.Round(time.Millisecond))
	if len(h.Loss) > 0 {
		s += fmt.Sprintf(", final loss %.4f", h.Loss[len(h.Loss)-1])
	}
	return s
}

func loadData(csvFile string, header bool, n int, seed uint64) (*net.Dataset, error) {
	if csvFile == "" {
		return syntheticDigits(n, seed), nil
	}
	d, err := goneuron.LoadCSV(csvFile, 0, header)
	if err != nil {
		return nil, err
	}
	if d.X.Dim(0) != imageSize*imageSize {
		return nil, fmt.Errorf("expected %d pixels per row, got %d", imageSize*imageSize, d.X.Dim(0))
	}
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	if err := d.Reshape(imageSize, imageSize); err != nil {
		return nil, err
	}
	return d, nil
}
