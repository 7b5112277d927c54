package net

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/FlavioCFOliveira/convnet/internal/tensor"
)

// Dataset holds examples on the last axis of X and one class label per
// example in Y.
type Dataset struct {
	X *tensor.Tensor // (features, examples)
	Y *tensor.Tensor // (examples)
}

// NumExamples returns the number of examples.
func (d *Dataset) NumExamples() int {
	return d.Y.Size()
}

// LoadCSV loads a dataset with one example per row. Column labelCol holds
// the class index and every other column is a feature, in order.
// hasHeader skips the first line if true.
func LoadCSV(filename string, labelCol int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, labelCol, hasHeader)
}

// ReadCSV is LoadCSV over a reader.
func ReadCSV(r io.Reader, labelCol int, hasHeader bool) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, fmt.Errorf("csv file has no data rows")
	}

	numCols := len(records[startRow])
	if labelCol < 0 || labelCol >= numCols {
		return nil, fmt.Errorf("label column %d out of range for %d columns", labelCol, numCols)
	}
	numFeatures := numCols - 1
	numSamples := len(records) - startRow
	x := tensor.New(numFeatures, numSamples)
	y := tensor.New(numSamples)
	xd := x.Data()

	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i)
		}
		e := i - startRow
		f := 0
		for j, valStr := range record {
			val, err := strconv.ParseFloat(valStr, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			if j == labelCol {
				y.Data()[e] = val
				continue
			}
			xd[f+numFeatures*e] = val
			f++
		}
	}
	return &Dataset{X: x, Y: y}, nil
}

// Normalize performs min-max normalization of every feature to [0, 1].
// Constant features become 0.
func (d *Dataset) Normalize() error {
	mins, err := d.X.Aggregate(d.X.Rank()-1, tensor.AggMin)
	if err != nil {
		return err
	}
	maxes, err := d.X.Aggregate(d.X.Rank()-1, tensor.AggMax)
	if err != nil {
		return err
	}
	span := maxes.Data()
	for i, lo := range mins.Data() {
		if span[i] -= lo; span[i] == 0 {
			span[i] = 1
		}
	}
	axis := d.X.Rank() - 1
	if _, err := d.X.BroadcastOp(axis, mins, tensor.OpSub, d.X); err != nil {
		return err
	}
	_, err = d.X.BroadcastOp(axis, maxes, tensor.OpDiv, d.X)
	return err
}

// Reshape gives every example the shape dims, e.g. (28, 28) for images
// stored as 784 features. The data is shared.
func (d *Dataset) Reshape(dims ...int) error {
	x, err := d.X.Reshape(append(append([]int(nil), dims...), d.NumExamples())...)
	if err != nil {
		return err
	}
	d.X = x
	return nil
}

// Split splits the dataset at the given ratio (0.0 to 1.0) of its
// examples and returns (train, test) copies.
func (d *Dataset) Split(ratio float64) (*Dataset, *Dataset, error) {
	n := d.NumExamples()
	cut := int(float64(n) * ratio)
	cut = min(max(cut, 0), n)
	head, tail := make([]int, cut), make([]int, n-cut)
	for i := range head {
		head[i] = i
	}
	for i := range tail {
		tail[i] = cut + i
	}
	train, err := d.subset(head)
	if err != nil {
		return nil, nil, err
	}
	test, err := d.subset(tail)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

func (d *Dataset) subset(idx []int) (*Dataset, error) {
	if len(idx) == 0 {
		return &Dataset{}, nil
	}
	x, err := d.X.GetByDim(d.X.Rank()-1, idx)
	if err != nil {
		return nil, err
	}
	y, err := d.Y.GetByDim(0, idx)
	if err != nil {
		return nil, err
	}
	return &Dataset{X: x, Y: y}, nil
}
