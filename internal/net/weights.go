package net

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// The weight file is the flat parameter vector as big-endian IEEE-754
// doubles with no header. Its length is only known from the model it is
// loaded into.

// EncodeWeights writes the flat parameter vector to w.
func (m *Model) EncodeWeights(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := writeFloats(bw, m.Params()); err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	return bw.Flush()
}

// DecodeWeights reads doubles from r until EOF and installs them as the
// parameter vector. The count must equal NumParams.
func (m *Model) DecodeWeights(r io.Reader) error {
	params, err := readFloats(bufio.NewReader(r))
	if err != nil {
		return fmt.Errorf("failed to decode weights: %w", err)
	}
	return m.SetParams(params)
}

// SaveWeights writes the parameter vector to a file.
func (m *Model) SaveWeights(filename string) error {
	return saveFloats(filename, m.Params())
}

// LoadWeights reads a file written by SaveWeights into a model configured
// with the same architecture.
func (m *Model) LoadWeights(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return m.DecodeWeights(file)
}

func saveFloats(filename string, params []float64) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	bw := bufio.NewWriter(file)
	if err := writeFloats(bw, params); err != nil {
		file.Close()
		return fmt.Errorf("failed to write weights: %w", err)
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write weights: %w", err)
	}
	return file.Close()
}

func writeFloats(w io.Writer, params []float64) error {
	var buf [8]byte
	for _, v := range params {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// readFloats reads whole doubles until EOF. A trailing partial value is an
// error.
func readFloats(r io.Reader) ([]float64, error) {
	var (
		params []float64
		buf    [8]byte
	)
	for {
		_, err := io.ReadFull(r, buf[:])
		switch {
		case errors.Is(err, io.EOF):
			return params, nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, fmt.Errorf("truncated value after %d doubles: %w", len(params), err)
		case err != nil:
			return nil, err
		}
		params = append(params, math.Float64frombits(binary.BigEndian.Uint64(buf[:])))
	}
}
