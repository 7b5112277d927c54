package net

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `label,a,b,c,d
1,0,10,5,5
0,2,20,5,6
2,4,30,5,7
1,6,40,5,8
`

func TestReadCSV(t *testing.T) {
	d, err := ReadCSV(strings.NewReader(sampleCSV), 0, true)
	require.NoError(t, err)
	assert.Equal(t, 4, d.NumExamples())
	assert.Equal(t, []int{4, 4}, d.X.Dims())
	assert.Equal(t, []float64{1, 0, 2, 1}, d.Y.Data())
	// Example 1 is the second column.
	assert.Equal(t, []float64{2, 20, 5, 6}, d.X.Data()[4:8])
}

func TestLoadCSV_LabelInMiddle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("1.5,0,2.5\n3.5,1,4.5\n"), 0o644))

	d, err := LoadCSV(path, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, d.Y.Data())
	assert.Equal(t, []float64{1.5, 2.5, 3.5, 4.5}, d.X.Data())
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n"), 0, true)
	require.Error(t, err)
	_, err = ReadCSV(strings.NewReader("1,x\n"), 0, false)
	require.Error(t, err)
	_, err = ReadCSV(strings.NewReader("1,2\n"), 2, false)
	require.Error(t, err)
}

func TestDataset_Normalize(t *testing.T) {
	d, err := ReadCSV(strings.NewReader(sampleCSV), 0, true)
	require.NoError(t, err)
	require.NoError(t, d.Normalize())
	// Feature a spans 0..6, c is constant.
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0}, d.X.Data()[0:4], 1e-12)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 0, 1.0 / 3}, d.X.Data()[4:8], 1e-12)
	assert.InDeltaSlice(t, []float64{1, 1, 0, 1}, d.X.Data()[12:16], 1e-12)
}

func TestDataset_SplitAndReshape(t *testing.T) {
	d, err := ReadCSV(strings.NewReader(sampleCSV), 0, true)
	require.NoError(t, err)

	train, test, err := d.Split(0.75)
	require.NoError(t, err)
	assert.Equal(t, 3, train.NumExamples())
	assert.Equal(t, 1, test.NumExamples())
	assert.Equal(t, []float64{1}, test.Y.Data())
	assert.Equal(t, []float64{6, 40, 5, 8}, test.X.Data())

	require.NoError(t, d.Reshape(2, 2))
	assert.Equal(t, []int{2, 2, 4}, d.X.Dims())
	require.Error(t, d.Reshape(3, 2))
}
