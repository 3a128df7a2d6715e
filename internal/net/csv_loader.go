package net

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Dataset represents a collection of samples and labels.
type Dataset struct {
	Samples [][]float64
	Labels  [][]float64
}

// LoadCSV loads data from a comma separated file.
// labelCols specifies the indices of columns to be used as labels.
// All other columns are used as features, in file order.
// hasHeader skips the first line if true.
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read csv %s", filename)
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}

	if len(records) <= startRow {
		return nil, errors.Errorf("csv file %s has no data rows", filename)
	}

	numCols := len(records[startRow])
	isLabelCol := make(map[int]bool)
	for _, col := range labelCols {
		if col < 0 || col >= numCols {
			return nil, errors.Errorf("label column %d out of range for %d columns", col, numCols)
		}
		isLabelCol[col] = true
	}

	numSamples := len(records) - startRow
	samples := make([][]float64, numSamples)
	labels := make([][]float64, numSamples)

	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, errors.Errorf("inconsistent number of columns at row %d", i)
		}

		sampleRow := make([]float64, 0, numCols-len(labelCols))
		labelValues := make(map[int]float64, len(labelCols))

		for j, valStr := range record {
			val, err := strconv.ParseFloat(valStr, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to parse value at row %d, col %d", i, j)
			}

			if isLabelCol[j] {
				labelValues[j] = val
			} else {
				sampleRow = append(sampleRow, val)
			}
		}

		// labels keep the order given in labelCols
		labelRow := make([]float64, 0, len(labelCols))
		for _, col := range labelCols {
			labelRow = append(labelRow, labelValues[col])
		}

		samples[i-startRow] = sampleRow
		labels[i-startRow] = labelRow
	}

	return &Dataset{
		Samples: samples,
		Labels:  labels,
	}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// Batch returns up to size samples starting at start. The slices share
// storage with the dataset.
func (d *Dataset) Batch(start, size int) ([][]float64, [][]float64) {
	end := start + size
	if end > len(d.Samples) {
		end = len(d.Samples)
	}
	return d.Samples[start:end], d.Labels[start:end]
}
