// Package dataset loads row-aligned training matrices from CSV files. The
// predict column is selected by name; every other column becomes an input
// feature. Regression keeps the predict column as a single ideal value;
// classification expands it into a one-of-n ideal vector.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Dataset holds the two training matrices consumed by the trainer. Rows are
// aligned: Inputs[i] and Ideals[i] describe the same observation. The
// matrices are supplied read-only for the duration of a run.
type Dataset struct {
	Inputs [][]float64
	Ideals [][]float64

	// InputNames are the feature column names in input order.
	InputNames []string
	// Classes are the distinct predict labels in first-seen order, empty for
	// regression.
	Classes []string
}

func (d *Dataset) InputCount() int {
	if len(d.Inputs) == 0 {
		return 0
	}
	return len(d.Inputs[0])
}

func (d *Dataset) OutputCount() int {
	if len(d.Ideals) == 0 {
		return 0
	}
	return len(d.Ideals[0])
}

// Options controls how a CSV file is interpreted.
type Options struct {
	// PredictField names the target column. Required.
	PredictField string
	// Classify expands the predict column into one-of-n ideal vectors, one
	// element per distinct label in first-seen order.
	Classify bool
}

// LoadCSV reads a headered CSV file into a Dataset. The predict field must
// resolve to a header column; a missing field is a configuration error.
func LoadCSV(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, opts)
}

// Read parses CSV content into a Dataset.
func Read(r io.Reader, opts Options) (*Dataset, error) {
	if strings.TrimSpace(opts.PredictField) == "" {
		return nil, fmt.Errorf("predict field is required")
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	predictCol := -1
	inputNames := make([]string, 0, len(header)-1)
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(opts.PredictField)) {
			predictCol = i
			continue
		}
		inputNames = append(inputNames, strings.TrimSpace(name))
	}
	if predictCol < 0 {
		return nil, fmt.Errorf("predict field not found: %s", opts.PredictField)
	}
	if len(inputNames) == 0 {
		return nil, fmt.Errorf("dataset has no input columns besides predict field %s", opts.PredictField)
	}

	ds := &Dataset{InputNames: inputNames}
	classIndex := map[string]int{}
	var labels []string
	var rowLabels []string

	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row %d: %w", row+1, err)
		}
		row++
		if len(record) != len(header) {
			return nil, fmt.Errorf("dataset row %d has %d fields, header has %d", row, len(record), len(header))
		}

		input := make([]float64, 0, len(inputNames))
		for i, field := range record {
			if i == predictCol {
				continue
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("parse dataset row %d column %s: %w", row, header[i], err)
			}
			input = append(input, value)
		}
		ds.Inputs = append(ds.Inputs, input)

		target := strings.TrimSpace(record[predictCol])
		if opts.Classify {
			if _, ok := classIndex[target]; !ok {
				classIndex[target] = len(labels)
				labels = append(labels, target)
			}
			rowLabels = append(rowLabels, target)
			continue
		}
		value, err := strconv.ParseFloat(target, 64)
		if err != nil {
			return nil, fmt.Errorf("parse dataset row %d predict field: %w", row, err)
		}
		ds.Ideals = append(ds.Ideals, []float64{value})
	}

	if len(ds.Inputs) == 0 {
		return nil, fmt.Errorf("dataset has no data rows")
	}

	if opts.Classify {
		if len(labels) < 2 {
			return nil, fmt.Errorf("classification requires at least 2 classes, got %d", len(labels))
		}
		ds.Classes = labels
		// One-of-n width is only known once every label has been seen, so
		// the ideal rows are built after the read pass.
		ds.Ideals = make([][]float64, len(rowLabels))
		for i, label := range rowLabels {
			ideal := make([]float64, len(labels))
			ideal[classIndex[label]] = 1
			ds.Ideals[i] = ideal
		}
	}
	return ds, nil
}
