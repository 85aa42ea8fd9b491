package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// LoadCSV reads a labeled feature table from a CSV file. The first row is
// the header; the last column is the categorical label and every other
// column must parse as a float. Returns the dataset and the feature column
// names in order.
func LoadCSV(path string) (Dataset, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses CSV data from r, header row first, label in the last
// column.
func ReadCSV(r io.Reader) (Dataset, []string, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("need at least one feature column and a label column, got %d columns", len(header))
	}
	featureNames := header[:len(header)-1]

	var ds Dataset
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		if len(record) != len(header) {
			return nil, nil, fmt.Errorf("line %d: expected %d columns, got %d", line, len(header), len(record))
		}

		features := make([]float64, len(featureNames))
		for i := range featureNames {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: column %q: %w", line, header[i], err)
			}
			features[i] = v
		}

		ds = append(ds, Row{Features: features, Label: record[len(record)-1]})
	}

	if len(ds) == 0 {
		return nil, nil, fmt.Errorf("dataset contains no rows")
	}
	return ds, featureNames, nil
}
