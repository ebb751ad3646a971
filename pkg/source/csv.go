package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCSV reads every data row of r into a Slice. Blank rows become gaps and
// a missing identity reads as core.UnknownIdentity.
func ReadCSV(r io.Reader, cols Columns) (Slice, error) {
	if err := cols.Validate(); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("source: read header: %w", err)
	}
	// Excel exports prefix the first cell with a byte order mark.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(strings.TrimSpace(header[0]), "\ufeff")
	}

	lay, err := newLayout(header, cols)
	if err != nil {
		return nil, err
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("source: line %d: %w", line, err)
		}
		lay.add(row)
	}
	return lay.out, nil
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string, cols Columns) (Slice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, cols)
}
