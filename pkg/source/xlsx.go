package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the records of one worksheet in the workbook at path. An
// empty sheet selects the active sheet. The first row is the header; header,
// gap and identity rules match ReadCSV.
func ReadXLSX(path, sheet string, cols Columns) (Slice, error) {
	if err := cols.Validate(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("source: sheet %q not found in %s", sheet, path)
	}

	// Blank rows between records are returned as empty slices.
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("source: sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 || blank(rows[0]) {
		return nil, ErrNoHeader
	}

	lay, err := newLayout(rows[0], cols)
	if err != nil {
		return nil, err
	}
	for _, row := range rows[1:] {
		lay.add(row)
	}
	return lay.out, nil
}
