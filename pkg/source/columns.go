package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/security"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("source: missing header row")

// Columns maps record attributes to header names. An empty name falls back
// to the column position used by the record spreadsheet: identity in the
// second column, chain keys in the third and fourth.
type Columns struct {
	Identity  string `yaml:"identity"`
	ChainKeyA string `yaml:"chain_key_a"`
	ChainKeyB string `yaml:"chain_key_b"`

	// Skip drops this many data rows before the first record.
	Skip int `yaml:"skip"`

	// Sheet names the worksheet read from a workbook. Empty selects the
	// active sheet. CSV input ignores it.
	Sheet string `yaml:"sheet"`
}

const (
	identityPos  = 1
	chainKeyAPos = 2
	chainKeyBPos = 3
)

// Validate checks the configured column names.
func (c Columns) Validate() error {
	for _, name := range []string{c.Identity, c.ChainKeyA, c.ChainKeyB} {
		if name == "" {
			continue
		}
		if err := security.ValidateColumnName(name); err != nil {
			return err
		}
	}
	if c.Skip < 0 {
		return fmt.Errorf("source: skip must not be negative, got %d", c.Skip)
	}
	return nil
}

// Open reads path as a workbook when its extension is .xlsx or .xlsm and as
// CSV otherwise.
func Open(path string, cols Columns) (Slice, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, cols.Sheet, cols)
	default:
		return ReadCSVFile(path, cols)
	}
}

// layout turns header-aligned rows into records.
type layout struct {
	header []string
	cols   Columns
	idPos  int
	aPos   int
	bPos   int
	seen   int
	out    Slice
}

func newLayout(header []string, cols Columns) (*layout, error) {
	l := &layout{header: make([]string, len(header)), cols: cols}
	for i, h := range header {
		l.header[i] = strings.TrimSpace(h)
	}

	var err error
	if l.idPos, err = position(l.header, cols.Identity, identityPos); err != nil {
		return nil, err
	}
	if l.aPos, err = position(l.header, cols.ChainKeyA, chainKeyAPos); err != nil {
		return nil, err
	}
	if l.bPos, err = position(l.header, cols.ChainKeyB, chainKeyBPos); err != nil {
		return nil, err
	}
	return l, nil
}

// add appends one data row. Skipped rows are dropped, blank rows become gaps.
func (l *layout) add(row []string) {
	l.seen++
	if l.seen <= l.cols.Skip {
		return
	}
	index := len(l.out)
	if blank(row) {
		l.out = append(l.out, nil)
		return
	}

	rec := &core.Record{
		Index:     index,
		ChainKeyA: cell(row, l.aPos),
		ChainKeyB: cell(row, l.bPos),
		Identity:  cell(row, l.idPos),
		Fields:    make(map[string]string, len(l.header)),
	}
	if rec.Identity == "" {
		rec.Identity = core.UnknownIdentity
	}
	for i, name := range l.header {
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		rec.Fields[name] = cell(row, i)
	}
	l.out = append(l.out, rec)
}

func position(header []string, name string, fallback int) (int, error) {
	if name == "" {
		return fallback, nil
	}
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("source: column %q not found in header", name)
}

// cell returns the trimmed value at i, or "" for short rows.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
