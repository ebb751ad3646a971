package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jdziat/entrybatch/pkg/core"
)

// writeWorkbook saves rows to sheet in a new workbook under t.TempDir.
func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		idx, err := f.NewSheet(sheet)
		require.NoError(t, err)
		f.SetActiveSheet(idx)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "rencana.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var workbookRows = [][]any{
	{"Tanggal", "Docket", "Kode", "Proyek", "Qty"},
	{"2024-01-02", "D-1", "K1", "P1", 4},
	{"2024-01-02", "D-2", "K1", "P1", 2},
	{"", "", "", "", ""},
	{"2024-01-03", "", "K2", "P1", 9},
}

func TestReadXLSX_PositionalDefaults(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", workbookRows)

	s, err := ReadXLSX(path, "", Columns{})
	require.NoError(t, err)
	require.Equal(t, 4, s.Count())

	rec, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, "D-1", rec.Identity)
	assert.Equal(t, "K1", rec.ChainKeyA)
	assert.Equal(t, "P1", rec.ChainKeyB)
	assert.Equal(t, "4", rec.Field("Qty"))
	assert.True(t, s.ChainsWith(0))

	_, ok = s.Get(2)
	assert.False(t, ok, "blank row is a gap")

	rec, ok = s.Get(3)
	require.True(t, ok)
	assert.Equal(t, core.UnknownIdentity, rec.Identity)
	assert.Equal(t, 3, rec.Index)
}

func TestReadXLSX_NamedColumnsAndSkip(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", workbookRows)

	s, err := ReadXLSX(path, "Sheet1", Columns{Identity: "qty", ChainKeyA: "Proyek", Skip: 1})
	require.NoError(t, err)
	require.Equal(t, 3, s.Count())

	rec, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, "2", rec.Identity)
	assert.Equal(t, "P1", rec.ChainKeyA)
	assert.Equal(t, 0, rec.Index)
}

func TestReadXLSX_ActiveSheet(t *testing.T) {
	path := writeWorkbook(t, "Rencana", workbookRows)

	s, err := ReadXLSX(path, "", Columns{})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Count())

	s, err = ReadXLSX(path, "Rencana", Columns{})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Count())
}

func TestReadXLSX_Errors(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", workbookRows)

	_, err := ReadXLSX(path, "Missing", Columns{})
	assert.ErrorContains(t, err, "Missing")

	_, err = ReadXLSX(path, "", Columns{ChainKeyB: "Nope"})
	assert.ErrorContains(t, err, "Nope")

	_, err = ReadXLSX(path, "", Columns{Skip: -1})
	assert.Error(t, err)

	_, err = ReadXLSX(filepath.Join(t.TempDir(), "absent.xlsx"), "", Columns{})
	assert.Error(t, err)

	empty := writeWorkbook(t, "Sheet1", nil)
	_, err = ReadXLSX(empty, "", Columns{})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestOpen_ByExtension(t *testing.T) {
	xlsx := writeWorkbook(t, "Sheet1", workbookRows)
	s, err := Open(xlsx, Columns{})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Count())

	csvPath := filepath.Join(t.TempDir(), "rencana.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sheet), 0o600))
	s, err = Open(csvPath, Columns{})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Count())
}
