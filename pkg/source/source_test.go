package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/security"
)

func TestSlice_GetAndGaps(t *testing.T) {
	s := NewSlice(&core.Record{Identity: "a"}, nil, &core.Record{Identity: "c"})

	assert.Equal(t, 3, s.Count())

	rec, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, 0, rec.Index)

	_, ok = s.Get(1)
	assert.False(t, ok)

	rec, ok = s.Get(2)
	require.True(t, ok)
	assert.Equal(t, 2, rec.Index)

	_, ok = s.Get(-1)
	assert.False(t, ok)
	_, ok = s.Get(3)
	assert.False(t, ok)
}

func TestSlice_ChainsWith(t *testing.T) {
	s := NewSlice(
		&core.Record{ChainKeyA: "K1", ChainKeyB: "P1"},
		&core.Record{ChainKeyA: "K1", ChainKeyB: "P1"},
		&core.Record{ChainKeyA: "K1", ChainKeyB: "P2"},
		nil,
		&core.Record{ChainKeyA: "K1", ChainKeyB: "P2"},
	)

	assert.True(t, s.ChainsWith(0))
	assert.False(t, s.ChainsWith(1), "second key differs")
	assert.False(t, s.ChainsWith(2), "next record absent")
	assert.False(t, s.ChainsWith(3), "current record absent")
	assert.False(t, s.ChainsWith(4), "last record")
}

const sheet = "Tanggal,Docket,Kode,Proyek,Teknisi\n" +
	"2024-01-02,D-1,K1,P1,Budi\n" +
	"2024-01-02,D-2,K1,P1,Budi\n" +
	",,,,\n" +
	"2024-01-03,,K2,P1,Sari\n"

func TestReadCSV_PositionalDefaults(t *testing.T) {
	s, err := ReadCSV(strings.NewReader(sheet), Columns{})
	require.NoError(t, err)
	require.Equal(t, 4, s.Count())

	rec, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, "D-1", rec.Identity)
	assert.Equal(t, "K1", rec.ChainKeyA)
	assert.Equal(t, "P1", rec.ChainKeyB)
	assert.Equal(t, "Budi", rec.Field("Teknisi"))

	assert.True(t, s.ChainsWith(0))

	_, ok = s.Get(2)
	assert.False(t, ok, "blank row is a gap")

	rec, ok = s.Get(3)
	require.True(t, ok)
	assert.Equal(t, core.UnknownIdentity, rec.Identity)
	assert.Equal(t, 3, rec.Index)
}

func TestReadCSV_NamedColumns(t *testing.T) {
	s, err := ReadCSV(strings.NewReader(sheet), Columns{
		Identity:  "teknisi",
		ChainKeyA: "Proyek",
		ChainKeyB: "Tanggal",
	})
	require.NoError(t, err)

	rec, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, "Budi", rec.Identity)
	assert.Equal(t, "P1", rec.ChainKeyA)
	assert.Equal(t, "2024-01-02", rec.ChainKeyB)
}

func TestReadCSV_Skip(t *testing.T) {
	s, err := ReadCSV(strings.NewReader(sheet), Columns{Skip: 1})
	require.NoError(t, err)
	require.Equal(t, 3, s.Count())

	rec, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, "D-2", rec.Identity)
	assert.Equal(t, 0, rec.Index)
}

func TestReadCSV_ShortRowsAndBOM(t *testing.T) {
	s, err := ReadCSV(strings.NewReader("\ufeffA,Docket\nx\n"), Columns{})
	require.NoError(t, err)

	rec, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, core.UnknownIdentity, rec.Identity)
	assert.Empty(t, rec.ChainKeyA)
	assert.Equal(t, "x", rec.Field("A"))
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), Columns{})
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ReadCSV(strings.NewReader(sheet), Columns{Identity: "Missing"})
	assert.ErrorContains(t, err, "Missing")

	_, err = ReadCSV(strings.NewReader(sheet), Columns{Identity: "bad\x00name"})
	assert.ErrorIs(t, err, security.ErrInvalidColumnName)

	_, err = ReadCSV(strings.NewReader(sheet), Columns{Skip: -1})
	assert.Error(t, err)
}

func TestReadCSVFile_Missing(t *testing.T) {
	_, err := ReadCSVFile("does-not-exist.csv", Columns{})
	assert.Error(t, err)
}
