package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/fxgains/internal/model"
)

func TestCSV_Records(t *testing.T) {
	f, err := os.Open("../../data/sample.csv")
	require.NoError(t, err)
	defer f.Close()

	records, err := NewCSV(f).Records()
	require.NoError(t, err)
	require.Len(t, records, 8)

	assert.Equal(t, model.RawRecord{
		ID: "1", Date: "20210104",
		HomeCurrency: "USD", HomeAmount: "-12000",
		QuoteCurrency: "EUR", Rate: "1.1800", Fee: "2.50",
	}, records[0])
	assert.Equal(t, "EUR", records[7].HomeCurrency)
	assert.Equal(t, "8", records[7].ID)
}

func TestCSV_SniffedDelimiters(t *testing.T) {
	tests := []struct {
		file string
		want int
	}{
		{"semicolon.csv", 2},
		{"tabs.csv", 1},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("../../testdata", tt.file))
			require.NoError(t, err)

			records, err := NewCSV(strings.NewReader(string(data))).Records()
			require.NoError(t, err)
			require.Len(t, records, tt.want)
			assert.Equal(t, "USD", records[0].HomeCurrency)
			assert.Equal(t, "EUR", records[0].QuoteCurrency)
		})
	}
}

func TestCSV_MissingFee(t *testing.T) {
	data, err := os.ReadFile("../../testdata/tabs.csv")
	require.NoError(t, err)

	records, err := NewCSV(strings.NewReader(string(data))).Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Fee)

	txs, err := Transactions(NewCSV(strings.NewReader(string(data))))
	require.NoError(t, err)
	assert.True(t, txs[0].Fee().IsZero())
}

func TestCSV_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "  \n", "id,date,ccy1,amt1,ccy2,rate,fee\n"} {
		records, err := NewCSV(strings.NewReader(in)).Records()
		require.NoError(t, err)
		assert.Empty(t, records)
	}
}

func TestCSV_WrongFieldCount(t *testing.T) {
	in := "id,date,ccy1,amt1,ccy2,rate,fee\n1,20210101,USD,-1000\n"
	_, err := NewCSV(strings.NewReader(in)).Records()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "got 4")
}

func TestSniff(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{"a,b,c\n1;2;3;4;5", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{"a|b|c", '|'},
		{"abc", ','},
		{"a,b;c", ','},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sniff([]byte(tt.in)), "Sniff(%q)", tt.in)
	}
}

func TestTransactions_InvalidRecord(t *testing.T) {
	data, err := os.ReadFile("../../testdata/invalid_rate.csv")
	require.NoError(t, err)

	txs, err := Transactions(NewCSV(strings.NewReader(string(data))))
	require.Error(t, err)
	assert.Nil(t, txs)
	assert.Contains(t, err.Error(), "record 2")

	var invalid *model.InvalidRecordError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "rate", invalid.Field)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("csv"))
	assert.NotNil(t, r.Get("CSV"))
	assert.Nil(t, r.Get("ofx"))

	_, err := r.ForPath("statement.ofx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ofx"`)

	assert.Panics(t, func() { r.Register("csv", nil) })
}

func TestRegistry_ReadFile(t *testing.T) {
	txs, err := DefaultRegistry().ReadFile("../../data/sample.csv")
	require.NoError(t, err)
	require.Len(t, txs, 8)

	assert.Equal(t, 1, txs[0].ID())
	assert.True(t, txs[0].IsBasisProviding())
	assert.True(t, txs[2].IsTaxable())
	assert.True(t, txs[0].Rate().Equal(decimal.RequireFromString("1.18")))
}

func TestRegistry_ReadFile_Missing(t *testing.T) {
	_, err := DefaultRegistry().ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.CSV"), []byte("xy"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "processed.csv"), 0o755))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.CSV", files[0].Name)
	assert.Equal(t, int64(2), files[0].Size)
	assert.Equal(t, filepath.Join(dir, "b.csv"), files[1].Path)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "import"))
	require.NoError(t, err)
	assert.Nil(t, files)
}
