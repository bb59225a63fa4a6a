package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sample = [][]string{
	{"Timestamp", "Record ID", "Affected Value"},
	{"2024-04-01 10:00:00", "12", "agni, fire"},
	{"2024-04-02 11:30:00", "7", "वन"},
}

func TestWriteCSVQuotesFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, sample, records)
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "DB Operations 04/Apr", sample))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	require.Equal(t, []string{"DB Operations 04_Apr"}, sheets)

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	assert.Equal(t, sample, rows)

	typ, err := f.GetCellType(sheets[0], "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet1", sheetName(""))
	assert.Equal(t, "a_b_c", sheetName("a/b?c"))
	assert.Len(t, []rune(sheetName("an extremely long worksheet title over the limit")), maxSheetName)
}
