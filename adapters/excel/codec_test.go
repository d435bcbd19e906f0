package excel

import (
	"bytes"
	"testing"

	"timestudy/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseTypesCells(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Process", "Assembly Line A"},
		{"Operation ID", "Operation Description", "Standard time (sec)", "Tools Required", "Quality Check"},
		{"OP001", "Tighten bolt", 12.5, "wrench", "visual"},
		{"op002", "Apply label"},
	})

	rows, err := NewCodec().Parse(data)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "Assembly Line A", rows[0][1])
	assert.Equal(t, "OP001", rows[2][0])
	assert.Equal(t, 12.5, rows[2][2])
	assert.Equal(t, "visual", rows[2][4])
	assert.Equal(t, []ports.Cell{"op002", "Apply label"}, rows[3])
}

func TestParseKeepsEmptyCellsNil(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "OP1"))
	require.NoError(t, f.SetCellValue("Sheet1", "C1", 3))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	f.Close()

	rows, err := NewCodec().Parse(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0], 3)
	assert.Equal(t, "OP1", rows[0][0])
	assert.Nil(t, rows[0][1])
	assert.Equal(t, float64(3), rows[0][2])
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewCodec().Parse([]byte("not a workbook"))
	assert.Error(t, err)
}

func TestSerializeWritesNamedSheets(t *testing.T) {
	data, err := NewCodec().Serialize(
		ports.Sheet{
			Name:    "Time Study Data",
			Columns: []string{"Operation ID", "Total Time (seconds)", "End Time"},
			Rows: [][]ports.Cell{
				{"OP001", 12.0, "2024-03-01T08:00:12Z"},
				{"OP002", nil, ""},
			},
		},
		ports.Sheet{
			Name:    "Operation Summary",
			Columns: []string{"Operation ID", "Count"},
			Rows:    [][]ports.Cell{{"OP001", 1}},
		},
	)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Time Study Data", "Operation Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Time Study Data")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Operation ID", "Total Time (seconds)", "End Time"}, rows[0])
	assert.Equal(t, "OP001", rows[1][0])
	assert.Equal(t, "12", rows[1][1])
	assert.Equal(t, "OP002", rows[2][0])

	// Round trip through Parse reads the first sheet only.
	parsed, err := NewCodec().Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "Operation ID", parsed[0][0])
	assert.Equal(t, float64(12), parsed[1][1])
}

func TestSerializeRequiresSheet(t *testing.T) {
	_, err := NewCodec().Serialize()
	assert.Error(t, err)
}
