package excel

import (
	"bytes"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"timestudy/ports"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the workbooks written by Serialize
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Codec reads and writes .xlsx workbooks
type Codec struct{}

// NewCodec creates a new spreadsheet codec
func NewCodec() *Codec {
	return &Codec{}
}

// Parse reads the first worksheet of an uploaded workbook. Each row is returned as a
// slice of nullable cells: empty cells are nil, numeric cells float64, boolean cells
// bool and everything else string.
func (c *Codec) Parse(data []byte) ([][]ports.Cell, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}

	out := make([][]ports.Cell, len(rows))
	for r, row := range rows {
		cells := make([]ports.Cell, len(row))
		for col, raw := range row {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(col+1, r+1)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(sheet, ref)
			if err != nil {
				cellType = excelize.CellTypeUnset
			}
			cells[col] = convertCell(raw, cellType)
		}
		out[r] = cells
	}

	log.Printf("[ExcelCodec] Parsed %s in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(out))
	return out, nil
}

func convertCell(raw string, cellType excelize.CellType) ports.Cell {
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return raw
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return raw
}

// Serialize writes each sheet with a header row of column names followed by its rows.
// The first sheet becomes the active one.
func (c *Codec) Serialize(sheets ...ports.Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("at least one sheet is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, err
		}

		header := make([]interface{}, len(sheet.Columns))
		for col, name := range sheet.Columns {
			header[col] = name
		}
		if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
			return nil, err
		}

		for r := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			row := sheet.Rows[r]
			if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
				return nil, err
			}
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
