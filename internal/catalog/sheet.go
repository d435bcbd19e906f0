package catalog

import (
	"strconv"
	"strings"

	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"
)

// Header labels of operation sheets
const (
	HeaderOperationID   = "Operation ID"
	HeaderDescription   = "Operation Description"
	HeaderStandardTime  = "Standard time (sec)"
	HeaderToolsRequired = "Tools Required"
	HeaderQualityCheck  = "Quality Check"
)

// columns maps operation fields to cell offsets of a row
type columns struct {
	code, description, standardTime, tools, quality int
}

// importColumns are the fixed offsets of the import template
var importColumns = columns{code: 0, description: 1, standardTime: 2, tools: 3, quality: 4}

// ExtractProcessName returns the process name stored at row 0, column 1 of an import
// template, or "" when the cell is empty
func ExtractProcessName(rows [][]ports.Cell) string {
	if len(rows) == 0 {
		return ""
	}
	return strings.TrimSpace(cellString(cell(rows[0], 1)))
}

// ParseImportRows extracts operations from an import template: rows after the first
// row whose column 0 is "Operation ID", read at fixed offsets
func ParseImportRows(rows [][]ports.Cell) ([]models.Operation, error) {
	header := -1
	for i, row := range rows {
		if s, ok := cell(row, 0).(string); ok && s == HeaderOperationID {
			header = i
			break
		}
	}
	if header == -1 {
		return nil, errors.ValidationError(`operation headers not found: no row starts with "Operation ID"`)
	}
	return extractOperations(rows[header+1:], importColumns)
}

// ParseReplaceRows extracts operations from a sheet whose first row names the columns
func ParseReplaceRows(rows [][]ports.Cell) ([]models.Operation, error) {
	if len(rows) == 0 {
		return nil, errors.ValidationError("spreadsheet is empty")
	}

	index := make(map[string]int)
	for i, c := range rows[0] {
		if name := strings.TrimSpace(cellString(c)); name != "" {
			if _, seen := index[name]; !seen {
				index[name] = i
			}
		}
	}
	lookup := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	cols := columns{
		code:         lookup(HeaderOperationID),
		description:  lookup(HeaderDescription),
		standardTime: lookup(HeaderStandardTime),
		tools:        lookup(HeaderToolsRequired),
		quality:      lookup(HeaderQualityCheck),
	}
	if cols.code == -1 {
		return nil, errors.ValidationError(`"Operation ID" column not found in the first row`)
	}
	return extractOperations(rows[1:], cols)
}

// extractOperations applies the row rules shared by import and replace. Rows without a
// code or whose code lacks the operation prefix are skipped. Sequence numbers are dense
// from 0 in row order.
func extractOperations(rows [][]ports.Cell, cols columns) ([]models.Operation, error) {
	var operations []models.Operation
	seen := make(map[string]struct{})

	for _, row := range rows {
		code := strings.TrimSpace(cellString(cell(row, cols.code)))
		if code == "" || !models.HasOperationPrefix(code) {
			continue
		}
		if _, dup := seen[code]; dup {
			return nil, errors.Conflict("operation code " + code + " appears more than once")
		}
		seen[code] = struct{}{}

		op := models.Operation{
			Code:           code,
			Description:    strings.TrimSpace(cellString(cell(row, cols.description))),
			ToolsRequired:  optionalString(cell(row, cols.tools)),
			QualityCheck:   optionalString(cell(row, cols.quality)),
			SequenceNumber: len(operations),
		}
		if v, ok := cell(row, cols.standardTime).(float64); ok {
			if v < 0 {
				return nil, errors.ValidationError("standard time of " + code + " is negative")
			}
			op.StandardTimeSeconds = &v
		}
		operations = append(operations, op)
	}

	if len(operations) == 0 {
		return nil, errors.ValidationError(`no valid operations found: operation IDs must start with "OP" and follow the template format`)
	}
	return operations, nil
}

func cell(row []ports.Cell, i int) ports.Cell {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func cellString(c ports.Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func optionalString(c ports.Cell) *string {
	s := strings.TrimSpace(cellString(c))
	if s == "" {
		return nil
	}
	return &s
}
