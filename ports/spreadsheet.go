package ports

// Cell is a nullable scalar spreadsheet value: nil, string, float64 or bool
type Cell = interface{}

// Sheet is one named worksheet of rows for serialization
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]Cell
}

// SpreadsheetCodec parses uploaded workbooks and writes exported ones
type SpreadsheetCodec interface {
	// Parse returns the rows of the first worksheet
	Parse(data []byte) ([][]Cell, error)

	// Serialize writes the sheets, in order, into a workbook
	Serialize(sheets ...Sheet) ([]byte, error)
}
