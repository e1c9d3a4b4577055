package table

import "strings"

const (
	// Required column headers, matched case-sensitively
	ColumnID   = "ID"
	ColumnName = "Name"

	// Number of data rows kept for display before a run starts
	PreviewRows = 5
)

// Value is a single cell. Valid is false when the cell was missing or null.
type Value struct {
	Text  string
	Valid bool
}

// Text returns a valid Value holding s
func Text(s string) Value {
	return Value{Text: s, Valid: true}
}

// Null returns a missing Value
func Null() Value {
	return Value{}
}

// String renders the value the way it shows up in warnings
func (v Value) String() string {
	if !v.Valid {
		return "nan"
	}
	return v.Text
}

// Record is one (ID, Name) pair read from an uploaded table
type Record struct {
	Row  int // 1-based data row, header excluded
	ID   Value
	Name Value
}

// Table holds the records of an uploaded file plus what is needed to preview it
type Table struct {
	Columns []string
	Records []Record
	Preview [][]string
}

// buildColumnMap maps each header to its position. Headers are kept verbatim so
// that matching stays case-sensitive.
func buildColumnMap(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if _, exists := colMap[h]; !exists {
			colMap[h] = i
		}
	}
	return colMap
}

func cell(row []Value, idx int) Value {
	if idx < 0 || idx >= len(row) {
		return Null()
	}
	return row[idx]
}
