package table

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readExcel reads the first sheet of an xlsx workbook. Cells come back as
// their formatted text, so numeric IDs keep the form shown in the sheet.
func readExcel(data []byte) ([]string, [][]Value, error) {
	excelFile, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("error opening Excel file: %w", err)
	}
	defer excelFile.Close()

	sheets := excelFile.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w (workbook has no sheets)", ErrMissingColumns)
	}

	rows, err := excelFile.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("could not read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w (sheet %s is empty)", ErrMissingColumns, sheets[0])
	}

	return rows[0], stringRows(rows[1:]), nil
}
