package report

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/lehigh-university-libraries/imagebatch/internal/batch"
	tbl "github.com/lehigh-university-libraries/imagebatch/internal/table"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// Table renders the counters of a run, followed by any record errors
func Table(result *batch.Result) string {
	rows := [][]string{
		{"Total", strconv.Itoa(result.Total)},
		{"Processed", strconv.Itoa(result.Processed)},
		{"Stored", strconv.Itoa(result.Stored)},
		{"Missed", strconv.Itoa(result.Missed)},
		{"Skipped", strconv.Itoa(result.Skipped)},
		{"Failed", strconv.Itoa(result.Failed)},
		{"Progress", strconv.FormatFloat(result.Progress()*100, 'f', 1, 64) + "%"},
	}
	out := renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight})

	if len(result.Errors) == 0 {
		return out
	}

	errRows := make([][]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		errRows = append(errRows, []string{strconv.Itoa(e.Row), e.ID, e.Name, e.Error})
	}
	return out + "\n" + renderTable([]string{"Row", "ID", "Name", "Error"}, errRows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft})
}

// Preview renders the first rows of an uploaded table
func Preview(t *tbl.Table) string {
	return renderTable(t.Columns, t.Preview, nil)
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
