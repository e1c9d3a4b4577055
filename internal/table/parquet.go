package table

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// readParquet reads the top-level columns of a flat parquet file
func readParquet(data []byte) ([]string, [][]Value, error) {
	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	schema := pf.Schema()
	var header []string
	var leaves []int
	for _, field := range schema.Fields() {
		header = append(header, field.Name())
		leaf, ok := schema.Lookup(field.Name())
		if !ok {
			leaves = append(leaves, -1)
			continue
		}
		leaves = append(leaves, leaf.ColumnIndex)
	}

	var rows [][]Value
	buf := make([]parquet.Row, 128) // Read in batches

	for _, rowGroup := range pf.RowGroups() {
		reader := rowGroup.Rows()
		for {
			n, err := reader.ReadRows(buf)
			for _, row := range buf[:n] {
				values := make([]Value, len(header))
				for i, leaf := range leaves {
					values[i] = parquetCell(row, leaf)
				}
				rows = append(rows, values)
			}
			if err != nil {
				reader.Close()
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, nil, fmt.Errorf("failed to read parquet rows: %w", err)
			}
		}
	}

	return header, rows, nil
}

func parquetCell(row parquet.Row, column int) Value {
	if column < 0 {
		return Null()
	}
	for _, v := range row {
		if v.Column() != column {
			continue
		}
		if v.IsNull() {
			return Null()
		}
		return Text(formatParquetValue(v))
	}
	return Null()
}

func formatParquetValue(v parquet.Value) string {
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'f', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
