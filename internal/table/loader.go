package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file types the loader cannot read
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMissingColumns is returned when the header lacks ID or Name
	ErrMissingColumns = errors.New("the uploaded file must contain 'ID' and 'Name' columns")
)

// SupportedExtensions lists the file types accepted for upload
var SupportedExtensions = []string{".csv", ".xlsx", ".parquet", ".jsonl", ".json"}

// Loader reads an (ID, Name) table from a file on disk
type Loader struct {
	path string
}

// NewLoader creates a new table loader
func NewLoader(path string) *Loader {
	return &Loader{
		path: path,
	}
}

// Load reads the whole table
func (l *Loader) Load() (*Table, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer file.Close()

	return Load(filepath.Base(l.path), file)
}

// Supported reports whether filename has an extension Load understands
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Load parses r according to the extension of filename. The header must
// contain the ID and Name columns; other columns are ignored.
func Load(filename string, r io.Reader) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !Supported(filename) {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions, ", "))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}

	slog.Debug("Loading table", "file", filename, "format", ext, "size_bytes", len(data))

	var header []string
	var rows [][]Value
	switch ext {
	case ".csv":
		header, rows, err = readCSV(data)
	case ".xlsx":
		header, rows, err = readExcel(data)
	case ".parquet":
		header, rows, err = readParquet(data)
	case ".jsonl", ".json":
		header, rows, err = readJSONL(data)
	}
	if err != nil {
		return nil, err
	}

	return newTable(header, rows)
}

func newTable(header []string, rows [][]Value) (*Table, error) {
	colMap := buildColumnMap(header)
	idIdx, hasID := colMap[ColumnID]
	nameIdx, hasName := colMap[ColumnName]
	if !hasID || !hasName {
		return nil, fmt.Errorf("%w (found: %s)", ErrMissingColumns, strings.Join(header, ", "))
	}

	t := &Table{
		Columns: header,
		Records: make([]Record, 0, len(rows)),
	}

	for i, row := range rows {
		t.Records = append(t.Records, Record{
			Row:  i + 1,
			ID:   cell(row, idIdx),
			Name: cell(row, nameIdx),
		})

		if i < PreviewRows {
			preview := make([]string, len(header))
			for j := range header {
				if v := cell(row, j); v.Valid {
					preview[j] = v.Text
				}
			}
			t.Preview = append(t.Preview, preview)
		}
	}

	slog.Debug("Table loaded", "columns", len(header), "records", len(t.Records))
	return t, nil
}

// readCSV treats the first row as the header. Empty cells are missing values.
func readCSV(data []byte) ([]string, [][]Value, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%w (file is empty)", ErrMissingColumns)
	}

	return all[0], stringRows(all[1:]), nil
}

func stringRows(raw [][]string) [][]Value {
	rows := make([][]Value, 0, len(raw))
	for _, r := range raw {
		row := make([]Value, len(r))
		for i, s := range r {
			if s == "" {
				row[i] = Null()
				continue
			}
			row[i] = Text(s)
		}
		rows = append(rows, row)
	}
	return rows
}

// readJSONL reads one JSON object per line. Columns are collected in order of
// first appearance; JSON null and absent keys are missing values.
func readJSONL(data []byte) ([]string, [][]Value, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	// Increase buffer size for large JSON lines
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxCapacity)

	var header []string
	seen := make(map[string]int)
	var objects []map[string]Value

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		keys, values, err := decodeObject(line)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				seen[k] = len(header)
				header = append(header, k)
			}
		}
		objects = append(objects, values)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading JSONL: %w", err)
	}

	rows := make([][]Value, 0, len(objects))
	for _, obj := range objects {
		row := make([]Value, len(header))
		for k, v := range obj {
			row[seen[k]] = v
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// decodeObject returns the keys of a flat JSON object in document order
func decodeObject(line []byte) ([]string, map[string]Value, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected a JSON object")
	}

	var keys []string
	values := make(map[string]Value)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values[key] = jsonValue(raw)
	}
	return keys, values, nil
}

func jsonValue(raw json.RawMessage) Value {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Null()
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return Text(s)
		}
	}
	return Text(string(trimmed))
}
