package dataset

import (
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Columns whose type defaults to int64 when the header carries no annotation.
var defaultInt64Columns = map[string]struct{}{
	ColumnContentID:   {},
	ColumnSmartFormID: {},
}

// ReadCSV parses a batch from CSV. Header cells are "name" or "name:type"
// where type is string, int64, or bytes (base64). A UTF-8 byte order mark is
// stripped and empty int64 or bytes cells are treated as absent.
func ReadCSV(r io.Reader, name string) (*Batch, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read csv header: empty input")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	reader.FieldsPerRecord = len(columns)

	var rows []Row
	for line := 0; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}
		values := make(map[string]any, len(columns))
		for i, col := range columns {
			value, present, err := parseCell(col, record[i])
			if err != nil {
				return nil, fmt.Errorf("csv row %d column %q: %w", line, col.Name, err)
			}
			if present {
				values[col.Name] = value
			}
		}
		row, err := NewRow(line, values)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return NewBatch(name, columns, rows)
}

// LoadCSV reads a batch from a file. When name is empty the file's base name
// without extension is used.
func LoadCSV(path, name string) (*Batch, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	if strings.TrimSpace(name) == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	batch, err := ReadCSV(file, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return batch, nil
}

func parseHeader(header []string) ([]Column, error) {
	columns := make([]Column, 0, len(header))
	for i, cell := range header {
		cell = strings.TrimSpace(cell)
		colName, annotation, annotated := strings.Cut(cell, ":")
		colName = strings.TrimSpace(colName)
		if colName == "" {
			return nil, fmt.Errorf("csv header column %d: empty name", i)
		}
		colType := TypeString
		if annotated {
			parsed, err := ParseType(annotation)
			if err != nil {
				return nil, fmt.Errorf("csv header column %q: %w", colName, err)
			}
			colType = parsed
		} else if _, ok := defaultInt64Columns[colName]; ok {
			colType = TypeInt64
		}
		columns = append(columns, Column{Name: colName, Type: colType})
	}
	return columns, nil
}

func parseCell(col Column, cell string) (any, bool, error) {
	switch col.Type {
	case TypeInt64:
		trimmed := strings.TrimSpace(cell)
		if trimmed == "" {
			return nil, false, nil
		}
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("parse int64 %q: %w", trimmed, err)
		}
		return v, true, nil
	case TypeBytes:
		trimmed := strings.TrimSpace(cell)
		if trimmed == "" {
			return nil, false, nil
		}
		v, err := base64.StdEncoding.DecodeString(trimmed)
		if err != nil {
			return nil, false, fmt.Errorf("decode base64: %w", err)
		}
		return v, true, nil
	default:
		return cell, true, nil
	}
}
