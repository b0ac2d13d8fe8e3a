package dataset

import (
	"fmt"
	"strings"
)

// Type is the declared type of a column.
type Type int

const (
	TypeString Type = iota
	TypeInt64
	TypeBytes
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt64:
		return "int64"
	case TypeBytes:
		return "bytes"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseType maps a header annotation to a column type.
func ParseType(value string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "string", "text":
		return TypeString, nil
	case "int64", "int", "long":
		return TypeInt64, nil
	case "bytes", "blob", "base64":
		return TypeBytes, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", value)
	}
}

// Distinguished column names.
const (
	ColumnContentID   = "contentId"
	ColumnTitle       = "title"
	ColumnFolderPath  = "folderPath"
	ColumnFolderName  = "folderName"
	ColumnSmartFormID = "smartFormId"
	ColumnHTML        = "html"
	ColumnFilePath    = "filePath"
)

// Row maps column names to typed values. Supported value types are string,
// int64, and []byte; a missing entry means the value is absent.
type Row struct {
	index  int
	values map[string]any
}

// NewRow copies values into an immutable row. Values of unsupported types
// are rejected.
func NewRow(index int, values map[string]any) (Row, error) {
	copied := make(map[string]any, len(values))
	for name, value := range values {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			copied[name] = v
		case int64:
			copied[name] = v
		case int:
			copied[name] = int64(v)
		case []byte:
			copied[name] = append([]byte(nil), v...)
		default:
			return Row{}, fmt.Errorf("row %d column %q: unsupported value type %T", index, name, value)
		}
	}
	return Row{index: index, values: copied}, nil
}

// Index returns the zero-based position of the row in its input.
func (r Row) Index() int { return r.index }

// Has reports whether the column holds a value.
func (r Row) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// String returns a string column value.
func (r Row) String(name string) (string, bool) {
	v, ok := r.values[name].(string)
	return v, ok
}

// Int64 returns an integer column value.
func (r Row) Int64(name string) (int64, bool) {
	v, ok := r.values[name].(int64)
	return v, ok
}

// Bytes returns a copy of a binary column value.
func (r Row) Bytes(name string) ([]byte, bool) {
	v, ok := r.values[name].([]byte)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Text renders any present value as text; binary values are returned as-is.
func (r Row) Text(name string) (string, bool) {
	switch v := r.values[name].(type) {
	case string:
		return v, true
	case int64:
		return fmt.Sprintf("%d", v), true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

// Title returns the row title.
func (r Row) Title() string {
	v, _ := r.String(ColumnTitle)
	return v
}

// FolderPath returns the destination container path, falling back to the
// legacy folderName column.
func (r Row) FolderPath() string {
	if v, ok := r.String(ColumnFolderPath); ok {
		return v
	}
	v, _ := r.String(ColumnFolderName)
	return v
}

// ContentID returns the bound remote identifier, or 0 when absent.
func (r Row) ContentID() int64 {
	v, _ := r.Int64(ColumnContentID)
	return v
}

// IsNew reports whether the row has no usable remote identifier.
func (r Row) IsNew() bool {
	return r.ContentID() <= 0
}
