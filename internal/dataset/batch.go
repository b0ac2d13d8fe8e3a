package dataset

import "fmt"

// Column is a named, typed schema entry.
type Column struct {
	Name string
	Type Type
}

func (c Column) String() string {
	return c.Name + ":" + c.Type.String()
}

// Batch is an ordered collection of rows sharing one schema.
type Batch struct {
	Name    string
	Columns []Column
	Rows    []Row
}

// NewBatch assembles a batch, rejecting duplicate column names and row
// values whose type disagrees with the declared column type.
func NewBatch(name string, columns []Column, rows []Row) (*Batch, error) {
	index := make(map[string]Type, len(columns))
	for _, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("batch %q: empty column name", name)
		}
		if _, dup := index[col.Name]; dup {
			return nil, fmt.Errorf("batch %q: duplicate column %q", name, col.Name)
		}
		index[col.Name] = col.Type
	}
	for _, row := range rows {
		for colName, value := range row.values {
			declared, ok := index[colName]
			if !ok {
				return nil, fmt.Errorf("batch %q row %d: column %q not in schema", name, row.index, colName)
			}
			if typeOf(value) != declared {
				return nil, fmt.Errorf("batch %q row %d: column %q holds %s, schema declares %s",
					name, row.index, colName, typeOf(value), declared)
			}
		}
	}
	return &Batch{Name: name, Columns: append([]Column(nil), columns...), Rows: append([]Row(nil), rows...)}, nil
}

// Column looks up a schema entry by name.
func (b *Batch) Column(name string) (Column, bool) {
	for _, col := range b.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// Len returns the number of rows.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

func typeOf(value any) Type {
	switch value.(type) {
	case int64:
		return TypeInt64
	case []byte:
		return TypeBytes
	default:
		return TypeString
	}
}
