package testsupport

import (
	"testing"

	"cmsimport/internal/dataset"
)

// NewRow builds a row or fails the test.
func NewRow(t testing.TB, index int, values map[string]any) dataset.Row {
	t.Helper()

	row, err := dataset.NewRow(index, values)
	if err != nil {
		t.Fatalf("dataset.NewRow: %v", err)
	}
	return row
}

// NewBatch builds a batch from value maps, indexing rows from zero.
func NewBatch(t testing.TB, name string, columns []dataset.Column, values ...map[string]any) *dataset.Batch {
	t.Helper()

	rows := make([]dataset.Row, 0, len(values))
	for i, v := range values {
		rows = append(rows, NewRow(t, i, v))
	}
	batch, err := dataset.NewBatch(name, columns, rows)
	if err != nil {
		t.Fatalf("dataset.NewBatch: %v", err)
	}
	return batch
}

// ContentColumns is the column set accepted by the content variant.
func ContentColumns(extra ...dataset.Column) []dataset.Column {
	cols := []dataset.Column{
		{Name: dataset.ColumnContentID, Type: dataset.TypeInt64},
		{Name: dataset.ColumnTitle, Type: dataset.TypeString},
		{Name: dataset.ColumnFolderPath, Type: dataset.TypeString},
		{Name: dataset.ColumnHTML, Type: dataset.TypeString},
	}
	return append(cols, extra...)
}
