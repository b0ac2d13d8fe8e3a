package reconcile

import "cmsimport/internal/dataset"

// ValidateBatch checks that batch declares every required column with the
// required type and has at least one row.
func ValidateBatch(batch *dataset.Batch, required []dataset.Column) error {
	if batch == nil {
		return ErrEmptyBatch
	}

	var problems []ColumnProblem
	for _, want := range required {
		col, ok := batch.Column(want.Name)
		if !ok && want.Name == dataset.ColumnFolderPath {
			col, ok = batch.Column(dataset.ColumnFolderName)
		}
		switch {
		case !ok:
			problems = append(problems, ColumnProblem{Column: want.Name, Want: want.Type, Missing: true})
		case col.Type != want.Type:
			problems = append(problems, ColumnProblem{Column: want.Name, Want: want.Type, Got: col.Type})
		}
	}
	if len(problems) > 0 {
		return &SchemaError{Batch: batch.Name, Problems: problems}
	}
	if batch.Len() == 0 {
		return ErrEmptyBatch
	}
	return nil
}
