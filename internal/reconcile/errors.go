package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"cmsimport/internal/dataset"
	"cmsimport/internal/services"
)

var (
	// ErrEmptyBatch is returned when a batch has no rows.
	ErrEmptyBatch = fmt.Errorf("%w: batch contains no rows", services.ErrValidation)
	// ErrUpdateOnly is returned by MapNew for variants that never create items.
	ErrUpdateOnly = errors.New("variant only updates existing items")
	// ErrNoAuthentication marks a remote call skipped because no token is held.
	ErrNoAuthentication = errors.New("no authentication")
)

// ColumnProblem describes one schema mismatch.
type ColumnProblem struct {
	Column  string
	Want    dataset.Type
	Got     dataset.Type
	Missing bool
}

func (p ColumnProblem) String() string {
	if p.Missing {
		return fmt.Sprintf("missing %s:%s", p.Column, p.Want)
	}
	return fmt.Sprintf("%s is %s, want %s", p.Column, p.Got, p.Want)
}

// SchemaError lists every column that is absent or has the wrong type.
type SchemaError struct {
	Batch    string
	Problems []ColumnProblem
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("batch %q schema mismatch: %s", e.Batch, strings.Join(parts, "; "))
}

// Unwrap marks schema errors as validation failures.
func (e *SchemaError) Unwrap() error { return services.ErrValidation }

// SearchError reports a failed existing-item search. Call is the zero-based
// index of the failing search request.
type SearchError struct {
	Call  int
	Calls int
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("existing item search %d of %d failed: %v", e.Call+1, e.Calls, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }
