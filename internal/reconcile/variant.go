package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"cmsimport/internal/cms"
	"cmsimport/internal/dataset"
	"cmsimport/internal/lookup"
)

// Variant adapts the engine to one kind of destination.
type Variant interface {
	Name() string
	// Required lists the columns a batch must declare.
	Required() []dataset.Column
	// IncludeMetadata reports whether the existence search should return
	// metadata fields.
	IncludeMetadata() bool
	// Clauses returns the search clauses that find row's existing item.
	Clauses(row dataset.Row) []cms.Clause
	// MapNew builds an item for a row with no existing match, or returns
	// ErrUpdateOnly.
	MapNew(ctx context.Context, env Env, row dataset.Row) (*cms.Item, error)
	// MapExisting applies row to a private copy of the matched item.
	MapExisting(ctx context.Context, env Env, row dataset.Row, item *cms.Item) error
}

// Env exposes per-row collaborators to variants.
type Env struct {
	Store             cms.Store
	Taxonomies        *lookup.Cache
	Columns           []dataset.Column
	TaxonomyDelimiter string
	Logger            *slog.Logger

	call func(ctx context.Context, op string, fn func(context.Context) error) error
}

// Call runs a remote operation through the retry executor, failing with
// ErrNoAuthentication when no token is held.
func (e Env) Call(ctx context.Context, op string, fn func(context.Context) error) error {
	if e.call == nil {
		return fn(ctx)
	}
	return e.call(ctx, op, fn)
}

// ExtraColumns returns schema columns that are not reserved engine columns.
func (e Env) ExtraColumns() []dataset.Column {
	extra := make([]dataset.Column, 0, len(e.Columns))
	for _, col := range e.Columns {
		if _, reserved := reservedColumns[col.Name]; reserved {
			continue
		}
		extra = append(extra, col)
	}
	return extra
}

var reservedColumns = map[string]struct{}{
	dataset.ColumnContentID:   {},
	dataset.ColumnTitle:       {},
	dataset.ColumnFolderPath:  {},
	dataset.ColumnFolderName:  {},
	dataset.ColumnSmartFormID: {},
	dataset.ColumnHTML:        {},
	dataset.ColumnFilePath:    {},
}

// VariantByName returns a registered variant.
func VariantByName(name string) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (want one of %v)", name, VariantNames())
	}
	return v, nil
}

// VariantNames lists registered variants in sorted order.
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// rowClauses is the shared existence rule: update rows match by id and new
// rows by natural key.
func rowClauses(row dataset.Row) []cms.Clause {
	if !row.IsNew() {
		return []cms.Clause{cms.IDClause(row.ContentID())}
	}
	return []cms.Clause{cms.TitlePathClause(row.Title(), row.FolderPath())}
}
