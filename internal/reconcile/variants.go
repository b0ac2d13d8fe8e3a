package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cmsimport/internal/cms"
	"cmsimport/internal/dataset"
	"cmsimport/internal/logging"
	"cmsimport/internal/services"
)

var variants = map[string]Variant{
	contentVariant{}.Name():   contentVariant{},
	assetVariant{}.Name():     assetVariant{},
	smartFormVariant{}.Name(): smartFormVariant{},
	metadataVariant{}.Name():  metadataVariant{},
	taxonomyVariant{}.Name():  taxonomyVariant{},
}

var (
	colTitle       = dataset.Column{Name: dataset.ColumnTitle, Type: dataset.TypeString}
	colFolderPath  = dataset.Column{Name: dataset.ColumnFolderPath, Type: dataset.TypeString}
	colContentID   = dataset.Column{Name: dataset.ColumnContentID, Type: dataset.TypeInt64}
	colHTML        = dataset.Column{Name: dataset.ColumnHTML, Type: dataset.TypeString}
	colFilePath    = dataset.Column{Name: dataset.ColumnFilePath, Type: dataset.TypeString}
	colSmartFormID = dataset.Column{Name: dataset.ColumnSmartFormID, Type: dataset.TypeInt64}
)

// contentVariant imports html documents.
type contentVariant struct{}

func (contentVariant) Name() string { return "content" }

func (contentVariant) Required() []dataset.Column {
	return []dataset.Column{colHTML, colFolderPath, colTitle, colContentID}
}

func (contentVariant) IncludeMetadata() bool { return false }

func (contentVariant) Clauses(row dataset.Row) []cms.Clause { return rowClauses(row) }

func (contentVariant) MapNew(_ context.Context, _ Env, row dataset.Row) (*cms.Item, error) {
	item := &cms.Item{ContentType: cms.ContentHTML}
	applyContentFields(row, item)
	return item, nil
}

func (contentVariant) MapExisting(_ context.Context, _ Env, row dataset.Row, item *cms.Item) error {
	applyContentFields(row, item)
	return nil
}

func applyContentFields(row dataset.Row, item *cms.Item) {
	item.Title = row.Title()
	item.HTML, _ = row.String(dataset.ColumnHTML)
}

// smartFormVariant imports structured content bound to a form definition.
type smartFormVariant struct{}

func (smartFormVariant) Name() string { return "smartform" }

func (smartFormVariant) Required() []dataset.Column {
	return append(contentVariant{}.Required(), colSmartFormID)
}

func (smartFormVariant) IncludeMetadata() bool { return false }

func (smartFormVariant) Clauses(row dataset.Row) []cms.Clause { return rowClauses(row) }

func (smartFormVariant) MapNew(_ context.Context, _ Env, row dataset.Row) (*cms.Item, error) {
	item := &cms.Item{}
	applySmartFormFields(row, item)
	return item, nil
}

func (smartFormVariant) MapExisting(_ context.Context, _ Env, row dataset.Row, item *cms.Item) error {
	applySmartFormFields(row, item)
	return nil
}

func applySmartFormFields(row dataset.Row, item *cms.Item) {
	applyContentFields(row, item)
	item.ContentType = cms.ContentSmartForm
	item.SmartFormID, _ = row.Int64(dataset.ColumnSmartFormID)
}

// assetVariant uploads files referenced by path.
type assetVariant struct{}

func (assetVariant) Name() string { return "asset" }

func (assetVariant) Required() []dataset.Column {
	return []dataset.Column{colFolderPath, colTitle, colFilePath}
}

func (assetVariant) IncludeMetadata() bool { return false }

func (assetVariant) Clauses(row dataset.Row) []cms.Clause { return rowClauses(row) }

func (assetVariant) MapNew(_ context.Context, _ Env, row dataset.Row) (*cms.Item, error) {
	item := &cms.Item{ContentType: cms.ContentAsset}
	if err := applyAssetFields(row, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (assetVariant) MapExisting(_ context.Context, _ Env, row dataset.Row, item *cms.Item) error {
	return applyAssetFields(row, item)
}

func applyAssetFields(row dataset.Row, item *cms.Item) error {
	path, _ := row.String(dataset.ColumnFilePath)
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrValidation, "asset", "read file", "filePath is empty", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "asset", "read file", "", err)
	}
	item.Title = row.Title()
	item.Asset = &cms.Asset{FileName: filepath.Base(path), Data: data}
	return nil
}

// metadataVariant rewrites metadata fields of existing items. Every
// non-reserved column names a metadata field.
type metadataVariant struct{}

func (metadataVariant) Name() string { return "metadata" }

func (metadataVariant) Required() []dataset.Column {
	return []dataset.Column{colContentID, colFolderPath, colTitle}
}

func (metadataVariant) IncludeMetadata() bool { return true }

func (metadataVariant) Clauses(row dataset.Row) []cms.Clause { return rowClauses(row) }

func (metadataVariant) MapNew(context.Context, Env, dataset.Row) (*cms.Item, error) {
	return nil, ErrUpdateOnly
}

func (metadataVariant) MapExisting(_ context.Context, env Env, row dataset.Row, item *cms.Item) error {
	for _, col := range env.ExtraColumns() {
		field := item.MetadataByName(col.Name)
		if field == nil {
			logging.WarnWithContext(env.Logger, "metadata field not found on item", "metadata_field_missing",
				logging.String("field", col.Name),
				logging.Int64(logging.FieldContentID, item.ID),
				logging.String(logging.FieldErrorHint, "check the column name against the item's metadata definition"),
				logging.String(logging.FieldImpact, "this field was left unchanged"),
			)
			continue
		}
		field.Text, _ = row.Text(col.Name)
	}
	return nil
}

// taxonomyVariant attaches existing items to taxonomy nodes. Every
// non-reserved column holds a delimited list of taxonomy paths.
type taxonomyVariant struct{}

func (taxonomyVariant) Name() string { return "taxonomy" }

func (taxonomyVariant) Required() []dataset.Column {
	return []dataset.Column{colContentID, colFolderPath, colTitle}
}

func (taxonomyVariant) IncludeMetadata() bool { return true }

func (taxonomyVariant) Clauses(row dataset.Row) []cms.Clause { return rowClauses(row) }

func (taxonomyVariant) MapNew(context.Context, Env, dataset.Row) (*cms.Item, error) {
	return nil, ErrUpdateOnly
}

func (taxonomyVariant) MapExisting(ctx context.Context, env Env, row dataset.Row, item *cms.Item) error {
	var current []cms.TaxonomyAssociation
	err := env.Call(ctx, "list taxonomy", func(ctx context.Context) error {
		found, err := env.Store.ListTaxonomyAssociations(ctx, item.ID)
		current = found
		return err
	})
	if err != nil {
		return err
	}

	delimiter := env.TaxonomyDelimiter
	if delimiter == "" {
		delimiter = ","
	}
	for _, col := range env.ExtraColumns() {
		text, _ := row.Text(col.Name)
		for _, path := range splitPaths(text, delimiter) {
			var taxonomyID int64
			if err := env.Call(ctx, "resolve taxonomy", func(ctx context.Context) error {
				id, err := env.Taxonomies.ID(ctx, path)
				taxonomyID = id
				return err
			}); err != nil {
				return fmt.Errorf("taxonomy %q: %w", path, err)
			}
			if taxonomyID <= 0 {
				logging.WarnWithContext(env.Logger, "taxonomy path not found", "taxonomy_missing",
					logging.String("taxonomy_path", path),
					logging.Int64(logging.FieldContentID, item.ID),
					logging.String(logging.FieldErrorHint, "create the taxonomy node or fix the path"),
					logging.String(logging.FieldImpact, "item was not classified under this path"),
				)
				continue
			}
			assoc := findAssociation(current, taxonomyID)
			assoc.ContentID = item.ID
			assoc.TaxonomyID = taxonomyID
			if err := env.Call(ctx, "add taxonomy item", func(ctx context.Context) error {
				return env.Store.AddTaxonomyAssociation(ctx, assoc)
			}); err != nil {
				return fmt.Errorf("taxonomy %q: %w", path, err)
			}
		}
	}
	return nil
}

func splitPaths(text, delimiter string) []string {
	parts := strings.Split(text, delimiter)
	paths := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			paths = append(paths, part)
		}
	}
	return paths
}

func findAssociation(current []cms.TaxonomyAssociation, taxonomyID int64) cms.TaxonomyAssociation {
	for _, assoc := range current {
		if assoc.TaxonomyID == taxonomyID {
			return assoc
		}
	}
	return cms.TaxonomyAssociation{}
}
