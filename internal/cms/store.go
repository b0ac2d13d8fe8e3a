package cms

import "context"

// SearchRequest selects items matching a predicate.
type SearchRequest struct {
	Predicate       Predicate `json:"predicate"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

// Store is the remote content repository used by the reconciliation engine.
type Store interface {
	SearchContent(ctx context.Context, req SearchRequest) ([]Item, error)
	AddContent(ctx context.Context, item *Item) (*Item, error)
	UpdateContent(ctx context.Context, item *Item) error
	ResolveFolder(ctx context.Context, path string) (Folder, bool, error)
	ResolveTaxonomy(ctx context.Context, path string) (Taxonomy, bool, error)
	ListTaxonomyAssociations(ctx context.Context, itemID int64) ([]TaxonomyAssociation, error)
	AddTaxonomyAssociation(ctx context.Context, assoc TaxonomyAssociation) error
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// TokenSource supplies the bearer token attached to authenticated requests.
type TokenSource interface {
	Token() string
}
