package testsupport

import (
	"context"
	"sort"
	"sync"

	"cmsimport/internal/cms"
	"cmsimport/internal/services"
)

// Operation names accepted by FakeStore fault injection and call counting.
const (
	OpSearch           = "search"
	OpAdd              = "add"
	OpUpdate           = "update"
	OpResolveFolder    = "resolve_folder"
	OpResolveTaxonomy  = "resolve_taxonomy"
	OpListAssociations = "list_associations"
	OpAddAssociation   = "add_association"
	OpAuthenticate     = "authenticate"
)

// FaultFunc decides whether a call should fail. item is the item being
// written for add and update, and nil otherwise. It runs with the store
// locked and must not call back into the store.
type FaultFunc func(op string, item *cms.Item) error

// FakeStore is an in-memory cms.Store. It is safe for concurrent use.
type FakeStore struct {
	mu sync.Mutex

	nextID     int64
	items      map[int64]cms.Item
	folders    map[string]int64
	taxonomies map[string]int64
	assocs     map[int64][]cms.TaxonomyAssociation
	nextAssoc  int64

	username string
	password string
	token    string

	calls    map[string]int
	searches []cms.SearchRequest
	queued   map[string][]error
	fault    FaultFunc
}

// NewFakeStore returns an empty store accepting the credentials
// importer/secret.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		nextID:     1000,
		items:      make(map[int64]cms.Item),
		folders:    make(map[string]int64),
		taxonomies: make(map[string]int64),
		assocs:     make(map[int64][]cms.TaxonomyAssociation),
		nextAssoc:  1,
		username:   "importer",
		password:   "secret",
		token:      "fake-token",
		calls:      make(map[string]int),
		queued:     make(map[string][]error),
	}
}

// AddFolder registers a folder path and returns its id.
func (s *FakeStore) AddFolder(path string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.folders[path]; ok {
		return id
	}
	id := int64(len(s.folders) + 1)
	s.folders[path] = id
	return id
}

// AddTaxonomy registers a taxonomy path and returns its id.
func (s *FakeStore) AddTaxonomy(path string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.taxonomies[path]; ok {
		return id
	}
	id := int64(500 + len(s.taxonomies))
	s.taxonomies[path] = id
	return id
}

// Seed stores item as-is, assigning an id when it has none.
func (s *FakeStore) Seed(item cms.Item) cms.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == 0 {
		s.nextID++
		item.ID = s.nextID
	} else if item.ID > s.nextID {
		s.nextID = item.ID
	}
	s.items[item.ID] = item.Clone()
	return item
}

// SeedAssociation records an existing taxonomy association.
func (s *FakeStore) SeedAssociation(contentID, taxonomyID int64) cms.TaxonomyAssociation {
	s.mu.Lock()
	defer s.mu.Unlock()
	assoc := cms.TaxonomyAssociation{ID: s.nextAssoc, ContentID: contentID, TaxonomyID: taxonomyID}
	s.nextAssoc++
	s.assocs[contentID] = append(s.assocs[contentID], assoc)
	return assoc
}

// SetCredentials changes the accepted login.
func (s *FakeStore) SetCredentials(username, password, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username, s.password, s.token = username, password, token
}

// Token returns the token issued on successful authentication.
func (s *FakeStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// FailNext queues errors returned by the next calls of op, in order.
func (s *FakeStore) FailNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued[op] = append(s.queued[op], errs...)
}

// FailWith installs a fault hook consulted after queued faults.
func (s *FakeStore) FailWith(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

// Calls returns how many times op was invoked, including failed calls.
func (s *FakeStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of remote calls of every kind.
func (s *FakeStore) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Searches returns the search requests received so far.
func (s *FakeStore) Searches() []cms.SearchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cms.SearchRequest(nil), s.searches...)
}

// Items returns stored items ordered by id.
func (s *FakeStore) Items() []cms.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// Item returns the stored item with id.
func (s *FakeStore) Item(id int64) (cms.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	return item.Clone(), ok
}

// Associations returns the associations recorded for contentID.
func (s *FakeStore) Associations(contentID int64) []cms.TaxonomyAssociation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cms.TaxonomyAssociation(nil), s.assocs[contentID]...)
}

func (s *FakeStore) sortedLocked() []cms.Item {
	items := make([]cms.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item.Clone())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// enter counts the call and returns an injected fault, if any. The caller
// must hold s.mu.
func (s *FakeStore) enter(op string, item *cms.Item) error {
	s.calls[op]++
	if queue := s.queued[op]; len(queue) > 0 {
		err := queue[0]
		s.queued[op] = queue[1:]
		if err != nil {
			return err
		}
	}
	if s.fault != nil {
		return s.fault(op, item)
	}
	return nil
}

func (s *FakeStore) SearchContent(ctx context.Context, req cms.SearchRequest) ([]cms.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches = append(s.searches, req)
	if err := s.enter(OpSearch, nil); err != nil {
		return nil, err
	}
	var matched []cms.Item
	for _, item := range s.sortedLocked() {
		if !req.Predicate.Matches(item) {
			continue
		}
		if !req.IncludeMetadata {
			item.Metadata = nil
		}
		matched = append(matched, item)
	}
	return matched, nil
}

func (s *FakeStore) AddContent(ctx context.Context, item *cms.Item) (*cms.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpAdd, item); err != nil {
		return nil, err
	}
	stored := item.Clone()
	s.nextID++
	stored.ID = s.nextID
	s.items[stored.ID] = stored
	created := stored.Clone()
	return &created, nil
}

func (s *FakeStore) UpdateContent(ctx context.Context, item *cms.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpUpdate, item); err != nil {
		return err
	}
	if _, ok := s.items[item.ID]; !ok {
		return services.Wrap(services.ErrNotFound, "fakestore", "update content", "unknown item", nil)
	}
	s.items[item.ID] = item.Clone()
	return nil
}

func (s *FakeStore) ResolveFolder(ctx context.Context, path string) (cms.Folder, bool, error) {
	if err := ctx.Err(); err != nil {
		return cms.Folder{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpResolveFolder, nil); err != nil {
		return cms.Folder{}, false, err
	}
	id, ok := s.folders[path]
	if !ok {
		return cms.Folder{}, false, nil
	}
	return cms.Folder{ID: id, Path: path}, true, nil
}

func (s *FakeStore) ResolveTaxonomy(ctx context.Context, path string) (cms.Taxonomy, bool, error) {
	if err := ctx.Err(); err != nil {
		return cms.Taxonomy{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpResolveTaxonomy, nil); err != nil {
		return cms.Taxonomy{}, false, err
	}
	id, ok := s.taxonomies[path]
	if !ok {
		return cms.Taxonomy{}, false, nil
	}
	return cms.Taxonomy{ID: id, Path: path}, true, nil
}

func (s *FakeStore) ListTaxonomyAssociations(ctx context.Context, itemID int64) ([]cms.TaxonomyAssociation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListAssociations, nil); err != nil {
		return nil, err
	}
	return append([]cms.TaxonomyAssociation(nil), s.assocs[itemID]...), nil
}

// AddTaxonomyAssociation upserts: an association with a known id replaces
// the stored one, otherwise a new association is appended.
func (s *FakeStore) AddTaxonomyAssociation(ctx context.Context, assoc cms.TaxonomyAssociation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpAddAssociation, nil); err != nil {
		return err
	}
	current := s.assocs[assoc.ContentID]
	for i := range current {
		if assoc.ID != 0 && current[i].ID == assoc.ID {
			current[i] = assoc
			return nil
		}
	}
	if assoc.ID == 0 {
		assoc.ID = s.nextAssoc
		s.nextAssoc++
	}
	s.assocs[assoc.ContentID] = append(current, assoc)
	return nil
}

func (s *FakeStore) Authenticate(ctx context.Context, username, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpAuthenticate, nil); err != nil {
		return "", err
	}
	if username != s.username || password != s.password {
		return "", services.Wrap(services.ErrAuthorization, "fakestore", "authenticate", "invalid credentials", nil)
	}
	return s.token, nil
}
