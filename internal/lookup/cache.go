package lookup

import (
	"context"
	"log/slog"
	"sync"

	"cmsimport/internal/cms"
	"cmsimport/internal/logging"
)

// NotFound is returned and cached for paths the store cannot resolve.
const NotFound int64 = -1

// ResolveFunc resolves a path to an identifier. ok is false when the store
// has no such path.
type ResolveFunc func(ctx context.Context, path string) (id int64, ok bool, err error)

// FolderResolver is the subset of cms.Store used by folder caches.
type FolderResolver interface {
	ResolveFolder(ctx context.Context, path string) (cms.Folder, bool, error)
}

// TaxonomyResolver is the subset of cms.Store used by taxonomy caches.
type TaxonomyResolver interface {
	ResolveTaxonomy(ctx context.Context, path string) (cms.Taxonomy, bool, error)
}

// Cache provides thread-safe memoized lookups. Concurrent misses on the same
// path may each call the resolver; the last result wins.
type Cache struct {
	kind    string
	resolve ResolveFunc
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[string]int64
}

// New creates a cache around resolve. kind labels log lines ("folder", "taxonomy").
func New(kind string, resolve ResolveFunc, logger *slog.Logger) *Cache {
	return &Cache{
		kind:    kind,
		resolve: resolve,
		logger:  logging.NewComponentLogger(logger, kind+"cache"),
		entries: make(map[string]int64),
	}
}

// NewFolderCache binds a cache to the store's folder lookup.
func NewFolderCache(store FolderResolver, logger *slog.Logger) *Cache {
	return New("folder", func(ctx context.Context, path string) (int64, bool, error) {
		folder, ok, err := store.ResolveFolder(ctx, path)
		return folder.ID, ok, err
	}, logger)
}

// NewTaxonomyCache binds a cache to the store's taxonomy lookup.
func NewTaxonomyCache(store TaxonomyResolver, logger *slog.Logger) *Cache {
	return New("taxonomy", func(ctx context.Context, path string) (int64, bool, error) {
		taxonomy, ok, err := store.ResolveTaxonomy(ctx, path)
		return taxonomy.ID, ok, err
	}, logger)
}

// ID returns the identifier for path, or NotFound when the store has no such
// path. A resolver error is returned unchanged and is not cached, so the
// caller can classify and retry it.
func (c *Cache) ID(ctx context.Context, path string) (int64, error) {
	c.mu.RLock()
	id, found := c.entries[path]
	c.mu.RUnlock()
	if found {
		return id, nil
	}

	resolved, ok, err := c.resolve(ctx, path)
	if err != nil {
		c.logger.Debug("path lookup failed",
			logging.String("path", path),
			logging.Error(err),
		)
		return NotFound, err
	}
	if !ok || resolved <= 0 {
		resolved = NotFound
		c.logger.Debug("path not found in store", logging.String("path", path))
	}

	c.mu.Lock()
	c.entries[path] = resolved
	c.mu.Unlock()
	return resolved, nil
}

// Len returns the number of cached paths, including negative entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every cached entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]int64)
	c.mu.Unlock()
}
