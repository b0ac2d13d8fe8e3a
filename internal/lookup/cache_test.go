package lookup_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"cmsimport/internal/cms"
	"cmsimport/internal/lookup"
)

type folderStore struct {
	calls   atomic.Int32
	folders map[string]int64
	err     error
}

func (s *folderStore) ResolveFolder(_ context.Context, path string) (cms.Folder, bool, error) {
	s.calls.Add(1)
	if s.err != nil {
		return cms.Folder{}, false, s.err
	}
	id, ok := s.folders[path]
	return cms.Folder{ID: id, Path: path}, ok, nil
}

func mustID(t *testing.T, cache *lookup.Cache, path string) int64 {
	t.Helper()
	id, err := cache.ID(context.Background(), path)
	if err != nil {
		t.Fatalf("ID(%q): %v", path, err)
	}
	return id
}

func TestFolderCacheMemoizesHits(t *testing.T) {
	store := &folderStore{folders: map[string]int64{"/site": 4}}
	cache := lookup.NewFolderCache(store, nil)

	for i := 0; i < 3; i++ {
		if id := mustID(t, cache, "/site"); id != 4 {
			t.Fatalf("unexpected id %d", id)
		}
	}
	if store.calls.Load() != 1 {
		t.Fatalf("expected one remote call, got %d", store.calls.Load())
	}
}

func TestFolderCacheCachesNotFound(t *testing.T) {
	store := &folderStore{folders: map[string]int64{}}
	cache := lookup.NewFolderCache(store, nil)

	if id := mustID(t, cache, "/missing"); id != lookup.NotFound {
		t.Fatalf("expected NotFound, got %d", id)
	}
	if id := mustID(t, cache, "/missing"); id != lookup.NotFound {
		t.Fatalf("expected cached NotFound, got %d", id)
	}
	if store.calls.Load() != 1 || cache.Len() != 1 {
		t.Fatalf("calls=%d len=%d, want 1 and 1", store.calls.Load(), cache.Len())
	}
}

func TestFolderCacheDoesNotCacheErrors(t *testing.T) {
	resetErr := errors.New("connection reset")
	store := &folderStore{folders: map[string]int64{"/site": 8}, err: resetErr}
	cache := lookup.NewFolderCache(store, nil)

	id, err := cache.ID(context.Background(), "/site")
	if !errors.Is(err, resetErr) {
		t.Fatalf("expected the resolver error, got %v", err)
	}
	if id != lookup.NotFound {
		t.Fatalf("expected NotFound on error, got %d", id)
	}
	if cache.Len() != 0 {
		t.Fatal("errors must not be cached")
	}
	store.err = nil
	if id := mustID(t, cache, "/site"); id != 8 {
		t.Fatalf("expected recovery after error, got %d", id)
	}
}

func TestResetClearsEntries(t *testing.T) {
	store := &folderStore{folders: map[string]int64{"/a": 1}}
	cache := lookup.NewFolderCache(store, nil)
	mustID(t, cache, "/a")
	cache.Reset()
	if cache.Len() != 0 {
		t.Fatal("expected empty cache after Reset")
	}
	mustID(t, cache, "/a")
	if store.calls.Load() != 2 {
		t.Fatalf("expected lookup after reset, calls=%d", store.calls.Load())
	}
}

type taxonomyStore struct{}

func (taxonomyStore) ResolveTaxonomy(_ context.Context, path string) (cms.Taxonomy, bool, error) {
	if path == "/Topics/News" {
		return cms.Taxonomy{ID: 31, Path: path}, true, nil
	}
	return cms.Taxonomy{}, false, nil
}

func TestTaxonomyCacheConcurrentAccess(t *testing.T) {
	cache := lookup.NewTaxonomyCache(taxonomyStore{}, nil)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := "/Topics/News"
			want := int64(31)
			if i%2 == 1 {
				path = "/Topics/Other"
				want = lookup.NotFound
			}
			got, err := cache.ID(context.Background(), path)
			if err != nil {
				t.Errorf("ID(%q): %v", path, err)
				return
			}
			if got != want {
				t.Errorf("ID(%q) = %d, want %d", path, got, want)
			}
		}(i)
	}
	wg.Wait()
	if cache.Len() != 2 {
		t.Fatalf("expected two cached paths, got %d", cache.Len())
	}
}
