package cms_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cmsimport/internal/cms"
	"cmsimport/internal/services"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc) *cms.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := cms.NewClient(cms.Config{BaseURL: server.URL + "/api"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	client.UseTokens(staticToken("tok"))
	return client
}

func TestAuthenticatePostsCredentialsWithoutBearer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/token" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatal("authentication must not send a bearer token")
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["username"] != "svc" || body["password"] != "pw" {
			t.Fatalf("unexpected credentials %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "abc"})
	})

	token, err := client.Authenticate(context.Background(), "svc", "pw")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if token != "abc" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestSearchContentSendsPredicate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/content/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		var req cms.SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode search: %v", err)
		}
		if !req.IncludeMetadata || req.Predicate.TermCount() != 3 {
			t.Fatalf("unexpected search request %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []cms.Item{{ID: 7, Title: "About", FolderPath: "/site"}},
		})
	})

	items, err := client.SearchContent(context.Background(), cms.SearchRequest{
		Predicate: cms.Predicate{Clauses: []cms.Clause{
			cms.IDClause(7),
			cms.TitlePathClause("About", "/site"),
		}},
		IncludeMetadata: true,
	})
	if err != nil {
		t.Fatalf("SearchContent returned error: %v", err)
	}
	if len(items) != 1 || items[0].ID != 7 {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestSearchContentEmptyPredicateSkipsRequest(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected for empty predicate")
	})
	items, err := client.SearchContent(context.Background(), cms.SearchRequest{})
	if err != nil || len(items) != 0 {
		t.Fatalf("items=%v err=%v", items, err)
	}
}

func TestAddAndUpdateContent(t *testing.T) {
	var updatedPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/content":
			var item cms.Item
			_ = json.NewDecoder(r.Body).Decode(&item)
			if item.Asset == nil || string(item.Asset.Data) != "PDF" {
				t.Fatalf("asset payload not transmitted: %+v", item.Asset)
			}
			item.ID = 101
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(item)
		case r.Method == http.MethodPut:
			updatedPath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	created, err := client.AddContent(context.Background(), &cms.Item{
		Title:       "brochure",
		ContentType: cms.ContentAsset,
		Asset:       &cms.Asset{FileName: "b.pdf", Data: []byte("PDF")},
	})
	if err != nil {
		t.Fatalf("AddContent returned error: %v", err)
	}
	if created.ID != 101 {
		t.Fatalf("unexpected created id %d", created.ID)
	}
	if err := client.UpdateContent(context.Background(), created); err != nil {
		t.Fatalf("UpdateContent returned error: %v", err)
	}
	if updatedPath != "/api/content/101" {
		t.Fatalf("unexpected update path %q", updatedPath)
	}
	if err := client.UpdateContent(context.Background(), &cms.Item{}); err == nil {
		t.Fatal("expected error for update without id")
	}
}

func TestResolveFolderNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("path") == "/site/about" {
			_ = json.NewEncoder(w).Encode(cms.Folder{ID: 12, Path: "/site/about"})
			return
		}
		http.NotFound(w, r)
	})

	folder, ok, err := client.ResolveFolder(context.Background(), "/site/about")
	if err != nil || !ok || folder.ID != 12 {
		t.Fatalf("folder=%+v ok=%v err=%v", folder, ok, err)
	}
	_, ok, err = client.ResolveFolder(context.Background(), "/missing")
	if err != nil || ok {
		t.Fatalf("missing folder: ok=%v err=%v", ok, err)
	}
}

func TestTaxonomyEndpoints(t *testing.T) {
	var added cms.TaxonomyAssociation
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/taxonomies":
			_ = json.NewEncoder(w).Encode(cms.Taxonomy{ID: 5, Path: r.URL.Query().Get("path")})
		case r.URL.Path == "/api/content/9/taxonomy":
			_ = json.NewEncoder(w).Encode(map[string]any{"items": []cms.TaxonomyAssociation{{ID: 1, ContentID: 9, TaxonomyID: 5}}})
		case r.URL.Path == "/api/taxonomy-items" && r.Method == http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&added)
			w.WriteHeader(http.StatusCreated)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	tax, ok, err := client.ResolveTaxonomy(context.Background(), "/Topics/News")
	if err != nil || !ok || tax.ID != 5 || tax.Path != "/Topics/News" {
		t.Fatalf("taxonomy=%+v ok=%v err=%v", tax, ok, err)
	}
	assocs, err := client.ListTaxonomyAssociations(context.Background(), 9)
	if err != nil || len(assocs) != 1 {
		t.Fatalf("assocs=%v err=%v", assocs, err)
	}
	if err := client.AddTaxonomyAssociation(context.Background(), cms.TaxonomyAssociation{ContentID: 9, TaxonomyID: 6}); err != nil {
		t.Fatalf("AddTaxonomyAssociation returned error: %v", err)
	}
	if added.ContentID != 9 || added.TaxonomyID != 6 {
		t.Fatalf("unexpected association payload %+v", added)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		marker error
	}{
		{http.StatusUnauthorized, services.ErrAuthorization},
		{http.StatusForbidden, services.ErrAuthorization},
		{http.StatusRequestTimeout, services.ErrTimeout},
		{http.StatusGatewayTimeout, services.ErrTimeout},
		{http.StatusBadGateway, services.ErrCommunication},
		{http.StatusServiceUnavailable, services.ErrCommunication},
		{http.StatusBadRequest, nil},
		{http.StatusInternalServerError, nil},
		{http.StatusNotFound, nil},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			})
			err := client.UpdateContent(context.Background(), &cms.Item{ID: 1})
			if err == nil {
				t.Fatal("expected error")
			}
			var statusErr *cms.StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != tc.status {
				t.Fatalf("expected StatusError with %d, got %v", tc.status, err)
			}
			if !strings.Contains(err.Error(), "nope") {
				t.Fatalf("expected body snippet in %q", err)
			}
			for _, marker := range []error{services.ErrAuthorization, services.ErrTimeout, services.ErrCommunication, services.ErrNotFound} {
				if errors.Is(err, marker) != (marker == tc.marker) {
					t.Fatalf("status %d: errors.Is(%v) mismatch for %v", tc.status, marker, err)
				}
			}
		})
	}
}

func TestTransportTimeoutIsMarked(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})
	client, err := cms.NewClient(cms.Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = client.SearchContent(context.Background(), cms.SearchRequest{Predicate: cms.Predicate{Clauses: []cms.Clause{cms.IDClause(1)}}})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestConnectionRefusedIsCommunication(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := cms.NewClient(cms.Config{BaseURL: url})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	err = client.UpdateContent(context.Background(), &cms.Item{ID: 1})
	if !errors.Is(err, services.ErrCommunication) {
		t.Fatalf("expected communication marker, got %v", err)
	}
}

func TestNewClientRequiresAbsoluteURL(t *testing.T) {
	for _, base := range []string{"", "cms.local/api"} {
		if _, err := cms.NewClient(cms.Config{BaseURL: base}); err == nil {
			t.Fatalf("expected error for base url %q", base)
		}
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)
	client, err := cms.NewClient(cms.Config{BaseURL: server.URL, RateLimit: 0.001, RateBurst: 1})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := client.UpdateContent(context.Background(), &cms.Item{ID: 1}); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := client.UpdateContent(ctx, &cms.Item{ID: 1}); err == nil {
		t.Fatal("expected limiter wait to fail once the context expires")
	}
}

func TestPredicateMatching(t *testing.T) {
	item := cms.Item{ID: 3, Title: "About", FolderPath: "/site"}
	pred := cms.Predicate{Clauses: []cms.Clause{cms.IDClause(9), cms.TitlePathClause("About", "/site")}}
	if !pred.Matches(item) {
		t.Fatal("expected natural key clause to match")
	}
	if cms.TitlePathClause("About", "/other").Matches(item) {
		t.Fatal("path mismatch should not match")
	}
	if (cms.Predicate{}).Matches(item) {
		t.Fatal("empty predicate matches nothing")
	}
	if pred.TermCount() != 3 {
		t.Fatalf("unexpected term count %d", pred.TermCount())
	}
}

func TestItemCloneIsDeep(t *testing.T) {
	orig := cms.Item{
		Asset:    &cms.Asset{Data: []byte("abc")},
		Metadata: []cms.MetadataField{{Name: "Author", Text: "a"}},
	}
	clone := orig.Clone()
	clone.Asset.Data[0] = 'z'
	clone.MetadataByName("Author").Text = "b"
	if string(orig.Asset.Data) != "abc" || orig.Metadata[0].Text != "a" {
		t.Fatalf("clone shares state with original: %+v", orig)
	}
}
