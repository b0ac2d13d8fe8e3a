package testsupport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"cmsimport/internal/cms"
	"cmsimport/internal/services"
)

// NewCMSServer serves the CMS HTTP API backed by store. The server is closed
// when the test ends.
func NewCMSServer(t testing.TB, store *FakeStore) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+store.Token() {
				http.Error(w, "missing or invalid token", http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /auth/token", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		token, err := store.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]string{"token": token})
	})
	mux.HandleFunc("POST /content/search", authed(func(w http.ResponseWriter, r *http.Request) {
		var req cms.SearchRequest
		if !decode(w, r, &req) {
			return
		}
		items, err := store.SearchContent(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"items": items})
	}))
	mux.HandleFunc("POST /content", authed(func(w http.ResponseWriter, r *http.Request) {
		var item cms.Item
		if !decode(w, r, &item) {
			return
		}
		created, err := store.AddContent(r.Context(), &item)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, created)
	}))
	mux.HandleFunc("PUT /content/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		var item cms.Item
		if !decode(w, r, &item) {
			return
		}
		if err := store.UpdateContent(r.Context(), &item); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /folders", authed(func(w http.ResponseWriter, r *http.Request) {
		folder, ok, err := store.ResolveFolder(r.Context(), r.URL.Query().Get("path"))
		switch {
		case err != nil:
			writeError(w, err)
		case !ok:
			http.NotFound(w, r)
		default:
			writeJSON(w, folder)
		}
	}))
	mux.HandleFunc("GET /taxonomies", authed(func(w http.ResponseWriter, r *http.Request) {
		taxonomy, ok, err := store.ResolveTaxonomy(r.Context(), r.URL.Query().Get("path"))
		switch {
		case err != nil:
			writeError(w, err)
		case !ok:
			http.NotFound(w, r)
		default:
			writeJSON(w, taxonomy)
		}
	}))
	mux.HandleFunc("GET /content/{id}/taxonomy", authed(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		assocs, err := store.ListTaxonomyAssociations(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"items": assocs})
	}))
	mux.HandleFunc("POST /taxonomy-items", authed(func(w http.ResponseWriter, r *http.Request) {
		var assoc cms.TaxonomyAssociation
		if !decode(w, r, &assoc) {
			return
		}
		if err := store.AddTaxonomyAssociation(r.Context(), assoc); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, services.ErrAuthorization):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrCommunication):
		status = http.StatusServiceUnavailable
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}
