package chi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db/memory"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/mapping"
	"github.com/kailas-cloud/facetdex/internal/repository/definition"
	docrepo "github.com/kailas-cloud/facetdex/internal/repository/document"
	"github.com/kailas-cloud/facetdex/internal/repository/reference"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/facetdex/internal/usecase/index"
	queryuc "github.com/kailas-cloud/facetdex/internal/usecase/query"
)

func testTypes() map[string][]field.Descriptor {
	return map[string][]field.Descriptor{
		"book": {
			field.Reconstruct("id", "", field.String, field.Term, true, true),
			field.Reconstruct("title", "", field.String, field.FullText, false, true),
			field.Reconstruct("genre", "", field.String, field.Term, false, false),
			field.Reconstruct("year", "pub_year", field.Int, field.Sort, false, false),
		},
		"author": {
			field.Reconstruct("id", "", field.String, field.Term, true, true),
			field.Reconstruct("name", "", field.String, field.FullText, false, true),
		},
	}
}

// newTestHandler wires the full API over the in-memory backend.
func newTestHandler(t *testing.T, apiKeys ...string) http.Handler {
	t.Helper()
	store := memory.NewStore()
	registry := mapping.NewRegistry()
	defs := definition.NewCache(definition.NewStatic(testTypes()))
	indexes := indexuc.New(defs, definition.New(store), store, registry)

	srv := NewServer(Deps{
		Queries:     queryuc.New(defs, store, registry, queryuc.Config{}, nil),
		Indexes:     indexes,
		Definitions: defs,
		Documents:   docrepo.New(store, registry),
		References:  reference.New(store, nil, nil),
		Health:      healthuc.New(store, indexes, []string{"author", "book"}),
	}, nil)
	return NewRouter(srv, apiKeys)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// seed provisions both indexes and loads a small catalog.
func seed(t *testing.T, h http.Handler) {
	t.Helper()
	for _, typ := range []string{"book", "author"} {
		if rr := doJSON(t, h, http.MethodPut, "/api/v1/indexes/"+typ, nil); rr.Code != http.StatusCreated {
			t.Fatalf("ensure %s: got %d: %s", typ, rr.Code, rr.Body.String())
		}
	}
	books := bulkRequest{Index: []map[string]string{
		{"id": "b1", "title": "Dune", "genre": "sf", "year": "1965"},
		{"id": "b2", "title": "Hyperion", "genre": "sf", "year": "1989"},
		{"id": "b3", "title": "Emma", "genre": "classic", "year": "1815"},
	}}
	if rr := doJSON(t, h, http.MethodPost, "/api/v1/documents/book/bulk", books); rr.Code != http.StatusOK {
		t.Fatalf("bulk books: got %d: %s", rr.Code, rr.Body.String())
	}
	authors := bulkRequest{Index: []map[string]string{
		{"id": "a1", "name": "Frank Herbert"},
		{"id": "a2", "name": "Jane Austen"},
	}}
	if rr := doJSON(t, h, http.MethodPost, "/api/v1/documents/author/bulk", authors); rr.Code != http.StatusOK {
		t.Fatalf("bulk authors: got %d: %s", rr.Code, rr.Body.String())
	}
}
