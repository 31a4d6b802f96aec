package chi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain"
)

func TestEnsureIndex(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodPut, "/api/v1/indexes/book", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("first ensure: got %d", rr.Code)
	}
	m := decode[mappingDTO](t, rr)
	if m.Name != "facetdex:book:idx" || len(m.Fields) != 4 {
		t.Errorf("unexpected mapping %+v", m)
	}

	if rr := doJSON(t, h, http.MethodPut, "/api/v1/indexes/book", nil); rr.Code != http.StatusOK {
		t.Errorf("second ensure: got %d, want 200", rr.Code)
	}
}

func TestGetMapping(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodGet, "/api/v1/mappings/book", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	m := decode[mappingDTO](t, rr)
	// sorted by field name, storage names on the wire
	want := []string{"genre", "id", "title", "pub_year"}
	for i, name := range want {
		if m.Fields[i].Name != name {
			t.Errorf("field %d: got %s, want %s", i, m.Fields[i].Name, name)
		}
	}
	if m.Fields[2].Type != "TEXT" || m.Fields[2].SearchAnalyzer != "search_text" {
		t.Errorf("unexpected title mapping %+v", m.Fields[2])
	}

	rr = doJSON(t, h, http.MethodGet, "/api/v1/mappings/movie", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown type: got %d, want 404", rr.Code)
	}
}

func TestMultiSearch(t *testing.T) {
	h := newTestHandler(t)
	seed(t, h)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/search", multiSearchRequest{Queries: []queryEntry{
		{Code: "books", Label: "Books", Type: "book", Input: inputDTO{
			Facets: []facetDTO{{Code: "genre", Label: "Genre", Field: "genre"}},
		}},
		{Code: "authors", Label: "Authors", Type: "author"},
	}})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	out := decode[outputDTO](t, rr)

	if out.TotalCount != 5 {
		t.Errorf("total count: got %d, want 5", out.TotalCount)
	}
	if len(out.Groups) != 2 || out.Groups[0].Code != "books" || out.Groups[1].Code != "authors" {
		t.Fatalf("unexpected groups %+v", out.Groups)
	}
	if out.Groups[0].Total != 3 || len(out.Groups[0].Items) != 3 {
		t.Errorf("books: got total %d with %d items", out.Groups[0].Total, len(out.Groups[0].Items))
	}
	if len(out.Facets) != 1 || out.Facets[0].Code != "FCT_SCOPE" {
		t.Fatalf("expected scope facet, got %+v", out.Facets)
	}
	if len(out.Groups[0].Facets) != 1 || out.Groups[0].Facets[0].Items[0].Code != "sf" {
		t.Errorf("unexpected genre facet %+v", out.Groups[0].Facets)
	}
}

func TestMultiSearch_DuplicateCode(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/search", multiSearchRequest{Queries: []queryEntry{
		{Code: "x", Type: "book"},
		{Code: "x", Type: "author"},
	}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if e := decode[errorResponse](t, rr); e.Code != codeConfiguration {
		t.Errorf("error code: got %s, want %s", e.Code, codeConfiguration)
	}
}

func TestSearch_ReferenceLabels(t *testing.T) {
	h := newTestHandler(t)
	seed(t, h)

	if rr := doJSON(t, h, http.MethodPut, "/api/v1/references/genres",
		map[string]string{"sf": "Science fiction"}); rr.Code != http.StatusNoContent {
		t.Fatalf("save reference: got %d", rr.Code)
	}

	rr := doJSON(t, h, http.MethodPost, "/api/v1/search/book", inputDTO{
		Criteria: []criterionDTO{{Filters: []predicateDTO{{Field: "genre", Op: "eq", Value: "sf"}}}},
		Facets:   []facetDTO{{Code: "genre", Label: "Genre", Field: "genre", Reference: "genres"}},
		Sort:     &sortDTO{Field: "year", Desc: true},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	out := decode[outputDTO](t, rr)

	if out.TotalCount != 2 {
		t.Errorf("total: got %d, want 2", out.TotalCount)
	}
	first, ok := out.Groups[0].Items[0].(map[string]any)
	if !ok || first["id"] != "b2" {
		t.Errorf("expected b2 first by year desc, got %v", out.Groups[0].Items[0])
	}
	genre := out.Facets[0]
	if genre.Items[0].Code != "sf" || genre.Items[0].Label != "Science fiction" {
		t.Errorf("unexpected genre items %+v", genre.Items)
	}
}

func TestSearch_InvalidInput(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"malformed json", "{", http.StatusBadRequest},
		{"unknown op", inputDTO{Criteria: []criterionDTO{{Filters: []predicateDTO{{Field: "genre", Op: "like"}}}}},
			http.StatusBadRequest},
		{"unknown field", inputDTO{Criteria: []criterionDTO{{Filters: []predicateDTO{{Field: "pages", Op: "eq", Value: "1"}}}}},
			http.StatusBadRequest},
		{"unknown facet kind", inputDTO{Facets: []facetDTO{{Code: "g", Label: "G", Field: "genre", Kind: "tree"}}},
			http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodPost, "/api/v1/search/book", tt.body)
			if rr.Code != tt.want {
				t.Errorf("got %d, want %d: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestBulk_Validation(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/documents/book/bulk", bulkRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty bulk: got %d, want 400", rr.Code)
	}

	rr = doJSON(t, h, http.MethodPost, "/api/v1/documents/book/bulk", bulkRequest{
		Index: []map[string]string{{"title": "No key"}},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing key: got %d, want 400", rr.Code)
	}

	rr = doJSON(t, h, http.MethodPost, "/api/v1/documents/movie/bulk", bulkRequest{Delete: []string{"m1"}})
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown type: got %d, want 404", rr.Code)
	}
}

func TestDeclareField(t *testing.T) {
	h := newTestHandler(t)
	seed(t, h)

	// already part of the index
	rr := doJSON(t, h, http.MethodPost, "/api/v1/indexes/book/fields/genre", nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("existing field: got %d, want 409", rr.Code)
	}
	rr = doJSON(t, h, http.MethodPost, "/api/v1/indexes/book/fields/pages", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown field: got %d, want 400", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(t)

	if rr := doJSON(t, h, http.MethodGet, "/health", nil); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("before provisioning: got %d, want 503", rr.Code)
	}
	seed(t, h)
	rr := doJSON(t, h, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("after provisioning: got %d, want 200", rr.Code)
	}
	body := decode[map[string]any](t, rr)
	if body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestAuth_Router(t *testing.T) {
	h := newTestHandler(t, "secret")

	if rr := doJSON(t, h, http.MethodGet, "/api/v1/mappings/book", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodGet, "/health", nil); rr.Code == http.StatusUnauthorized {
		t.Error("health must bypass auth")
	}
}

func TestNotFoundRoute(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodGet, "/api/v1/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("got %d, want 404", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestErrorHandlers(t *testing.T) {
	s := NewServer(Deps{}, nil)

	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"configuration", domain.Configf("genre", "unknown facet"), http.StatusBadRequest, codeConfiguration},
		{"not found", domain.ErrNotFound, http.StatusNotFound, codeNotFound},
		{"projection", domain.NewProjectionError("books", 2, errors.New("bad")),
			http.StatusUnprocessableEntity, codeProjection},
		{"backend", domain.NewBackendEntryError("books", errors.New("boom")), http.StatusBadGateway, codeBackend},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, codeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			s.handleDomainError(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody), tt.err)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
			if e := decode[errorResponse](t, rr); e.Code != tt.code {
				t.Errorf("code: got %s, want %s", e.Code, tt.code)
			}
		})
	}
}
