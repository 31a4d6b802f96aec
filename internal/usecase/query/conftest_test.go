package query

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/db/memory"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/criteria"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/mapping"
	docrepo "github.com/kailas-cloud/facetdex/internal/repository/document"
)

// --- Definitions ---

func bookFields() []field.Descriptor {
	return []field.Descriptor{
		field.Reconstruct("id", "", field.String, field.Term, true, true),
		field.Reconstruct("title", "", field.String, field.FullText, false, true),
		field.Reconstruct("genre", "", field.String, field.Term, false, false),
		field.Reconstruct("year", "pub_year", field.Int, field.Sort, false, false),
		field.Reconstruct("price", "", field.Float, field.Term, false, false),
		field.Reconstruct("available", "", field.Bool, field.Term, false, false),
		field.Reconstruct("isbn", "", field.String, field.None, false, false),
	}
}

func authorFields() []field.Descriptor {
	return []field.Descriptor{
		field.Reconstruct("id", "", field.String, field.Term, true, true),
		field.Reconstruct("name", "", field.String, field.FullText, false, true),
		field.Reconstruct("country", "", field.String, field.Term, false, false),
	}
}

func mustDefinition(t *testing.T, docType string, fields []field.Descriptor) *document.Definition {
	t.Helper()
	def, err := document.New(docType, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return def
}

// staticDefs is an in-memory DefinitionSource.
type staticDefs struct {
	mu   sync.Mutex
	defs map[string]*document.Definition
	gets int
}

func newStaticDefs(t *testing.T) *staticDefs {
	t.Helper()
	return &staticDefs{defs: map[string]*document.Definition{
		"book":   mustDefinition(t, "book", bookFields()),
		"author": mustDefinition(t, "author", authorFields()),
	}}
}

func (s *staticDefs) Get(_ context.Context, docType string) (*document.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	def, ok := s.defs[docType]
	if !ok {
		return nil, fmt.Errorf("document type %q: %w", docType, domain.ErrNotFound)
	}
	return def, nil
}

// --- Backends ---

// mockBackend records batches and answers through fn.
type mockBackend struct {
	mu      sync.Mutex
	fn      func(ctx context.Context, queries []db.NamedQuery) (map[string]*db.Response, error)
	calls   int
	batches [][]db.NamedQuery
}

func (m *mockBackend) ExecuteBatch(ctx context.Context, queries []db.NamedQuery) (map[string]*db.Response, error) {
	m.mu.Lock()
	m.calls++
	m.batches = append(m.batches, queries)
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(ctx, queries)
	}
	out := make(map[string]*db.Response, len(queries))
	for _, q := range queries {
		out[q.Code] = &db.Response{}
	}
	return out, nil
}

// totals answers every entry with the given total and no documents.
func totals(byCode map[string]int64) func(context.Context, []db.NamedQuery) (map[string]*db.Response, error) {
	return func(_ context.Context, queries []db.NamedQuery) (map[string]*db.Response, error) {
		out := make(map[string]*db.Response, len(queries))
		for _, q := range queries {
			out[q.Code] = &db.Response{Total: byCode[q.Code]}
		}
		return out, nil
	}
}

func newTestService(t *testing.T, backend Backend) *Service {
	t.Helper()
	return New(newStaticDefs(t), backend, mapping.NewRegistry(), Config{}, nil)
}

// seedMemory creates the book and author indexes in a memory store and
// indexes a small catalog through the bulk writer.
func seedMemory(t *testing.T) (*memory.Store, *staticDefs) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	defs := newStaticDefs(t)
	registry := mapping.NewRegistry()

	for _, def := range defs.defs {
		b := db.NewIndex(db.IndexName(def.Type())).Prefix(db.KeyPrefix(def.Type()))
		for _, f := range def.Fields() {
			decl, err := registry.For(f).DeclareMapping(f)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			b.Field(decl)
		}
		if err := store.CreateIndex(ctx, b.MustBuild()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	docs := docrepo.New(store, registry)
	_, err := docs.Bulk(defs.defs["book"]).IndexMany([]docrepo.Raw{
		{"id": "b1", "title": "Learning Go", "genre": "tech", "year": "2019", "price": "30", "available": "true", "isbn": "111"},
		{"id": "b2", "title": "Go Programming", "genre": "tech", "year": "2021", "price": "45.5", "available": "false"},
		{"id": "b3", "title": "The Go Detective", "genre": "crime", "year": "2021", "price": "12", "available": "true"},
		{"id": "b4", "title": "Rust in Action", "genre": "tech", "year": "2020"},
		{"id": "b5", "title": "Poems", "year": "1999", "price": "8"},
	}).Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = docs.Bulk(defs.defs["author"]).IndexMany([]docrepo.Raw{
		{"id": "a1", "name": "Alan Donovan", "country": "US"},
		{"id": "a2", "name": "Brian Kernighan", "country": "CA"},
		{"id": "a3", "name": "Agatha Go", "country": "UK"},
	}).Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store, defs
}

// --- Input helpers ---

func mustCriterion(t *testing.T, query string, preds ...criteria.Predicate) criteria.Criterion {
	t.Helper()
	c, err := criteria.New(query, preds...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func mustEq(t *testing.T, f, v string) criteria.Predicate {
	t.Helper()
	p, err := criteria.Eq(f, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func mustTermFacet(t *testing.T, code, f string, opts ...facet.Option) facet.Definition {
	t.Helper()
	d, err := facet.NewTerm(code, code, f, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d
}

func mustExistsFacet(t *testing.T, code, f string) facet.Definition {
	t.Helper()
	d, err := facet.NewExists(code, code, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d
}

func ptr[T any](v T) *T { return &v }

func itemCodes(items []facet.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Code
	}
	return out
}

func itemCount(items []facet.Item, code string) (int64, bool) {
	for _, it := range items {
		if it.Code == code {
			return it.Count, true
		}
	}
	return 0, false
}

func facetByCode(list []facet.Output, code string) facet.Output {
	for _, f := range list {
		if f.Code == code {
			return f
		}
	}
	return facet.Output{}
}
