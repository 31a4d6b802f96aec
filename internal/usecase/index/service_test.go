package index

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/mapping"
	"github.com/kailas-cloud/facetdex/internal/repository/definition"
)

func TestMapping_SortedByName(t *testing.T) {
	f := newFixture(t, map[string][]field.Descriptor{"book": bookFields()})

	idx, err := f.svc.Mapping(context.Background(), "book")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "facetdex:book:idx" {
		t.Errorf("expected index name facetdex:book:idx, got %s", idx.Name)
	}
	if len(idx.Prefixes) != 1 || idx.Prefixes[0] != "facetdex:book:" {
		t.Errorf("unexpected prefixes %v", idx.Prefixes)
	}

	// sorted by field name, declared under storage name
	want := []string{"available", "id", "isbn", "pub_year", "title"}
	if len(idx.Fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(idx.Fields))
	}
	for i, name := range want {
		if idx.Fields[i].Name != name {
			t.Errorf("field %d: expected %s, got %s", i, name, idx.Fields[i].Name)
		}
	}

	title, _ := idx.Field("title")
	if title.Type != db.IndexFieldText || title.Analyzer != db.AnalyzerText || title.SearchAnalyzer != db.AnalyzerSearchText {
		t.Errorf("unexpected title mapping %+v", title)
	}
	year, _ := idx.Field("pub_year")
	if year.Type != db.IndexFieldNumeric || !year.Sortable {
		t.Errorf("unexpected year mapping %+v", year)
	}
	isbn, _ := idx.Field("isbn")
	if !isbn.NoIndex {
		t.Errorf("expected isbn NOINDEX, got %+v", isbn)
	}
}

func TestMapping_UnknownType(t *testing.T) {
	f := newFixture(t, map[string][]field.Descriptor{"book": bookFields()})

	_, err := f.svc.Mapping(context.Background(), "movie")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsure_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]field.Descriptor{"book": bookFields()})

	created, err := f.svc.Ensure(ctx, "book")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected index to be created")
	}
	if ok, _ := f.store.IndexExists(ctx, "facetdex:book:idx"); !ok {
		t.Error("expected index in store")
	}
	meta, _ := f.store.HGetAll(ctx, "facetdex-meta:definition:book")
	if meta["revision"] != "1" {
		t.Errorf("expected stored definition revision 1, got %q", meta["revision"])
	}

	created, err = f.svc.Ensure(ctx, "book")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected existing index to be kept")
	}
}

func TestEnsure_ConcurrentCreateTolerated(t *testing.T) {
	repo := &failingRepo{err: db.ErrIndexExists}
	svc := New(
		definition.NewCache(definition.NewStatic(map[string][]field.Descriptor{"book": bookFields()})),
		repo, neverExists{}, mapping.NewRegistry(),
	)

	created, err := svc.Ensure(context.Background(), "book")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected created=false")
	}
	if repo.calls != 1 {
		t.Errorf("expected 1 provision call, got %d", repo.calls)
	}
}

func TestEnsure_ProvisionError(t *testing.T) {
	boom := errors.New("boom")
	svc := New(
		definition.NewCache(definition.NewStatic(map[string][]field.Descriptor{"book": bookFields()})),
		&failingRepo{err: boom}, neverExists{}, mapping.NewRegistry(),
	)

	if _, err := svc.Ensure(context.Background(), "book"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestDeclareField(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]field.Descriptor{"book": bookFields()})
	if _, err := f.svc.Ensure(ctx, "book"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.DeclareField(ctx, "book", "year"); !errors.Is(err, db.ErrFieldExists) {
		t.Errorf("expected ErrFieldExists, got %v", err)
	}

	if _, err := f.svc.DeclareField(ctx, "book", "pages"); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestDeclareField_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{}
	cache := definition.NewCache(definition.NewStatic(map[string][]field.Descriptor{"book": bookFields()}))
	svc := New(cache, repo, neverExists{}, mapping.NewRegistry())

	before, err := cache.Get(ctx, "book")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decl, err := svc.DeclareField(ctx, "book", "year")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decl.Name != "pub_year" || decl.Type != db.IndexFieldNumeric {
		t.Errorf("unexpected declaration %+v", decl)
	}
	after, err := cache.Get(ctx, "book")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if before == after {
		t.Error("expected cache entry to be rebuilt")
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]field.Descriptor{"book": bookFields()})
	if _, err := f.svc.Ensure(ctx, "book"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.svc.Verify(ctx, []string{"book"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := f.svc.Verify(ctx, []string{"book", "author"}); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

type neverExists struct{}

func (neverExists) IndexExists(context.Context, string) (bool, error) { return false, nil }
