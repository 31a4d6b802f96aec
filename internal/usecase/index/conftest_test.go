package index

import (
	"context"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/db/memory"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/mapping"
	"github.com/kailas-cloud/facetdex/internal/repository/definition"
)

func bookFields() []field.Descriptor {
	return []field.Descriptor{
		field.Reconstruct("title", "", field.String, field.FullText, false, true),
		field.Reconstruct("id", "", field.String, field.Term, true, true),
		field.Reconstruct("year", "pub_year", field.Int, field.Sort, false, false),
		field.Reconstruct("available", "", field.Bool, field.Term, false, false),
		field.Reconstruct("isbn", "", field.String, field.None, false, false),
	}
}

type fixture struct {
	svc   *Service
	store *memory.Store
	cache *definition.Cache
}

func newFixture(t *testing.T, fields map[string][]field.Descriptor) *fixture {
	t.Helper()
	store := memory.NewStore()
	cache := definition.NewCache(definition.NewStatic(fields))
	return &fixture{
		svc:   New(cache, definition.New(store), store, mapping.NewRegistry()),
		store: store,
		cache: cache,
	}
}

// failingRepo fails every provisioning call with err.
type failingRepo struct {
	err   error
	calls int
}

func (r *failingRepo) Provision(context.Context, *document.Definition, *db.IndexDefinition) error {
	r.calls++
	return r.err
}

func (r *failingRepo) AddField(context.Context, *document.Definition, string, db.IndexField) error {
	r.calls++
	return r.err
}
