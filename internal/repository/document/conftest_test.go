package document

import (
	"context"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/mapping"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn func(ctx context.Context, items []db.HashSetItem) error
	delMultiFn  func(ctx context.Context, keys []string) (int, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) DelMulti(ctx context.Context, keys []string) (int, error) {
	if m.delMultiFn != nil {
		return m.delMultiFn(ctx, keys)
	}
	return len(keys), nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, mapping.NewRegistry()), ms
}

func testDefinition(t *testing.T) *domdoc.Definition {
	t.Helper()
	def, err := domdoc.New("book", []field.Descriptor{
		field.Reconstruct("id", "", field.String, field.Term, true, true),
		field.Reconstruct("title", "", field.String, field.FullText, false, true),
		field.Reconstruct("year", "pub_year", field.Int, field.Sort, false, false),
		field.Reconstruct("published", "", field.Date, field.Sort, false, false),
		field.Reconstruct("in_stock", "", field.Bool, field.Term, false, false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return def
}
