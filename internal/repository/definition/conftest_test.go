package definition

import (
	"context"
	"sync"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	delFn         func(ctx context.Context, key string) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	alterIndexFn  func(ctx context.Context, name string, f db.IndexField) error
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) AlterIndex(ctx context.Context, name string, f db.IndexField) error {
	if m.alterIndexFn != nil {
		return m.alterIndexFn(ctx, name, f)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testFields() []field.Descriptor {
	return []field.Descriptor{
		field.Reconstruct("id", "", field.String, field.Term, true, true),
		field.Reconstruct("title", "", field.String, field.FullText, false, true),
		field.Reconstruct("year", "pub_year", field.Int, field.Sort, false, false),
	}
}

func testDefinition(t *testing.T) *document.Definition {
	t.Helper()
	def, err := document.New("book", testFields())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return def
}

// countingDescriber counts Describe calls and optionally blocks until released.
type countingDescriber struct {
	mu      sync.Mutex
	calls   map[string]int
	types   map[string][]field.Descriptor
	release chan struct{}
	started chan struct{}
}

func newCountingDescriber(types map[string][]field.Descriptor) *countingDescriber {
	return &countingDescriber{calls: make(map[string]int), types: types}
}

func (d *countingDescriber) Describe(ctx context.Context, docType string) ([]field.Descriptor, error) {
	d.mu.Lock()
	d.calls[docType]++
	started, release := d.started, d.release
	d.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fields, ok := d.types[docType]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return fields, nil
}

func (d *countingDescriber) count(docType string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[docType]
}

type countingObserver struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (o *countingObserver) CacheHit(string) {
	o.mu.Lock()
	o.hits++
	o.mu.Unlock()
}

func (o *countingObserver) CacheMiss(string) {
	o.mu.Lock()
	o.misses++
	o.mu.Unlock()
}
