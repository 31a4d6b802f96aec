package definition

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
)

// store is the consumer interface for persisted definitions (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	AlterIndex(ctx context.Context, name string, f db.IndexField) error
}

// Repo persists document definitions next to their search index.
// It also acts as a Describer for types provisioned at runtime.
type Repo struct {
	store store
}

// New creates a definition repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Describe implements Describer.
func (r *Repo) Describe(ctx context.Context, docType string) ([]field.Descriptor, error) {
	m, err := r.store.HGetAll(ctx, metaKey(docType))
	if err != nil {
		return nil, fmt.Errorf("hgetall definition %s: %w", docType, err)
	}
	if len(m) == 0 {
		return nil, domain.ErrNotFound
	}
	return fieldsFromHash(m)
}

// Provision stores the definition then creates its index (HSET, FT.CREATE).
// On FT.CREATE failure the HSET is rolled back via DEL.
func (r *Repo) Provision(ctx context.Context, def *document.Definition, idx *db.IndexDefinition) error {
	name := def.Type()
	key := metaKey(name)

	prev, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return fmt.Errorf("hgetall definition %s: %w", name, err)
	}

	hashData, err := definitionToHash(def, revisionFromHash(prev)+1)
	if err != nil {
		return err
	}

	if err := r.store.HSet(ctx, key, hashData); err != nil {
		return fmt.Errorf("hset definition %s: %w", name, err)
	}

	if err := r.store.CreateIndex(ctx, idx); err != nil {
		return errors.Join(err, r.restore(ctx, key, prev))
	}
	return nil
}

// AddField stores the extended definition then adds f to the index (FT.ALTER).
// On FT.ALTER failure the previous definition is restored.
func (r *Repo) AddField(ctx context.Context, def *document.Definition, indexName string, f db.IndexField) error {
	name := def.Type()
	key := metaKey(name)

	prev, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return fmt.Errorf("hgetall definition %s: %w", name, err)
	}

	hashData, err := definitionToHash(def, revisionFromHash(prev)+1)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, key, hashData); err != nil {
		return fmt.Errorf("hset definition %s: %w", name, err)
	}

	if err := r.store.AlterIndex(ctx, indexName, f); err != nil {
		return errors.Join(err, r.restore(ctx, key, prev))
	}
	return nil
}

func (r *Repo) restore(ctx context.Context, key string, prev map[string]string) error {
	if len(prev) == 0 {
		return r.store.Del(ctx, key)
	}
	return r.store.HSet(ctx, key, prev)
}

// Key pattern: facetdex-meta:definition:{type}, outside the document key space.
func metaKey(docType string) string {
	return "facetdex-meta:definition:" + docType
}
