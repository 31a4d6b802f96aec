// Package document writes documents into the hash key space of their type.
package document

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/mapping"
)

// store is the consumer interface for document writes (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) (int, error)
}

// strategies resolves the encoding strategy of a field.
type strategies interface {
	For(f field.Descriptor) mapping.Strategy
}

// Raw is a document as field name -> value. Multi-valued term fields join
// their values with ",".
type Raw map[string]string

// Repo creates bulk descriptors.
type Repo struct {
	store    store
	registry strategies
}

// New creates a document repository.
func New(s store, r strategies) *Repo {
	return &Repo{store: s, registry: r}
}

// Bulk starts a bulk descriptor for documents of def.
func (r *Repo) Bulk(def *domdoc.Definition) *Bulk {
	return &Bulk{repo: r, def: def}
}

// Bulk accumulates index and delete operations for one document type.
// Run sends every index operation in one pipelined round trip, then every
// delete in another.
type Bulk struct {
	repo    *Repo
	def     *domdoc.Definition
	docs    []Raw
	deletes []string
}

// Index queues one document.
func (b *Bulk) Index(doc Raw) *Bulk {
	b.docs = append(b.docs, doc)
	return b
}

// IndexMany queues several documents.
func (b *Bulk) IndexMany(docs []Raw) *Bulk {
	b.docs = append(b.docs, docs...)
	return b
}

// Delete queues removal of the document with primary key id.
func (b *Bulk) Delete(id string) *Bulk {
	b.deletes = append(b.deletes, id)
	return b
}

// DeleteMany queues removal of several documents.
func (b *Bulk) DeleteMany(ids []string) *Bulk {
	b.deletes = append(b.deletes, ids...)
	return b
}

// Len returns the number of queued operations.
func (b *Bulk) Len() int { return len(b.docs) + len(b.deletes) }

// Run applies the queued operations and returns how many documents were
// written or removed. Every document is validated and encoded before the
// first backend call.
func (b *Bulk) Run(ctx context.Context) (int, error) {
	items, err := b.encode()
	if err != nil {
		return 0, err
	}

	var applied int
	if len(items) > 0 {
		if err := b.repo.store.HSetMulti(ctx, items); err != nil {
			return 0, fmt.Errorf("bulk index %s: %w", b.def.Type(), err)
		}
		applied += len(items)
	}

	if len(b.deletes) > 0 {
		keys := make([]string, len(b.deletes))
		for i, id := range b.deletes {
			keys[i] = db.DocumentKey(b.def.Type(), id)
		}
		n, err := b.repo.store.DelMulti(ctx, keys)
		if err != nil {
			return applied, fmt.Errorf("bulk delete %s: %w", b.def.Type(), err)
		}
		applied += n
	}
	return applied, nil
}

func (b *Bulk) encode() ([]db.HashSetItem, error) {
	if len(b.docs) == 0 {
		return nil, nil
	}
	pk, ok := b.def.PrimaryKey()
	if !ok {
		return nil, domain.Configf(b.def.Type(), "document type has no primary key")
	}

	fields := b.def.Fields()
	items := make([]db.HashSetItem, 0, len(b.docs))
	for i, doc := range b.docs {
		for name := range doc {
			if _, known := b.def.Field(name); !known {
				return nil, domain.Configf(name, "document %d: unknown field", i)
			}
		}

		id := doc[pk.Name()]
		if id == "" {
			return nil, domain.Configf(pk.Name(), "document %d: primary key is empty", i)
		}

		hash := make(map[string]string, len(doc))
		for _, f := range fields {
			raw, present := doc[f.Name()]
			if !present || raw == "" {
				if f.IsRequired() {
					return nil, domain.Configf(f.Name(), "document %d: required field is empty", i)
				}
				continue
			}
			enc, err := b.repo.registry.For(f).Encode(f, raw)
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", i, err)
			}
			hash[f.StorageName()] = enc
		}
		items = append(items, db.HashSetItem{Key: db.DocumentKey(b.def.Type(), id), Fields: hash})
	}
	return items, nil
}
