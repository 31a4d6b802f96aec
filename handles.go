package facetdex

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	docrepo "github.com/kailas-cloud/facetdex/internal/repository/document"
	"github.com/kailas-cloud/facetdex/internal/repository/reference"
	indexuc "github.com/kailas-cloud/facetdex/internal/usecase/index"
)

// Indexes manages the backend index of each document type.
type Indexes struct {
	svc *indexuc.Service
}

// Mapping returns the index definition derived from the type's fields.
func (i *Indexes) Mapping(ctx context.Context, docType string) (*IndexMapping, error) {
	return i.svc.Mapping(ctx, docType)
}

// Ensure creates the index if missing. Reports whether it was created.
func (i *Indexes) Ensure(ctx context.Context, docType string) (bool, error) {
	return i.svc.Ensure(ctx, docType)
}

// DeclareField adds one field to an existing index.
func (i *Indexes) DeclareField(ctx context.Context, docType, name string) (IndexField, error) {
	return i.svc.DeclareField(ctx, docType, name)
}

// Verify checks that every listed type has an index.
func (i *Indexes) Verify(ctx context.Context, docTypes ...string) error {
	return i.svc.Verify(ctx, docTypes)
}

// References stores code tables.
type References struct {
	repo *reference.Repo
}

// Save replaces the labels of list.
func (r *References) Save(ctx context.Context, list string, labels map[string]string) error {
	return r.repo.Save(ctx, list, labels)
}

// Labels returns the labels of list.
func (r *References) Labels(ctx context.Context, list string) (map[string]string, error) {
	return r.repo.Labels(ctx, list)
}

// Resolver returns a facet label resolver backed by list.
func (r *References) Resolver(ctx context.Context, list string) (facet.LabelResolver, error) {
	return r.repo.Resolver(ctx, list)
}

// Invalidate drops the cached labels of list.
func (r *References) Invalidate(list string) {
	r.repo.Invalidate(list)
}

// Bulk queues writes for one document type.
type Bulk struct {
	b *docrepo.Bulk
}

// Index queues a document given as raw field values keyed by field name.
func (b *Bulk) Index(fields map[string]string) *Bulk {
	b.b.Index(docrepo.Raw(fields))
	return b
}

// Delete queues the removal of a document by id.
func (b *Bulk) Delete(ids ...string) *Bulk {
	b.b.DeleteMany(ids)
	return b
}

// Len returns the number of queued operations.
func (b *Bulk) Len() int { return b.b.Len() }

// Run applies the queued operations and reports how many were applied.
func (b *Bulk) Run(ctx context.Context) (int, error) {
	return b.b.Run(ctx)
}
