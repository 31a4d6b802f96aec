// Package index derives backend index mappings from document definitions and
// provisions them.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
)

// Service handles index provisioning.
type Service struct {
	defs       DefinitionSource
	repo       Repository
	indexes    IndexChecker
	strategies Strategies
}

// New creates an index service.
func New(defs DefinitionSource, repo Repository, indexes IndexChecker, s Strategies) *Service {
	return &Service{defs: defs, repo: repo, indexes: indexes, strategies: s}
}

// Mapping derives the index definition of docType.
func (s *Service) Mapping(ctx context.Context, docType string) (*db.IndexDefinition, error) {
	def, err := s.defs.Get(ctx, docType)
	if err != nil {
		return nil, fmt.Errorf("get definition: %w", err)
	}
	return BuildMapping(def, s.strategies)
}

// BuildMapping declares every field of def through its strategy. Fields are
// declared in name order.
func BuildMapping(def *document.Definition, s Strategies) (*db.IndexDefinition, error) {
	fields := def.Fields()
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name() < fields[j].Name() })

	b := db.NewIndex(db.IndexName(def.Type())).Prefix(db.KeyPrefix(def.Type()))
	for _, f := range fields {
		decl, err := s.For(f).DeclareMapping(f)
		if err != nil {
			return nil, err
		}
		b.Field(decl)
	}
	idx, err := b.Build()
	if err != nil {
		return nil, domain.Configf(def.Type(), "invalid mapping: %v", err)
	}
	return idx, nil
}

// Ensure creates the index of docType when absent. It reports whether the
// index was created.
func (s *Service) Ensure(ctx context.Context, docType string) (bool, error) {
	def, err := s.defs.Get(ctx, docType)
	if err != nil {
		return false, fmt.Errorf("get definition: %w", err)
	}
	idx, err := BuildMapping(def, s.strategies)
	if err != nil {
		return false, err
	}

	exists, err := s.indexes.IndexExists(ctx, idx.Name)
	if err != nil {
		return false, fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := s.repo.Provision(ctx, def, idx); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("provision %s: %w", docType, err)
	}
	return true, nil
}

// DeclareField adds one field of docType to its existing index.
func (s *Service) DeclareField(ctx context.Context, docType, name string) (db.IndexField, error) {
	def, err := s.defs.Get(ctx, docType)
	if err != nil {
		return db.IndexField{}, fmt.Errorf("get definition: %w", err)
	}
	f, ok := def.Field(name)
	if !ok {
		return db.IndexField{}, domain.Configf(name, "unknown field in %s", docType)
	}
	decl, err := s.declare(f)
	if err != nil {
		return db.IndexField{}, err
	}

	if err := s.repo.AddField(ctx, def, db.IndexName(docType), decl); err != nil {
		return db.IndexField{}, fmt.Errorf("declare field %s.%s: %w", docType, name, err)
	}
	s.defs.Invalidate(docType)
	return decl, nil
}

// Verify checks that every listed type has an index.
func (s *Service) Verify(ctx context.Context, docTypes []string) error {
	var errs []error
	for _, t := range docTypes {
		exists, err := s.indexes.IndexExists(ctx, db.IndexName(t))
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", t, err))
		case !exists:
			errs = append(errs, fmt.Errorf("%s: %w", t, db.ErrIndexNotFound))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) declare(f field.Descriptor) (db.IndexField, error) {
	return s.strategies.For(f).DeclareMapping(f)
}
