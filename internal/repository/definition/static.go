package definition

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
)

// Static describes a fixed set of document types (configuration).
type Static struct {
	types map[string][]field.Descriptor
}

// NewStatic creates a Static describer. The map is copied.
func NewStatic(types map[string][]field.Descriptor) *Static {
	cp := make(map[string][]field.Descriptor, len(types))
	for name, fields := range types {
		cp[name] = append([]field.Descriptor(nil), fields...)
	}
	return &Static{types: cp}
}

// Describe implements Describer.
func (s *Static) Describe(_ context.Context, docType string) ([]field.Descriptor, error) {
	fields, ok := s.types[docType]
	if !ok {
		return nil, fmt.Errorf("static %s: %w", docType, domain.ErrNotFound)
	}
	return append([]field.Descriptor(nil), fields...), nil
}

// Types returns the known document types, sorted.
func (s *Static) Types() []string {
	out := make([]string, 0, len(s.types))
	for name := range s.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Chain tries describers in order, skipping those that do not know the type.
type Chain []Describer

// Describe implements Describer.
func (c Chain) Describe(ctx context.Context, docType string) ([]field.Descriptor, error) {
	for _, d := range c {
		fields, err := d.Describe(ctx, docType)
		if err == nil {
			return fields, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", docType, domain.ErrNotFound)
}
