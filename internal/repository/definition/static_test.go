package definition

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
)

func TestStatic_Describe(t *testing.T) {
	s := NewStatic(map[string][]field.Descriptor{"book": testFields()})

	fields, err := s.Describe(context.Background(), "book")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}

	if _, err := s.Describe(context.Background(), "author"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatic_Types(t *testing.T) {
	s := NewStatic(map[string][]field.Descriptor{"b": nil, "a": nil, "c": nil})
	got := s.Types()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("types = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("types[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChain_Describe(t *testing.T) {
	first := NewStatic(map[string][]field.Descriptor{"book": testFields()})
	second := NewStatic(map[string][]field.Descriptor{
		"author": {field.Reconstruct("name", "", field.String, field.Term, true, false)},
	})
	chain := Chain{first, second}

	fields, err := chain.Describe(context.Background(), "author")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 1 || fields[0].Name() != "name" {
		t.Errorf("unexpected fields: %v", fields)
	}

	if _, err := chain.Describe(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type failingDescriber struct{ err error }

func (f failingDescriber) Describe(context.Context, string) ([]field.Descriptor, error) {
	return nil, f.err
}

func TestChain_StopsOnError(t *testing.T) {
	boom := errors.New("timeout")
	chain := Chain{failingDescriber{err: boom}, NewStatic(map[string][]field.Descriptor{"book": testFields()})}

	if _, err := chain.Describe(context.Background(), "book"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
