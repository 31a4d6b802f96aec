package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Simple(t *testing.T) {
	idx := NewIndex("test-idx").
		Prefix("doc:").
		Tag("category").
		Numeric("price").
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "test-idx" {
		t.Errorf("name = %q, want test-idx", idx.Name)
	}
	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	if idx.Fields[0].Name != "category" || idx.Fields[0].Type != IndexFieldTag {
		t.Errorf("field[0] = %+v, want category TAG", idx.Fields[0])
	}
	if idx.Fields[1].Name != "price" || idx.Fields[1].Type != IndexFieldNumeric {
		t.Errorf("field[1] = %+v, want price NUMERIC", idx.Fields[1])
	}
}

func TestIndexBuilder_TextAnalyzers(t *testing.T) {
	idx := NewIndex("text-idx").Text("title").MustBuild()

	f := idx.Fields[0]
	if f.Analyzer != AnalyzerText {
		t.Errorf("analyzer = %q, want %q", f.Analyzer, AnalyzerText)
	}
	if f.SearchAnalyzer != AnalyzerSearchText {
		t.Errorf("search analyzer = %q, want %q", f.SearchAnalyzer, AnalyzerSearchText)
	}
}

func TestIndexBuilder_Sortable(t *testing.T) {
	idx := NewIndex("s-idx").Numeric("year").Sortable().Tag("lang").MustBuild()

	if !idx.Fields[0].Sortable {
		t.Error("expected year SORTABLE")
	}
	if idx.Fields[1].Sortable {
		t.Error("lang should not be SORTABLE")
	}
}

func TestIndexBuilder_TagOptions(t *testing.T) {
	idx := NewIndex("tag-idx").
		Prefix("t:").
		TagWithOpts("tags", "|", true).
		MustBuild()

	f := idx.Fields[0]
	if f.TagSeparator != "|" {
		t.Errorf("separator = %q, want |", f.TagSeparator)
	}
	if !f.TagCaseSensitive {
		t.Error("expected TagCaseSensitive=true")
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Tag("x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "noindex sortable",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Field(IndexField{Name: "x", NoIndex: true, Sortable: true}).Build()
			},
			wantErr: "NOINDEX and SORTABLE",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").Tag("x").Build()
			},
			wantErr: "invalid characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("my-idx").
		Prefix("doc:").
		Tag("cat").
		Numeric("year").Sortable().
		MustBuild()

	s := idx.String()
	if !strings.HasPrefix(s, "FT.CREATE ") {
		t.Errorf("expected FT.CREATE prefix, got %q", s)
	}
	if !strings.Contains(s, "year NUMERIC SORTABLE") {
		t.Errorf("missing sortable field in %q", s)
	}
}

func TestIndexDefinition_Field(t *testing.T) {
	idx := NewIndex("f-idx").Tag("a").Numeric("b").MustBuild()
	if f, ok := idx.Field("b"); !ok || f.Type != IndexFieldNumeric {
		t.Errorf("Field(b) = %+v, %v", f, ok)
	}
	if _, ok := idx.Field("c"); ok {
		t.Error("Field(c) should miss")
	}
}

func TestIndexBuilder_DuplicateFields(t *testing.T) {
	idx := &IndexDefinition{
		Name: "dup-idx",
		Fields: []IndexField{
			{Name: "field1", Type: IndexFieldTag},
			{Name: "field1", Type: IndexFieldNumeric},
		},
	}

	if err := idx.Validate(); err == nil {
		t.Fatal("expected error for duplicate fields")
	}
}

func TestDocumentKey(t *testing.T) {
	if got := DocumentKey("article", "42"); got != "facetdex:article:42" {
		t.Errorf("DocumentKey = %q", got)
	}
	if got := IndexName("article"); got != "facetdex:article:idx" {
		t.Errorf("IndexName = %q", got)
	}
}
