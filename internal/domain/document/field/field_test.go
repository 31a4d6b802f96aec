package field

import "testing"

func TestNew_DefaultsStorageName(t *testing.T) {
	f, err := New("title", "", String, FullText, false, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.StorageName() != "title" {
		t.Errorf("StorageName() = %q, want title", f.StorageName())
	}
	if !f.IsRequired() || f.IsPrimaryKey() {
		t.Errorf("flags = required:%v pk:%v", f.IsRequired(), f.IsPrimaryKey())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		st   SemanticType
		idx  Indexing
	}{
		{"empty name", "", String, Term},
		{"empty type", "a", "", Term},
		{"bad indexing", "a", String, "weird"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.fn, "", tt.st, tt.idx, false, false); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIndexing_IsExact(t *testing.T) {
	tests := []struct {
		idx  Indexing
		want bool
	}{
		{FullText, false},
		{Term, true},
		{Sort, true},
		{None, false},
	}
	for _, tt := range tests {
		if got := tt.idx.IsExact(); got != tt.want {
			t.Errorf("%s.IsExact() = %v, want %v", tt.idx, got, tt.want)
		}
	}
}
