package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
)

const sampleYAML = `
http:
  port: 8080
database:
  driver: ${FACETDEX_TEST_DRIVER:-memory}
search:
  max_entries: 10
documents:
  - name: book
    fields:
      - {name: id, key: true, required: true}
      - {name: title, indexing: fulltext, required: true}
      - {name: year, storage: pub_year, type: int, indexing: sort}
references:
  genres:
    sf: Science fiction
`

func TestParse_Sample(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != DriverMemory {
		t.Errorf("expected memory driver, got %q", cfg.Database.Driver)
	}
	if cfg.Search.DefaultPageSize != 20 || cfg.Search.MaxPageSize != 1000 {
		t.Errorf("unexpected page defaults %+v", cfg.Search)
	}
	if cfg.Search.ScopeCode != "FCT_SCOPE" || cfg.Search.ScopeLabel != "Scope" {
		t.Errorf("unexpected scope defaults %+v", cfg.Search)
	}
	if cfg.References["genres"]["sf"] != "Science fiction" {
		t.Errorf("unexpected references %v", cfg.References)
	}

	defs, err := cfg.Definitions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	book := defs["book"]
	if len(book) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(book))
	}
	if book[0].Type() != field.String || book[0].Indexing() != field.Term || !book[0].IsPrimaryKey() {
		t.Errorf("unexpected id field %+v", book[0])
	}
	if book[2].StorageName() != "pub_year" || book[2].Type() != field.Int {
		t.Errorf("unexpected year field %+v", book[2])
	}
	if got := cfg.Types(); len(got) != 1 || got[0] != "book" {
		t.Errorf("unexpected types %v", got)
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("FACETDEX_TEST_DRIVER", "redis")

	_, err := Parse([]byte(sampleYAML))
	if err == nil || !strings.Contains(err.Error(), "database.addrs is required") {
		t.Fatalf("expected addrs error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{
			HTTP:     HTTPConfig{Port: 8080},
			Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mongo" }, "database.driver"},
		{"page sizes", func(c *Config) { c.Search.DefaultPageSize = 5000 }, "default_page_size"},
		{"negative entries", func(c *Config) { c.Search.MaxEntries = -1 }, "max_entries"},
		{"bad type name", func(c *Config) {
			c.Documents = []DocumentConfig{{Name: "a b", Fields: []FieldConfig{{Name: "id"}}}}
		}, "must match"},
		{"duplicate type", func(c *Config) {
			d := DocumentConfig{Name: "book", Fields: []FieldConfig{{Name: "id", Type: "string", Indexing: "term"}}}
			c.Documents = []DocumentConfig{d, d}
		}, "duplicate document type"},
		{"no fields", func(c *Config) {
			c.Documents = []DocumentConfig{{Name: "book"}}
		}, "at least one field"},
		{"bad indexing", func(c *Config) {
			c.Documents = []DocumentConfig{{Name: "book", Fields: []FieldConfig{{Name: "id", Type: "string", Indexing: "vector"}}}}
		}, "invalid indexing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.HTTP.Port)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FACETDEX_TEST_SET", "x")
	got := string(expandEnvVars([]byte("${FACETDEX_TEST_SET} ${FACETDEX_TEST_UNSET:-y} ${FACETDEX_TEST_UNSET}")))
	if got != "x y " {
		t.Errorf("unexpected expansion %q", got)
	}
}
