package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
)

// Config holds the facetdex server configuration.
type Config struct {
	HTTP       HTTPConfig                   `yaml:"http"`
	Database   DatabaseConfig               `yaml:"database"`
	Search     SearchConfig                 `yaml:"search"`
	Auth       AuthConfig                   `yaml:"auth"`
	Logging    LoggingConfig                `yaml:"logging"`
	Documents  []DocumentConfig             `yaml:"documents"`
	References map[string]map[string]string `yaml:"references"` // list -> key -> label
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds query building and batching settings.
type SearchConfig struct {
	DefaultPageSize int    `yaml:"default_page_size"`
	MaxPageSize     int    `yaml:"max_page_size"`
	MaxEntries      int    `yaml:"max_entries"` // 0 = unlimited
	Concurrency     int    `yaml:"concurrency"`
	ScopeCode       string `yaml:"scope_code"`
	ScopeLabel      string `yaml:"scope_label"`
	MissingLabel    string `yaml:"missing_label"`
	ExistsLabel     string `yaml:"exists_label"`
}

// DocumentConfig declares one document type served by the API.
type DocumentConfig struct {
	Name   string        `yaml:"name"`
	Fields []FieldConfig `yaml:"fields"`
}

// FieldConfig declares one field of a document type.
type FieldConfig struct {
	Name     string `yaml:"name"`
	Storage  string `yaml:"storage"`
	Type     string `yaml:"type"`
	Indexing string `yaml:"indexing"`
	Key      bool   `yaml:"key"`
	Required bool   `yaml:"required"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates raw YAML.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 1000
	}
	if c.Search.Concurrency <= 0 {
		c.Search.Concurrency = 8
	}
	if c.Search.ScopeCode == "" {
		c.Search.ScopeCode = "FCT_SCOPE"
	}
	if c.Search.ScopeLabel == "" {
		c.Search.ScopeLabel = "Scope"
	}
	for i := range c.Documents {
		for j := range c.Documents[i].Fields {
			f := &c.Documents[i].Fields[j]
			if f.Type == "" {
				f.Type = string(field.String)
			}
			if f.Indexing == "" {
				f.Indexing = string(field.Term)
			}
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverMemory, c.Database.Driver)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size %d exceeds search.max_page_size %d",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	if c.Search.MaxEntries < 0 {
		return fmt.Errorf("search.max_entries must not be negative")
	}
	if _, err := c.Definitions(); err != nil {
		return err
	}
	return nil
}

// Definitions converts the documents section into field descriptors by type.
func (c *Config) Definitions() (map[string][]field.Descriptor, error) {
	out := make(map[string][]field.Descriptor, len(c.Documents))
	for i, d := range c.Documents {
		if !db.IsValidIdentifier(d.Name) {
			return nil, fmt.Errorf("documents[%d].name %q must match [a-zA-Z0-9_:-]+", i, d.Name)
		}
		if _, dup := out[d.Name]; dup {
			return nil, fmt.Errorf("documents[%d]: duplicate document type %q", i, d.Name)
		}
		fields, err := d.Descriptors()
		if err != nil {
			return nil, fmt.Errorf("documents.%s: %w", d.Name, err)
		}
		out[d.Name] = fields
	}
	return out, nil
}

// Types returns the configured document type names in declaration order.
func (c *Config) Types() []string {
	out := make([]string, len(c.Documents))
	for i, d := range c.Documents {
		out[i] = d.Name
	}
	return out
}

// Descriptors converts the field list into validated descriptors.
func (d DocumentConfig) Descriptors() ([]field.Descriptor, error) {
	if len(d.Fields) == 0 {
		return nil, fmt.Errorf("at least one field is required")
	}
	out := make([]field.Descriptor, 0, len(d.Fields))
	for _, f := range d.Fields {
		desc, err := field.New(
			f.Name, f.Storage,
			field.SemanticType(f.Type), field.Indexing(f.Indexing),
			f.Key, f.Required,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
