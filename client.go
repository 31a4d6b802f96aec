package facetdex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/facetdex/internal/db/redis"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/mapping"
	"github.com/kailas-cloud/facetdex/internal/metrics"
	"github.com/kailas-cloud/facetdex/internal/repository/definition"
	docrepo "github.com/kailas-cloud/facetdex/internal/repository/document"
	"github.com/kailas-cloud/facetdex/internal/repository/reference"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/facetdex/internal/usecase/index"
	queryuc "github.com/kailas-cloud/facetdex/internal/usecase/query"
)

// Client is the facetdex SDK entry point. Safe for concurrent use.
type Client struct {
	store      db.Store
	registry   *mapping.Registry
	schemas    *schemaRegistry
	defs       *definition.Cache
	queries    *queryuc.Service
	indexes    *indexuc.Service
	documents  *docrepo.Repo
	references *reference.Repo
	logger     *zap.Logger
}

// New creates a client. Either WithRedis, WithRedisCluster or WithMemory is
// required.
func New(opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	store, err := createStore(o)
	if err != nil {
		return nil, err
	}
	return wireClient(store, o), nil
}

func createStore(o clientOptions) (db.Store, error) {
	if o.memory {
		return memory.NewStore(), nil
	}
	if len(o.addrs) == 0 {
		return nil, fmt.Errorf("facetdex: no backend configured (use WithRedis, WithRedisCluster or WithMemory)")
	}
	s, err := dbRedis.NewStore(dbRedis.Config{Addrs: o.addrs, Password: o.password})
	if err != nil {
		return nil, fmt.Errorf("facetdex: connect: %w", err)
	}
	return s, nil
}

// wireClient assembles every service over store.
func wireClient(store db.Store, o clientOptions) *Client {
	registry := mapping.NewRegistry()
	schemas := newSchemaRegistry()
	defRepo := definition.New(store)

	defs := definition.NewCache(definition.Chain{schemas, defRepo})
	var refTotal *prometheus.CounterVec
	if o.metrics {
		metrics.RegisterSearchMetrics()
		defs = defs.WithObserver(metrics.CacheObserver{})
		refTotal = metrics.ReferenceCacheTotal
	}

	backend := queryuc.NewInstrumentedBackend(store, o.logger)
	queries := queryuc.New(defs, backend, registry, queryuc.Config{
		Builder: queryuc.BuilderConfig{
			DefaultTop: o.defaultTop,
			MaxTop:     o.maxTop,
		},
		Facets: queryuc.HandlerConfig{
			MissingLabel: o.missingLabel,
			ExistsLabel:  o.existsLabel,
		},
		ScopeCode:   o.scopeCode,
		ScopeLabel:  o.scopeLabel,
		Concurrency: o.concurrency,
		MaxEntries:  o.maxEntries,
	}, o.logger)

	return &Client{
		store:      store,
		registry:   registry,
		schemas:    schemas,
		defs:       defs,
		queries:    queries,
		indexes:    indexuc.New(defs, defRepo, store, registry),
		documents:  docrepo.New(store, registry),
		references: reference.New(store, refTotal, o.logger),
		logger:     o.logger,
	}
}

// Close releases the backend connection.
func (c *Client) Close() {
	c.store.Close()
}

// Ping checks backend connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Health reports backend and index health for the registered types.
func (c *Client) Health(ctx context.Context) healthuc.Report {
	return healthuc.New(c.store, c.indexes, c.schemas.types()).Check(ctx)
}

// Register declares docType with the fields described by the facetdex tags
// of T. Registering a type again replaces its fields.
func Register[T any](c *Client, docType string) error {
	meta, err := schemaOf[T]()
	if err != nil {
		return err
	}
	if _, err := document.New(docType, meta.fields); err != nil {
		return domain.Configf(docType, "%v", err)
	}
	c.schemas.set(docType, meta.fields)
	c.defs.Invalidate(docType)
	c.logger.Debug("Document type registered",
		zap.String("type", docType),
		zap.Int("fields", len(meta.fields)),
	)
	return nil
}

// RegisterFields declares docType from explicit field descriptors.
func (c *Client) RegisterFields(docType string, fields ...Field) error {
	if _, err := document.New(docType, fields); err != nil {
		return domain.Configf(docType, "%v", err)
	}
	c.schemas.set(docType, fields)
	c.defs.Invalidate(docType)
	return nil
}

// NewField validates and creates a field descriptor. storage defaults to name.
func NewField(name, storage string, t SemanticType, idx Indexing, primaryKey, required bool) (Field, error) {
	return field.New(name, storage, t, idx, primaryKey, required)
}

// MultiQuery starts a batch of queries executed in one backend round trip.
func (c *Client) MultiQuery() *MultiQuery {
	return c.queries.MultiQuery()
}

// Search runs a single query.
func (c *Client) Search(ctx context.Context, docType string, in Input, mapper Mapper) (Output, error) {
	return c.queries.Search(ctx, docType, in, mapper)
}

// ResolveMapping returns the strategy for a semantic type. Unknown types
// resolve to the text strategy.
func (c *Client) ResolveMapping(t SemanticType) Strategy {
	return c.registry.Resolve(t)
}

// RegisterMapping installs a strategy for a custom semantic type.
func (c *Client) RegisterMapping(t SemanticType, s Strategy) {
	c.registry.Register(t, s)
}

// Indexes manages backend indexes.
func (c *Client) Indexes() *Indexes {
	return &Indexes{svc: c.indexes}
}

// References manages code tables used to label facet buckets.
func (c *Client) References() *References {
	return &References{repo: c.references}
}

// Bulk starts a write batch for docType.
func (c *Client) Bulk(ctx context.Context, docType string) (*Bulk, error) {
	def, err := c.defs.Get(ctx, docType)
	if err != nil {
		return nil, err
	}
	return &Bulk{b: c.documents.Bulk(def)}, nil
}

// BulkIndex encodes items with the tags of T and writes them to docType.
func BulkIndex[T any](ctx context.Context, c *Client, docType string, items ...T) (int, error) {
	meta, err := schemaOf[T]()
	if err != nil {
		return 0, err
	}
	b, err := c.Bulk(ctx, docType)
	if err != nil {
		return 0, err
	}
	for i, item := range items {
		raw, err := meta.encode(item)
		if err != nil {
			return 0, fmt.Errorf("item %d: %w", i, err)
		}
		b.Index(raw)
	}
	return b.Run(ctx)
}

// schemaRegistry describes the types registered on a client.
type schemaRegistry struct {
	mu     sync.RWMutex
	fields map[string][]field.Descriptor
}

func newSchemaRegistry() *schemaRegistry {
	return &schemaRegistry{fields: make(map[string][]field.Descriptor)}
}

func (r *schemaRegistry) set(docType string, fields []field.Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields[docType] = append([]field.Descriptor(nil), fields...)
}

// Describe implements definition.Describer.
func (r *schemaRegistry) Describe(_ context.Context, docType string) ([]field.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fields, ok := r.fields[docType]
	if !ok {
		return nil, fmt.Errorf("registered %s: %w", docType, domain.ErrNotFound)
	}
	return append([]field.Descriptor(nil), fields...), nil
}

func (r *schemaRegistry) types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.fields))
	for name := range r.fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
