package definition

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
)

// Describer lists the fields of a document type.
// Unknown types return an error wrapping domain.ErrNotFound.
type Describer interface {
	Describe(ctx context.Context, docType string) ([]field.Descriptor, error)
}

// Observer receives cache hit/miss events (metrics).
type Observer interface {
	CacheHit(docType string)
	CacheMiss(docType string)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)  {}
func (nopObserver) CacheMiss(string) {}

// Cache memoizes document definitions process-wide. Concurrent first requests
// for a type share one computation; Invalidate forces the next Get to rebuild.
type Cache struct {
	describer Describer
	observer  Observer

	mu    sync.RWMutex
	defs  map[string]*document.Definition
	gens  map[string]uint64
	group singleflight.Group
}

// NewCache creates a definition cache over d.
func NewCache(d Describer) *Cache {
	return &Cache{
		describer: d,
		observer:  nopObserver{},
		defs:      make(map[string]*document.Definition),
		gens:      make(map[string]uint64),
	}
}

// WithObserver sets the hit/miss observer.
func (c *Cache) WithObserver(o Observer) *Cache {
	if o != nil {
		c.observer = o
	}
	return c
}

// Get returns the definition of docType, computing it at most once per
// generation. Repeated calls return the same instance.
//
// A caller whose ctx ends stops waiting, but the shared build is not
// cancelled with it: other callers waiting on the same build still get its
// result.
func (c *Cache) Get(ctx context.Context, docType string) (*document.Definition, error) {
	c.mu.RLock()
	def, ok := c.defs[docType]
	gen := c.gens[docType]
	c.mu.RUnlock()
	if ok {
		c.observer.CacheHit(docType)
		return def, nil
	}
	c.observer.CacheMiss(docType)

	// keyed by generation so callers arriving after an invalidation never
	// join a computation that started before it
	key := docType + "\x00" + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(key, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.defs[docType]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		built, err := c.build(context.WithoutCancel(ctx), docType)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gens[docType] != gen {
			// invalidated meanwhile: serve the result without storing it
			return built, nil
		}
		if existing, ok := c.defs[docType]; ok {
			return existing, nil
		}
		c.defs[docType] = built
		return built, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*document.Definition), nil
	}
}

func (c *Cache) build(ctx context.Context, docType string) (*document.Definition, error) {
	fields, err := c.describer.Describe(ctx, docType)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("document type %q: %w", docType, err)
		}
		return nil, fmt.Errorf("describe %s: %w", docType, err)
	}
	def, err := document.New(docType, fields)
	if err != nil {
		return nil, &domain.ConfigurationError{Subject: docType, Reason: err.Error()}
	}
	return def, nil
}

// Invalidate drops the cached definition of docType.
func (c *Cache) Invalidate(docType string) {
	c.mu.Lock()
	delete(c.defs, docType)
	c.gens[docType]++
	c.mu.Unlock()
}

// InvalidateAll drops every cached definition.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	for t := range c.defs {
		c.gens[t]++
	}
	c.defs = make(map[string]*document.Definition)
	c.mu.Unlock()
}
