// Package reference loads code tables (code -> label) used to label facet items.
package reference

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
)

// store is the consumer interface for code tables (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo reads code tables stored as hashes and keeps them in memory until
// invalidated.
type Repo struct {
	store      store
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger

	mu     sync.RWMutex
	tables map[string]map[string]string
	group  singleflight.Group
}

// New creates a reference repository.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), may be nil.
func New(s store, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{
		store:      s,
		cacheTotal: cacheTotal,
		logger:     logger,
		tables:     make(map[string]map[string]string),
	}
}

// Save replaces the labels of list and drops the cached copy.
func (r *Repo) Save(ctx context.Context, list string, labels map[string]string) error {
	if len(labels) == 0 {
		return nil
	}
	if err := r.store.HSet(ctx, refKey(list), labels); err != nil {
		return fmt.Errorf("hset reference %s: %w", list, err)
	}
	r.Invalidate(list)
	return nil
}

// Labels returns the code table of list. An unknown list is an empty table.
func (r *Repo) Labels(ctx context.Context, list string) (map[string]string, error) {
	r.mu.RLock()
	table, ok := r.tables[list]
	r.mu.RUnlock()
	if ok {
		r.incCache("hit")
		return table, nil
	}
	r.incCache("miss")

	v, err, _ := r.group.Do(list, func() (any, error) {
		m, err := r.store.HGetAll(ctx, refKey(list))
		if err != nil {
			return nil, fmt.Errorf("hgetall reference %s: %w", list, err)
		}
		if m == nil {
			m = map[string]string{}
		}
		r.mu.Lock()
		r.tables[list] = m
		r.mu.Unlock()
		r.logger.Debug("reference loaded", zap.String("list", list), zap.Int("codes", len(m)))
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

// Resolver returns a label resolver backed by the code table of list.
func (r *Repo) Resolver(ctx context.Context, list string) (facet.LabelResolver, error) {
	table, err := r.Labels(ctx, list)
	if err != nil {
		return nil, err
	}
	return func(key string) (string, bool) {
		label, ok := table[key]
		return label, ok
	}, nil
}

// Invalidate drops the cached table of list.
func (r *Repo) Invalidate(list string) {
	r.mu.Lock()
	delete(r.tables, list)
	r.mu.Unlock()
	r.group.Forget(list)
}

func (r *Repo) incCache(result string) {
	if r.cacheTotal != nil {
		r.cacheTotal.WithLabelValues(result).Inc()
	}
}

// Key pattern: facetdex-meta:ref:{list}.
func refKey(list string) string {
	return "facetdex-meta:ref:" + list
}
