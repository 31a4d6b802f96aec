// Package memory is an in-process db.Store used for tests, local runs and
// the "memory" database driver. It evaluates structured queries the same way
// the Redis adapter renders them.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store keeps hashes and index definitions in memory.
type Store struct {
	mu      sync.RWMutex
	hashes  map[string]map[string]string
	indexes map[string]*db.IndexDefinition
	closed  bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		hashes:  make(map[string]map[string]string),
		indexes: make(map[string]*db.IndexDefinition),
	}
}

// Ping fails once the store is closed.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("ping: store closed")
	}
	return nil
}

// Close marks the store closed.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// WaitForReady returns immediately: an open in-memory store is always ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("timeout waiting for database: %w", err)
	}
	return s.Ping(ctx)
}

// HSet merges fields into a hash.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

// HSetMulti replaces several hashes atomically.
func (s *Store) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		h := make(map[string]string, len(item.Fields))
		for k, v := range item.Fields {
			h[k] = v
		}
		s.hashes[item.Key] = h
	}
	return nil
}

// HGetAll returns a copy of a hash, empty when absent.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

// Del deletes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.hashes, key)
	s.mu.Unlock()
	return nil
}

// DelMulti deletes keys and returns how many existed.
func (s *Store) DelMulti(_ context.Context, keys []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, k := range keys {
		if _, ok := s.hashes[k]; ok {
			delete(s.hashes, k)
			n++
		}
	}
	return n, nil
}

// CreateIndex registers an index definition.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	cp := *def
	cp.Prefixes = append([]string(nil), def.Prefixes...)
	cp.Fields = append([]db.IndexField(nil), def.Fields...)
	s.indexes[def.Name] = &cp
	return nil
}

// AlterIndex adds a field to an index.
func (s *Store) AlterIndex(_ context.Context, name string, field db.IndexField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[name]
	if !ok {
		return db.ErrIndexNotFound
	}
	if _, exists := idx.Field(field.Name); exists {
		return db.ErrFieldExists
	}
	idx.Fields = append(idx.Fields, field)
	return nil
}

// IndexExists reports whether an index is registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// ExecuteBatch evaluates every query against a consistent snapshot.
func (s *Store) ExecuteBatch(ctx context.Context, queries []db.NamedQuery) (map[string]*db.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpBatch, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, &db.Error{Op: db.OpBatch, Err: fmt.Errorf("store closed")}
	}

	out := make(map[string]*db.Response, len(queries))
	for _, nq := range queries {
		resp, err := s.execute(nq.Query)
		if err != nil {
			resp = &db.Response{Err: &db.Error{Op: db.OpSearch, Err: err}}
		}
		out[nq.Code] = resp
	}
	return out, nil
}

type hit struct {
	key    string
	fields map[string]string
}

// document copies the hit out of the store.
func (h hit) document(prefix string) db.Document {
	fields := make(map[string]string, len(h.fields))
	for k, v := range h.fields {
		fields[k] = v
	}
	return db.Document{ID: strings.TrimPrefix(h.key, prefix), Fields: fields}
}

func (s *Store) execute(q *db.Query) (*db.Response, error) {
	if q == nil {
		return nil, fmt.Errorf("query is required")
	}
	idx, ok := s.indexes[q.Index]
	if !ok {
		return nil, fmt.Errorf("%s: %w", q.Index, db.ErrIndexNotFound)
	}
	docs := s.documents(idx)
	ev := evaluator{idx: idx}

	hits, err := ev.filter(docs, q.HitFilter())
	if err != nil {
		return nil, err
	}

	resp := &db.Response{
		Total:        int64(len(hits)),
		Aggregations: make(map[string][]db.Bucket, len(q.Aggregations)),
	}

	if q.Sort != nil {
		sortHits(hits, q.Sort, ev.fieldType(q.Sort.Field))
	}
	for _, h := range page(hits, q.Offset, q.Limit) {
		resp.Documents = append(resp.Documents, h.document(q.Prefix))
	}

	aggDocs := make([][]hit, len(q.Aggregations))
	for i, a := range q.Aggregations {
		matched, err := ev.filter(docs, q.AggregationFilter(a))
		if err != nil {
			return nil, fmt.Errorf("aggregation %q: %w", a.Code, err)
		}
		aggDocs[i] = matched
		values, missing := ev.count(matched, a.Field)
		resp.Aggregations[a.Code] = db.Tally(a, values, missing)
	}

	if q.Group != nil {
		resp.Groups = ev.groups(hits, q, aggDocs)
	}
	return resp, nil
}

// documents returns the hashes covered by idx in key order.
func (s *Store) documents(idx *db.IndexDefinition) []hit {
	var out []hit
	for key, fields := range s.hashes {
		if !hasAnyPrefix(key, idx.Prefixes) {
			continue
		}
		out = append(out, hit{key: key, fields: fields})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

func hasAnyPrefix(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func page(hits []hit, offset, limit int) []hit {
	if offset >= len(hits) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end]
}
