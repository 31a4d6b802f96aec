package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	IndexManager
	BatchSearcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) (int, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	AlterIndex(ctx context.Context, name string, field IndexField) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// NamedQuery is one entry of a search batch.
type NamedQuery struct {
	Code  string
	Query *Query
}

// BatchSearcher executes several structured queries in one round trip.
type BatchSearcher interface {
	// ExecuteBatch returns one response per entry code. A failed entry carries
	// its error in Response.Err; a failed batch returns an error.
	ExecuteBatch(ctx context.Context, queries []NamedQuery) (map[string]*Response, error)
}
