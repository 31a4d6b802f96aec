package facetdex

import (
	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	addrs    []string
	password string
	memory   bool
	logger   *zap.Logger
	metrics  bool

	defaultTop   int
	maxTop       int
	maxEntries   int
	concurrency  int
	scopeCode    string
	scopeLabel   string
	missingLabel string
	existsLabel  string
}

func defaultOptions() clientOptions {
	return clientOptions{
		defaultTop: 20,
		maxTop:     1000,
	}
}

// WithRedis connects to a single Redis 8+ node.
func WithRedis(addr, password string) Option {
	return func(o *clientOptions) {
		o.addrs = []string{addr}
		o.password = password
		o.memory = false
	}
}

// WithRedisCluster connects to a Redis cluster.
func WithRedisCluster(addrs ...string) Option {
	return func(o *clientOptions) {
		o.addrs = append([]string(nil), addrs...)
		o.memory = false
	}
}

// WithPassword sets the Redis password.
func WithPassword(password string) Option {
	return func(o *clientOptions) { o.password = password }
}

// WithMemory uses an in-process store. Intended for tests and examples.
func WithMemory() Option {
	return func(o *clientOptions) { o.memory = true }
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithMetrics registers search metrics with the default prometheus registry.
func WithMetrics() Option {
	return func(o *clientOptions) { o.metrics = true }
}

// WithPageSize sets the default and maximum page sizes.
func WithPageSize(defaultTop, maxTop int) Option {
	return func(o *clientOptions) {
		o.defaultTop = defaultTop
		o.maxTop = maxTop
	}
}

// WithMaxEntries caps the number of entries per batch. 0 means unlimited.
func WithMaxEntries(n int) Option {
	return func(o *clientOptions) { o.maxEntries = n }
}

// WithConcurrency bounds concurrent query construction.
func WithConcurrency(n int) Option {
	return func(o *clientOptions) { o.concurrency = n }
}

// WithScope overrides the scope facet code and label.
func WithScope(code, label string) Option {
	return func(o *clientOptions) {
		o.scopeCode = code
		o.scopeLabel = label
	}
}

// WithFacetLabels overrides the labels of missing and exists buckets.
func WithFacetLabels(missing, exists string) Option {
	return func(o *clientOptions) {
		o.missingLabel = missing
		o.existsLabel = exists
	}
}
