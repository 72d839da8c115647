// Package cache provides generic, thread-safe cache implementations used by
// the analysis pipeline, notably the enrichment fingerprint cache.
//
// Two cache types are offered:
//   - SimpleCache: no eviction policy (stores items indefinitely)
//   - TTLCache: time-to-live eviction with background cleanup
//
// All implementations are thread-safe with built-in statistics (always
// enabled for observability) and optional Prometheus metrics integration via
// functional options.
package cache

import (
	"context"
	"time"

	"github.com/c360/codegraph/errors"
	"github.com/c360/codegraph/metric"
)

// Cache represents a generic cache interface that all implementations satisfy.
// The cache is parameterized by value type V for type safety.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true if found, zero value and false otherwise.
	Get(key string) (V, bool)

	// Set stores a value with the given key. Returns true if a new entry was created, false if updated.
	Set(key string, value V) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed and was deleted.
	Delete(key string) (bool, error)

	// Clear removes all entries from the cache.
	Clear() error

	// Size returns the current number of entries in the cache.
	Size() int

	// Keys returns a slice of all keys currently in the cache.
	Keys() []string

	// Stats returns cache statistics.
	Stats() *Statistics

	// Close shuts down the cache and releases any resources (e.g., background goroutines).
	Close() error
}

// Option configures cache behavior using the functional options pattern.
type Option func(*cacheOptions)

// cacheOptions holds internal configuration for cache instances.
// Stats are always collected; Prometheus export is optional.
type cacheOptions struct {
	metricsReg    *metric.Registry
	metricsPrefix string
}

// WithMetrics enables Prometheus metrics export for cache statistics.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics(registry *metric.Registry, prefix string) Option {
	return func(opts *cacheOptions) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// NewSimple creates a cache with no eviction policy.
func NewSimple[V any](opts ...Option) (Cache[V], error) {
	options := applyOptions(opts)
	return newSimpleCache[V](options)
}

// NewTTL creates a cache whose entries expire after ttl. The background
// cleanup goroutine stops when ctx is cancelled or Close is called.
func NewTTL[V any](ctx context.Context, ttl, cleanupInterval time.Duration, opts ...Option) (Cache[V], error) {
	if ttl <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewTTL", "ttl must be positive")
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	options := applyOptions(opts)
	return newTTLCache[V](ctx, ttl, cleanupInterval, options)
}

func applyOptions(opts []Option) *cacheOptions {
	options := &cacheOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// validateKey validates a cache key for basic requirements.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
