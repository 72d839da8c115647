package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/codegraph/pkg/cache"
)

// ResultStore is the fingerprint cache: content-addressable storage of
// previously computed enrichment results. Its content is advisory — every
// failure mode degrades to a miss, never to an error, so implementations
// expose no error returns.
type ResultStore interface {
	// Lookup returns the cached result for a fingerprint, or a miss.
	Lookup(ctx context.Context, fingerprint string) (*EnrichmentResult, bool)

	// Store records a result under a fingerprint. Writes for the same
	// fingerprint carry equivalent values, so last-write-wins is fine.
	Store(ctx context.Context, fingerprint string, result *EnrichmentResult)
}

// DefaultCacheTTL ages out entries whose community content may have gone
// stale between runs.
const DefaultCacheTTL = 24 * time.Hour

// memoryStore keeps results in an in-process TTL cache. Safe for
// concurrent use by all in-flight pipeline tasks.
type memoryStore struct {
	entries cache.Cache[EnrichmentResult]
	logger  *slog.Logger
}

// NewMemoryStore creates an in-process fingerprint cache. The background
// TTL sweep stops when ctx is cancelled.
func NewMemoryStore(ctx context.Context, ttl time.Duration, opts ...cache.Option) (ResultStore, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	entries, err := cache.NewTTL[EnrichmentResult](ctx, ttl, ttl/4, opts...)
	if err != nil {
		return nil, err
	}
	return &memoryStore{
		entries: entries,
		logger:  slog.Default(),
	}, nil
}

func (s *memoryStore) Lookup(_ context.Context, fingerprint string) (*EnrichmentResult, bool) {
	result, ok := s.entries.Get(fingerprint)
	if !ok {
		return nil, false
	}
	return &result, true
}

func (s *memoryStore) Store(_ context.Context, fingerprint string, result *EnrichmentResult) {
	if result == nil {
		return
	}
	if _, err := s.entries.Set(fingerprint, *result); err != nil {
		s.logger.Debug("cache write failed", "fingerprint", fingerprint, "error", err)
	}
}

// nopStore is the disabled cache: always a miss, writes discarded.
type nopStore struct{}

// NewNopStore returns a store that never hits, for cache-disabled runs.
func NewNopStore() ResultStore { return nopStore{} }

func (nopStore) Lookup(context.Context, string) (*EnrichmentResult, bool) { return nil, false }
func (nopStore) Store(context.Context, string, *EnrichmentResult)        {}
