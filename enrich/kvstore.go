package enrich

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/codegraph/errors"
)

// KVStore persists the fingerprint cache in a NATS JetStream key-value
// bucket so results survive process restarts and are shared across
// analyzer instances. All storage failures degrade to a cache miss.
type KVStore struct {
	kv     jetstream.KeyValue
	logger *slog.Logger
}

// DefaultKVBucket is the bucket name used when none is configured.
const DefaultKVBucket = "ENRICHMENT_CACHE"

// NewKVStore creates or binds the cache bucket.
func NewKVStore(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (*KVStore, error) {
	if bucket == "" {
		bucket = DefaultKVBucket
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "community enrichment results keyed by content fingerprint",
		TTL:         ttl,
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "KVStore", "New", "create bucket "+bucket)
	}

	return &KVStore{
		kv:     kv,
		logger: slog.Default(),
	}, nil
}

// NewKVStoreFromBucket wraps an existing bucket, mainly for tests.
func NewKVStoreFromBucket(kv jetstream.KeyValue) *KVStore {
	return &KVStore{kv: kv, logger: slog.Default()}
}

// Lookup fetches a cached result. Missing keys, storage errors, and
// corrupt entries all report a miss.
func (s *KVStore) Lookup(ctx context.Context, fingerprint string) (*EnrichmentResult, bool) {
	if fingerprint == "" {
		return nil, false
	}

	entry, err := s.kv.Get(ctx, fingerprint)
	if err != nil {
		if !stderrors.Is(err, jetstream.ErrKeyNotFound) {
			s.logger.Debug("cache lookup degraded to miss", "fingerprint", fingerprint, "error", err)
		}
		return nil, false
	}

	var result EnrichmentResult
	if err := json.Unmarshal(entry.Value(), &result); err != nil {
		s.logger.Warn("discarding corrupt cache entry", "fingerprint", fingerprint, "error", err)
		return nil, false
	}
	return &result, true
}

// Store writes a result. Failures are logged and dropped; the pipeline
// never blocks on the cache.
func (s *KVStore) Store(ctx context.Context, fingerprint string, result *EnrichmentResult) {
	if fingerprint == "" || result == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("cache write skipped, marshal failed", "fingerprint", fingerprint, "error", err)
		return
	}
	if _, err := s.kv.Put(ctx, fingerprint, data); err != nil {
		s.logger.Debug("cache write failed", "fingerprint", fingerprint, "error", err)
	}
}
