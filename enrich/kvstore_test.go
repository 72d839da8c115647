package enrich

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubKV overrides Get; the embedded interface covers the rest.
type stubKV struct {
	jetstream.KeyValue
	getErr error
}

func (s stubKV) Get(context.Context, string) (jetstream.KeyValueEntry, error) {
	return nil, s.getErr
}

func captureKVStore(kv jetstream.KeyValue) (*KVStore, *bytes.Buffer) {
	var buf bytes.Buffer
	store := NewKVStoreFromBucket(kv)
	store.logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return store, &buf
}

func TestKVLookupMissingKeyIsQuietMiss(t *testing.T) {
	// Get may wrap the sentinel; a wrapped not-found is still an
	// ordinary miss, not a degraded lookup
	store, buf := captureKVStore(stubKV{
		getErr: fmt.Errorf("nats: %w", jetstream.ErrKeyNotFound),
	})

	result, ok := store.Lookup(context.Background(), "fp-1")
	assert.Nil(t, result)
	assert.False(t, ok)
	assert.Empty(t, buf.String())
}

func TestKVLookupStorageFailureLogsAndMisses(t *testing.T) {
	store, buf := captureKVStore(stubKV{
		getErr: stderrors.New("connection reset"),
	})

	result, ok := store.Lookup(context.Background(), "fp-1")
	require.False(t, ok)
	assert.Nil(t, result)
	assert.Contains(t, buf.String(), "degraded to miss")
}
