package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := NewMemoryStore(ctx, time.Minute)
	require.NoError(t, err)

	_, ok := store.Lookup(ctx, "fp-1")
	assert.False(t, ok)

	result := &EnrichmentResult{
		CommunityID:   "comm-1",
		Functionality: "does things",
		QualityScore:  6,
		Source:        SourceAI,
	}
	store.Store(ctx, "fp-1", result)

	got, ok := store.Lookup(ctx, "fp-1")
	require.True(t, ok)
	assert.Equal(t, "does things", got.Functionality)

	// The stored value is a copy, not an alias
	got.Functionality = "mutated"
	again, ok := store.Lookup(ctx, "fp-1")
	require.True(t, ok)
	assert.Equal(t, "does things", again.Functionality)
}

func TestMemoryStoreNilResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := NewMemoryStore(ctx, time.Minute)
	require.NoError(t, err)

	store.Store(ctx, "fp-1", nil)
	_, ok := store.Lookup(ctx, "fp-1")
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := NewMemoryStore(ctx, 20*time.Millisecond)
	require.NoError(t, err)

	store.Store(ctx, "fp-1", &EnrichmentResult{CommunityID: "comm-1", Functionality: "x"})
	time.Sleep(50 * time.Millisecond)

	_, ok := store.Lookup(ctx, "fp-1")
	assert.False(t, ok)
}

func TestNopStore(t *testing.T) {
	store := NewNopStore()
	ctx := context.Background()

	store.Store(ctx, "fp-1", &EnrichmentResult{CommunityID: "comm-1"})
	_, ok := store.Lookup(ctx, "fp-1")
	assert.False(t, ok)
}
