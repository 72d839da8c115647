package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/codegraph/metric"
)

func TestPoolProcessesAllWork(t *testing.T) {
	var processed int64
	pool := NewPool(4, 100, func(_ context.Context, n int) error {
		atomic.AddInt64(&processed, int64(n))
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, pool.Start(ctx))

	total := int64(0)
	for i := 1; i <= 50; i++ {
		require.NoError(t, pool.Submit(i))
		total += int64(i)
	}

	require.NoError(t, pool.Stop(5*time.Second))
	assert.Equal(t, total, atomic.LoadInt64(&processed))

	stats := pool.Stats()
	assert.Equal(t, int64(50), stats.Submitted)
	assert.Equal(t, int64(50), stats.Processed)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestPoolCountsFailures(t *testing.T) {
	pool := NewPool(2, 10, func(_ context.Context, n int) error {
		if n%2 == 1 {
			return errors.New("odd work fails")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, pool.Start(ctx))

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(i))
	}
	require.NoError(t, pool.Stop(5*time.Second))

	stats := pool.Stats()
	assert.Equal(t, int64(10), stats.Processed)
	assert.Equal(t, int64(5), stats.Failed)
}

func TestPoolLifecycleErrors(t *testing.T) {
	pool := NewPool(1, 1, func(_ context.Context, _ int) error { return nil })

	// Submit before start
	assert.ErrorIs(t, pool.Submit(1), ErrPoolNotStarted)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, pool.Start(ctx))
	assert.ErrorIs(t, pool.Start(ctx), ErrPoolAlreadyStarted)

	require.NoError(t, pool.Stop(time.Second))
	assert.ErrorIs(t, pool.Submit(1), ErrPoolStopped)

	// Stop after stop is a no-op
	require.NoError(t, pool.Stop(time.Second))
}

func TestPoolQueueFull(t *testing.T) {
	block := make(chan struct{})
	var once sync.Once
	pool := NewPool(1, 1, func(_ context.Context, _ int) error {
		<-block
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, pool.Start(ctx))

	// First item occupies the worker, second fills the queue
	require.NoError(t, pool.Submit(1))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, pool.Submit(2))

	err := pool.Submit(3)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, int64(1), pool.Stats().Dropped)

	once.Do(func() { close(block) })
	require.NoError(t, pool.Stop(5*time.Second))
}

func TestPoolNilProcessorPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewPool[int](1, 1, nil)
	})
}

func TestPoolWithMetrics(t *testing.T) {
	registry := metric.NewRegistry()
	pool := NewPool(2, 10, func(_ context.Context, _ int) error { return nil },
		WithMetricsRegistry[int](registry, "scanner"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, pool.Start(ctx))
	require.NoError(t, pool.Submit(1))
	require.NoError(t, pool.Stop(5*time.Second))

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["scanner_submitted_total"])
	assert.True(t, names["scanner_processed_total"])
}
