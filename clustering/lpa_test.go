package clustering

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/codegraph/graph"
)

// twoCliques builds two 4-node cliques joined by a single weak bridge edge.
// The bridge weight is below the intra-clique weight so the weighted vote
// always keeps the cliques apart, whatever the update order.
func twoCliques(t *testing.T) *graph.Store {
	t.Helper()
	store := graph.NewStore()

	add := func(id string) {
		require.NoError(t, store.AddElement(graph.Element{
			ID: id, Kind: graph.KindFunction, Name: id, FilePath: id + ".go",
		}))
	}
	connect := func(a, b string) {
		require.NoError(t, store.AddEdge(graph.Edge{FromID: a, ToID: b}))
	}

	left := []string{"a1", "a2", "a3", "a4"}
	right := []string{"b1", "b2", "b3", "b4"}
	for _, id := range append(append([]string{}, left...), right...) {
		add(id)
	}
	for i := 0; i < len(left); i++ {
		for j := i + 1; j < len(left); j++ {
			connect(left[i], left[j])
			connect(right[i], right[j])
		}
	}
	require.NoError(t, store.AddEdge(graph.Edge{FromID: "a1", ToID: "b1", Weight: 0.5}))
	store.Freeze()
	return store
}

func TestDetectSeparatesCliques(t *testing.T) {
	store := twoCliques(t)
	detector := NewLPADetector(store).WithSeed(42)

	partition, err := detector.Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, partition.Communities, 2)
	assert.True(t, partition.Converged)

	// Each clique lands in one community
	assert.Equal(t, partition.Assignments["a1"], partition.Assignments["a4"])
	assert.Equal(t, partition.Assignments["b1"], partition.Assignments["b4"])
	assert.NotEqual(t, partition.Assignments["a1"], partition.Assignments["b1"])

	assert.Greater(t, partition.Modularity, 0.3)
}

func TestDetectCommunityMetrics(t *testing.T) {
	store := twoCliques(t)
	partition, err := NewLPADetector(store).WithSeed(42).Detect(context.Background())
	require.NoError(t, err)

	for _, c := range partition.Communities {
		require.Equal(t, 4, c.Size)
		require.Len(t, c.Members, 4)
		// A clique is fully cohesive
		assert.InDelta(t, 1.0, c.Cohesion, 1e-9)
		// One bridge edge out of seven incident (6 internal + 1 external)
		assert.InDelta(t, 1.0/7.0, c.Coupling, 1e-9)
	}
}

func TestDetectDeterministicWithSeed(t *testing.T) {
	store := twoCliques(t)

	first, err := NewLPADetector(store).WithSeed(7).Detect(context.Background())
	require.NoError(t, err)
	second, err := NewLPADetector(store).WithSeed(7).Detect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Assignments, second.Assignments)
	for i := range first.Communities {
		assert.Equal(t, first.Communities[i].Members, second.Communities[i].Members)
	}
}

func TestDetectEmptyGraph(t *testing.T) {
	store := graph.NewStore()
	store.Freeze()

	partition, err := NewLPADetector(store).Detect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, partition.Communities)
	assert.True(t, partition.Converged)
}

func TestDetectIsolatedElements(t *testing.T) {
	store := graph.NewStore()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.AddElement(graph.Element{
			ID: fmt.Sprintf("iso%d", i), Kind: graph.KindFunction,
		}))
	}
	store.Freeze()

	partition, err := NewLPADetector(store).Detect(context.Background())
	require.NoError(t, err)
	// Each isolated element is its own community
	assert.Len(t, partition.Communities, 3)
	for _, c := range partition.Communities {
		assert.Equal(t, 1, c.Size)
	}
}

func TestDetectCancelled(t *testing.T) {
	store := twoCliques(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLPADetector(store).Detect(ctx)
	assert.Error(t, err)
}

func TestComputeRepresentativesRanksHub(t *testing.T) {
	store := graph.NewStore()
	ids := []string{"hub", "s1", "s2", "s3", "s4"}
	for _, id := range ids {
		require.NoError(t, store.AddElement(graph.Element{ID: id, Kind: graph.KindFunction}))
	}
	// Star: every spoke points at the hub
	for _, id := range ids[1:] {
		require.NoError(t, store.AddEdge(graph.Edge{FromID: id, ToID: "hub"}))
	}
	store.Freeze()

	reps := ComputeRepresentatives(context.Background(), store, ids, 2)
	require.Len(t, reps, 2)
	assert.Equal(t, "hub", reps[0])
}

func TestComputeRepresentativesSmallCommunity(t *testing.T) {
	store := graph.NewStore()
	require.NoError(t, store.AddElement(graph.Element{ID: "x"}))
	require.NoError(t, store.AddElement(graph.Element{ID: "y"}))
	require.NoError(t, store.AddEdge(graph.Edge{FromID: "x", ToID: "y"}))
	store.Freeze()

	reps := ComputeRepresentatives(context.Background(), store, []string{"x", "y"}, 5)
	assert.Equal(t, []string{"x", "y"}, reps)
	assert.Empty(t, ComputeRepresentatives(context.Background(), store, nil, 5))
}

func TestComputePageRankEmptySubset(t *testing.T) {
	store := graph.NewStore()
	store.Freeze()

	result, err := ComputePageRank(context.Background(), store, nil, DefaultPageRankConfig())
	require.NoError(t, err)
	assert.Empty(t, result.Ranked)
	assert.True(t, result.Converged)
}
