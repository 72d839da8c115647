package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()

	elements := []Element{
		{ID: "a.go:Alpha", Kind: KindFunction, Name: "Alpha", FilePath: "a.go"},
		{ID: "a.go:Beta", Kind: KindFunction, Name: "Beta", FilePath: "a.go"},
		{ID: "b.go:Gamma", Kind: KindClass, Name: "Gamma", FilePath: "b.go"},
	}
	for _, el := range elements {
		require.NoError(t, s.AddElement(el))
	}

	require.NoError(t, s.AddEdge(Edge{FromID: "a.go:Alpha", ToID: "a.go:Beta"}))
	require.NoError(t, s.AddEdge(Edge{FromID: "a.go:Beta", ToID: "b.go:Gamma", Weight: 2.5}))
	return s
}

func TestStoreAddAndLookup(t *testing.T) {
	s := buildTestStore(t)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.EdgeCount())

	el, ok := s.Element("a.go:Alpha")
	require.True(t, ok)
	assert.Equal(t, KindFunction, el.Kind)
	assert.Equal(t, "Alpha", el.Name)

	_, ok = s.Element("missing")
	assert.False(t, ok)
}

func TestStoreValidation(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.AddElement(Element{ID: ""}))
	assert.Error(t, s.AddEdge(Edge{FromID: "", ToID: "x"}))

	require.NoError(t, s.AddElement(Element{ID: "x"}))
	assert.Error(t, s.AddEdge(Edge{FromID: "x", ToID: "unknown"}))
	assert.Error(t, s.AddEdge(Edge{FromID: "unknown", ToID: "x"}))
}

func TestStoreNeighbors(t *testing.T) {
	s := buildTestStore(t)

	// Beta has an incoming edge from Alpha and an outgoing edge to Gamma
	assert.Equal(t, []string{"a.go:Alpha", "b.go:Gamma"}, s.Neighbors("a.go:Beta"))
	assert.Equal(t, []string{"a.go:Beta"}, s.Neighbors("a.go:Alpha"))
	assert.Empty(t, s.Neighbors("missing"))
}

func TestStoreEdgeWeight(t *testing.T) {
	s := buildTestStore(t)

	assert.Equal(t, 1.0, s.EdgeWeight("a.go:Alpha", "a.go:Beta"), "default weight applies")
	assert.Equal(t, 2.5, s.EdgeWeight("a.go:Beta", "b.go:Gamma"))
	assert.Equal(t, 0.0, s.EdgeWeight("a.go:Alpha", "b.go:Gamma"))
}

func TestStoreHasEdgeEitherDirection(t *testing.T) {
	s := buildTestStore(t)

	assert.True(t, s.HasEdge("a.go:Alpha", "a.go:Beta"))
	assert.True(t, s.HasEdge("a.go:Beta", "a.go:Alpha"))
	assert.False(t, s.HasEdge("a.go:Alpha", "b.go:Gamma"))
}

func TestStoreDegree(t *testing.T) {
	s := buildTestStore(t)

	assert.Equal(t, 1, s.Degree("a.go:Alpha"))
	assert.Equal(t, 2, s.Degree("a.go:Beta"))
	assert.Equal(t, 1, s.Degree("b.go:Gamma"))
}

func TestStoreFreeze(t *testing.T) {
	s := buildTestStore(t)
	s.Freeze()

	assert.Error(t, s.AddElement(Element{ID: "new"}))
	assert.Error(t, s.AddEdge(Edge{FromID: "a.go:Alpha", ToID: "a.go:Beta"}))

	// Reads still work
	assert.Equal(t, 3, s.Len())
}

func TestStoreElementIDsSorted(t *testing.T) {
	s := buildTestStore(t)
	assert.Equal(t, []string{"a.go:Alpha", "a.go:Beta", "b.go:Gamma"}, s.ElementIDs())
}
