package enrich

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/codegraph/graph"
)

func fallbackContext() *CommunityContext {
	return &CommunityContext{
		CommunityID: "comm-3",
		Members: []CommunityMember{
			{ElementID: "api/handler.go:Handle", Kind: graph.KindFunction, Name: "Handle", FilePath: "api/handler.go"},
			{ElementID: "model/user.go:User", Kind: graph.KindClass, Name: "User", FilePath: "model/user.go"},
		},
		Size:     2,
		Cohesion: 0.5,
		Coupling: 0.25,
	}
}

func TestFallbackDeterministic(t *testing.T) {
	g := NewFallbackGenerator()
	cc := fallbackContext()

	first, err := json.Marshal(g.Generate(cc))
	require.NoError(t, err)
	second, err := json.Marshal(g.Generate(cc))
	require.NoError(t, err)
	assert.Equal(t, first, second, "fallback must be byte-identical for identical contexts")
}

func TestFallbackResult(t *testing.T) {
	result := NewFallbackGenerator().Generate(fallbackContext())

	assert.Equal(t, "comm-3", result.CommunityID)
	assert.Equal(t, SourceFallback, result.Source)
	assert.NotEmpty(t, result.Functionality)
	assert.Contains(t, result.Functionality, "2 code elements")

	// api and model paths produce sorted tags
	assert.Equal(t, []string{"api", "model"}, result.Tags)

	// testing > api_layer > data_model priority; no test members here
	assert.Equal(t, "api_layer", result.ArchitecturePattern)

	// cohesion 0.5, coupling 0.25: 5 - 5 + 5 = 5
	assert.Equal(t, 5, result.QualityScore)

	// Healthy metrics get the keep-it-up suggestion
	require.Len(t, result.Suggestions, 1)
}

func TestFallbackGeneralTag(t *testing.T) {
	result := NewFallbackGenerator().Generate(&CommunityContext{
		CommunityID: "comm-9",
		Members: []CommunityMember{
			{ElementID: "x.go:Foo", Kind: graph.KindFunction, Name: "Foo", FilePath: "x.go"},
		},
		Size: 1,
	})

	assert.Equal(t, []string{"general"}, result.Tags)
	assert.Empty(t, result.ArchitecturePattern, "no naming hint means no pattern claim")
}

func TestFallbackSuggestionsForWeakStructure(t *testing.T) {
	result := NewFallbackGenerator().Generate(&CommunityContext{
		CommunityID: "comm-1",
		Members: []CommunityMember{
			{ElementID: "a.go:A", Name: "A", FilePath: "a.go"},
		},
		Size:     1,
		Cohesion: 0.1,
		Coupling: 0.8,
	})

	assert.Len(t, result.Suggestions, 2)
	// 0.1*10 - 0.8*20 + 5 = 1 - 16 + 5 = -10, clamped
	assert.Equal(t, 1, result.QualityScore)
}

func TestDesignQualityClamped(t *testing.T) {
	assert.Equal(t, 10, designQuality(1.0, 0.0))
	assert.Equal(t, 1, designQuality(0.0, 1.0))
	assert.Equal(t, 5, designQuality(0.0, 0.0))
}

func TestDesignQualityTruncatesAfterOffset(t *testing.T) {
	// 0.25*10 - 0.25*20 + 5 = 2.5; truncation happens on the full
	// expression, so the score is 2, not 3
	assert.Equal(t, 2, designQuality(0.25, 0.25))
}

func TestFallbackTestPatternWins(t *testing.T) {
	result := NewFallbackGenerator().Generate(&CommunityContext{
		CommunityID: "comm-2",
		Members: []CommunityMember{
			{ElementID: "api/api_test.go:TestAPI", Name: "TestAPI", FilePath: "api/api_test.go"},
		},
		Size: 1,
	})
	assert.Equal(t, "testing", result.ArchitecturePattern)
	assert.Contains(t, result.Tags, "test")
}
