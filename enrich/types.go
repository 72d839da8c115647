// Package enrich implements the community enrichment pipeline: it takes a
// community partition plus per-community structural context and produces,
// for every community, a validated semantic description. Descriptions come
// from an external AI text service when possible, from a deterministic
// structural fallback otherwise, and from the fingerprint cache when the
// community's content has been analyzed before.
package enrich

import (
	"time"

	"github.com/c360/codegraph/graph"
)

// Source tags where an enrichment result came from.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
	SourceCache    Source = "cache"
)

// CommunityMember is a read-only code-element reference inside a community.
type CommunityMember struct {
	ElementID string     `json:"element_id"`
	Kind      graph.Kind `json:"kind"`
	Name      string     `json:"name"`
	FilePath  string     `json:"file_path"`
}

// CommunityContext is the bounded structural summary of one community,
// built once per analysis run and immutable afterward.
type CommunityContext struct {
	// CommunityID is the detector-assigned identifier.
	CommunityID string `json:"community_id"`

	// Members are deduplicated, sorted by element ID, and capped at the
	// builder's member limit.
	Members []CommunityMember `json:"members"`

	// Size is the original member count before truncation.
	Size int `json:"size"`

	// Truncated reports whether Members was capped.
	Truncated bool `json:"truncated"`

	Cohesion float64 `json:"cohesion"`
	Coupling float64 `json:"coupling"`

	// Fingerprint is a deterministic hash of the sorted member IDs and
	// the structural metrics; equal fingerprints mean equal content for
	// caching purposes.
	Fingerprint string `json:"fingerprint"`
}

// EnrichmentRequest is the prompt derived deterministically from a context.
type EnrichmentRequest struct {
	CommunityID string `json:"community_id"`
	PromptText  string `json:"prompt_text"`
}

// EnrichmentResult is the semantic description of one community. The
// pipeline guarantees exactly one result per input community.
type EnrichmentResult struct {
	CommunityID string `json:"community_id"`

	// Functionality is the natural-language description; never empty.
	Functionality string `json:"functionality"`

	// QualityScore is a design quality rating in 1..10.
	QualityScore int `json:"quality_score"`

	// ArchitecturePattern is empty when no pattern could be inferred.
	ArchitecturePattern string `json:"architecture_pattern,omitempty"`

	Suggestions []string `json:"suggestions"`
	Tags        []string `json:"tags"`

	Source Source `json:"source"`
}

// RunStats summarizes one pipeline run. CacheHits + AISuccesses + Fallbacks
// always equals TotalCommunities.
type RunStats struct {
	RunID            string        `json:"run_id"`
	TotalCommunities int           `json:"total_communities"`
	CacheHits        int           `json:"cache_hits"`
	AISuccesses      int           `json:"ai_successes"`
	Fallbacks        int           `json:"fallbacks"`
	Elapsed          time.Duration `json:"elapsed"`
}

// AICoverage returns the fraction of communities described by the AI path
// (including cache hits, which are replayed AI results).
func (s RunStats) AICoverage() float64 {
	if s.TotalCommunities == 0 {
		return 0
	}
	return float64(s.AISuccesses+s.CacheHits) / float64(s.TotalCommunities)
}
