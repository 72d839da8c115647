package enrich

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/c360/codegraph/clustering"
	"github.com/c360/codegraph/errors"
	"github.com/c360/codegraph/graph"
)

// DefaultMaxMembers caps how many members a context carries, bounding
// prompt size.
const DefaultMaxMembers = 20

// ContextBuilder assembles CommunityContexts from the knowledge graph.
// It is pure: identical inputs always produce identical contexts,
// fingerprints included.
type ContextBuilder struct {
	store      *graph.Store
	maxMembers int
}

// BuilderOption configures a ContextBuilder.
type BuilderOption func(*ContextBuilder)

// WithMaxMembers overrides the member cap.
func WithMaxMembers(n int) BuilderOption {
	return func(b *ContextBuilder) {
		if n > 0 {
			b.maxMembers = n
		}
	}
}

// NewContextBuilder creates a builder over a knowledge graph.
func NewContextBuilder(store *graph.Store, opts ...BuilderOption) *ContextBuilder {
	b := &ContextBuilder{
		store:      store,
		maxMembers: DefaultMaxMembers,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the context for one community. It fails only on malformed
// input: an empty member set yields an invalid-community error, never a
// silently empty context.
func (b *ContextBuilder) Build(community *clustering.Community) (*CommunityContext, error) {
	if community == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidCommunity, "ContextBuilder", "Build", "community is nil")
	}
	if len(community.Members) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidCommunity, "ContextBuilder", "Build",
			"community "+community.ID+" has no members")
	}

	// Dedupe and stable-sort member IDs so truncation is reproducible
	seen := make(map[string]bool, len(community.Members))
	ids := make([]string, 0, len(community.Members))
	for _, id := range community.Members {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidCommunity, "ContextBuilder", "Build",
			"community "+community.ID+" has only empty member IDs")
	}
	sort.Strings(ids)

	size := len(ids)
	truncated := false
	if len(ids) > b.maxMembers {
		ids = ids[:b.maxMembers]
		truncated = true
	}

	members := make([]CommunityMember, 0, len(ids))
	for _, id := range ids {
		members = append(members, b.resolveMember(id))
	}

	cc := &CommunityContext{
		CommunityID: community.ID,
		Members:     members,
		Size:        size,
		Truncated:   truncated,
		Cohesion:    community.Cohesion,
		Coupling:    community.Coupling,
	}
	cc.Fingerprint = fingerprint(cc)
	return cc, nil
}

// BuildAll assembles contexts for a whole partition, skipping nothing: a
// malformed community fails the batch since the detector never emits one.
func (b *ContextBuilder) BuildAll(communities []*clustering.Community) ([]*CommunityContext, error) {
	contexts := make([]*CommunityContext, 0, len(communities))
	for _, c := range communities {
		cc, err := b.Build(c)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, cc)
	}
	return contexts, nil
}

// resolveMember looks the element up in the graph, falling back to parsing
// the conventional "path:Name" ID shape when the store has no record.
func (b *ContextBuilder) resolveMember(id string) CommunityMember {
	if b.store != nil {
		if el, ok := b.store.Element(id); ok {
			return CommunityMember{
				ElementID: el.ID,
				Kind:      el.Kind,
				Name:      el.Name,
				FilePath:  el.FilePath,
			}
		}
	}

	member := CommunityMember{ElementID: id, Kind: graph.KindModule}
	if idx := strings.LastIndex(id, ":"); idx > 0 {
		member.FilePath = id[:idx]
		member.Name = id[idx+1:]
	} else {
		member.Name = id
	}
	return member
}

// fingerprint hashes the sorted member IDs, the structural text included in
// prompts, and the community metrics. No wall clock, no randomness.
func fingerprint(cc *CommunityContext) string {
	h := sha256.New()
	for _, m := range cc.Members {
		h.Write([]byte(m.ElementID))
		h.Write([]byte{0})
		h.Write([]byte(m.Kind))
		h.Write([]byte{0})
		h.Write([]byte(m.FilePath))
		h.Write([]byte{0})
	}
	fmt.Fprintf(h, "size=%d|cohesion=%.6f|coupling=%.6f|truncated=%t",
		cc.Size, cc.Cohesion, cc.Coupling, cc.Truncated)
	return hex.EncodeToString(h.Sum(nil))
}

// BuildRequest derives the enrichment prompt from a context. Deterministic:
// same context, same prompt.
func BuildRequest(cc *CommunityContext) EnrichmentRequest {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analyze this community of %d code elements from a software project.\n\n", cc.Size)

	kindCount := make(map[graph.Kind]int)
	for _, m := range cc.Members {
		kindCount[m.Kind]++
	}
	sb.WriteString("Element kinds:\n")
	for _, kind := range []graph.Kind{graph.KindClass, graph.KindFunction, graph.KindModule} {
		if kindCount[kind] > 0 {
			fmt.Fprintf(&sb, "- %s: %d\n", kind, kindCount[kind])
		}
	}

	sb.WriteString("\nMembers:\n")
	for _, m := range cc.Members {
		fmt.Fprintf(&sb, "- %s (%s) in %s\n", m.Name, m.Kind, m.FilePath)
	}
	if cc.Truncated {
		fmt.Fprintf(&sb, "... and %d more members omitted\n", cc.Size-len(cc.Members))
	}

	fmt.Fprintf(&sb, "\nStructural metrics: cohesion=%.3f coupling=%.3f\n", cc.Cohesion, cc.Coupling)

	sb.WriteString(`
Describe the community and return ONLY a JSON object with these fields:
{
  "functionality": "one-paragraph description of what this community does",
  "quality_score": integer from 1 to 10,
  "architecture_pattern": "pattern name, or omit if unclear",
  "suggestions": ["refactoring suggestion", ...],
  "tags": ["functional tag", ...]
}
`)

	return EnrichmentRequest{
		CommunityID: cc.CommunityID,
		PromptText:  sb.String(),
	}
}
