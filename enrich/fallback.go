package enrich

import (
	"fmt"
	"sort"
	"strings"
)

// FallbackGenerator derives a best-effort enrichment result from structural
// heuristics alone. It is pure and offline, cannot fail, and produces
// byte-identical output for identical contexts; it is the pipeline's
// guaranteed terminal fallback.
type FallbackGenerator struct{}

// NewFallbackGenerator creates the heuristic generator.
func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{}
}

// filePatterns maps a functional tag to path substrings that imply it.
var filePatterns = map[string][]string{
	"test":   {"test_", "_test", "tests/"},
	"config": {"config", "settings", "env"},
	"api":    {"api", "endpoint", "service"},
	"model":  {"model", "entity", "schema"},
	"util":   {"util", "helper", "common"},
	"ui":     {"ui", "view", "component"},
	"core":   {"core", "base", "main"},
}

// patternChecks maps architecture patterns to the path hint that implies
// them, in priority order. No hint means no pattern claim.
var patternChecks = []struct {
	hint    string
	pattern string
}{
	{"test", "testing"},
	{"api", "api_layer"},
	{"model", "data_model"},
	{"service", "service_layer"},
}

// Generate produces the fallback result for a community.
func (g *FallbackGenerator) Generate(cc *CommunityContext) *EnrichmentResult {
	tags := g.extractTags(cc.Members)

	return &EnrichmentResult{
		CommunityID:         cc.CommunityID,
		Functionality:       g.describe(cc, tags),
		QualityScore:        designQuality(cc.Cohesion, cc.Coupling),
		ArchitecturePattern: inferPattern(cc.Members),
		Suggestions:         suggestions(cc.Cohesion, cc.Coupling),
		Tags:                tags,
		Source:              SourceFallback,
	}
}

// extractTags classifies members by file-path and name conventions.
func (g *FallbackGenerator) extractTags(members []CommunityMember) []string {
	detected := make(map[string]bool)
	for _, m := range members {
		lower := strings.ToLower(m.FilePath + " " + m.Name)
		for tag, patterns := range filePatterns {
			for _, p := range patterns {
				if strings.Contains(lower, p) {
					detected[tag] = true
					break
				}
			}
		}
	}
	if len(detected) == 0 {
		return []string{"general"}
	}

	tags := make([]string, 0, len(detected))
	for tag := range detected {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (g *FallbackGenerator) describe(cc *CommunityContext, tags []string) string {
	return fmt.Sprintf("Community %s contains %d code elements, mainly involving %s.",
		cc.CommunityID, cc.Size, strings.Join(tags, ", "))
}

// inferPattern guesses an architecture pattern only when file naming
// strongly suggests one; otherwise it stays empty.
func inferPattern(members []CommunityMember) string {
	for _, check := range patternChecks {
		for _, m := range members {
			lower := strings.ToLower(m.FilePath + " " + m.Name)
			if strings.Contains(lower, check.hint) {
				return check.pattern
			}
		}
	}
	return ""
}

// designQuality scores high cohesion and low coupling, clamped to 1..10.
func designQuality(cohesion, coupling float64) int {
	score := int(cohesion*10 - coupling*20 + 5)
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}

func suggestions(cohesion, coupling float64) []string {
	var out []string
	if cohesion < 0.3 {
		out = append(out, "Increase cohesion by grouping related functionality together")
	}
	if coupling > 0.3 {
		out = append(out, "Reduce coupling by limiting dependencies on external modules")
	}
	if len(out) == 0 {
		out = append(out, "Module structure is sound; maintain the current cohesion and coupling")
	}
	return out
}
