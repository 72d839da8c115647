// Package report renders analysis output for human and machine consumers.
// The Markdown form is the readable per-community summary; the JSON form is
// the full structured result for downstream tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/c360/codegraph/clustering"
	"github.com/c360/codegraph/enrich"
	"github.com/c360/codegraph/errors"
)

// Report bundles everything one analysis run produced.
type Report struct {
	ProjectRoot string                              `json:"project_root"`
	Partition   *clustering.Partition               `json:"partition"`
	Results     map[string]*enrich.EnrichmentResult `json:"results"`
	Stats       *enrich.RunStats                    `json:"stats"`
}

// New assembles a report, checking that the enrichment mapping covers the
// partition.
func New(projectRoot string, partition *clustering.Partition, results map[string]*enrich.EnrichmentResult, stats *enrich.RunStats) (*Report, error) {
	if partition == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Report", "New", "partition is nil")
	}
	for _, c := range partition.Communities {
		if _, ok := results[c.ID]; !ok {
			return nil, errors.WrapInvalid(errors.ErrInvalidData, "Report", "New",
				"missing enrichment result for community "+c.ID)
		}
	}
	return &Report{
		ProjectRoot: projectRoot,
		Partition:   partition,
		Results:     results,
		Stats:       stats,
	}, nil
}

// Coverage describes how much of the partition the AI path covered,
// counting replayed cache hits as AI-described.
func (r *Report) Coverage() string {
	if r.Stats == nil {
		return ""
	}
	return fmt.Sprintf("%d of %d communities analyzed by AI, %d used fallback",
		r.Stats.AISuccesses+r.Stats.CacheHits, r.Stats.TotalCommunities, r.Stats.Fallbacks)
}

// WriteJSON emits the full report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return errors.WrapTransient(err, "Report", "WriteJSON", "encode report")
	}
	return nil
}

// WriteMarkdown emits the human-readable report.
func (r *Report) WriteMarkdown(w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("# Code Community Analysis\n\n")
	fmt.Fprintf(&sb, "Project: `%s`\n\n", r.ProjectRoot)

	if r.Stats != nil {
		sb.WriteString("## Run Summary\n\n")
		fmt.Fprintf(&sb, "- Run ID: `%s`\n", r.Stats.RunID)
		fmt.Fprintf(&sb, "- Communities: %d\n", r.Stats.TotalCommunities)
		fmt.Fprintf(&sb, "- Coverage: %s\n", r.Coverage())
		fmt.Fprintf(&sb, "- Cache hits: %d\n", r.Stats.CacheHits)
		fmt.Fprintf(&sb, "- Elapsed: %s\n", r.Stats.Elapsed.Round(time.Millisecond))
		fmt.Fprintf(&sb, "- Modularity: %.4f\n\n", r.Partition.Modularity)
	}

	sb.WriteString("## Communities\n\n")
	for _, c := range sortedCommunities(r.Partition) {
		result := r.Results[c.ID]

		fmt.Fprintf(&sb, "### %s (%d members)\n\n", c.ID, c.Size)
		fmt.Fprintf(&sb, "%s\n\n", result.Functionality)
		fmt.Fprintf(&sb, "- Source: %s\n", result.Source)
		fmt.Fprintf(&sb, "- Design quality: %d/10\n", result.QualityScore)
		if result.ArchitecturePattern != "" {
			fmt.Fprintf(&sb, "- Architecture pattern: %s\n", result.ArchitecturePattern)
		}
		fmt.Fprintf(&sb, "- Cohesion: %.3f, coupling: %.3f\n", c.Cohesion, c.Coupling)
		if len(result.Tags) > 0 {
			fmt.Fprintf(&sb, "- Tags: %s\n", strings.Join(result.Tags, ", "))
		}
		if len(c.Representatives) > 0 {
			fmt.Fprintf(&sb, "- Representative members: %s\n", strings.Join(c.Representatives, ", "))
		}
		if len(result.Suggestions) > 0 {
			sb.WriteString("\nSuggestions:\n\n")
			for _, suggestion := range result.Suggestions {
				fmt.Fprintf(&sb, "- %s\n", suggestion)
			}
		}
		sb.WriteString("\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return errors.WrapTransient(err, "Report", "WriteMarkdown", "write report")
	}
	return nil
}

// sortedCommunities orders output by descending size then ID, matching the
// partition's own ordering even if the caller rebuilt the slice.
func sortedCommunities(p *clustering.Partition) []*clustering.Community {
	out := make([]*clustering.Community, len(p.Communities))
	copy(out, p.Communities)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].ID < out[j].ID
	})
	return out
}
