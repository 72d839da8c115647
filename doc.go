// Package codegraph analyzes a Go source tree as a graph of code elements
// and explains its structure community by community.
//
// # Pipeline
//
// The analyzer runs four stages:
//
//  1. Scan (scanner): parse every Go file under the project root and build
//     a knowledge graph. Nodes are declared types and functions; weighted
//     edges record name references between files.
//  2. Cluster (clustering): partition the graph into communities with
//     seeded label propagation, then score each community's cohesion and
//     coupling and rank representative members by PageRank.
//  3. Enrich (enrich): describe each community's functionality. A bounded,
//     paced scheduler fans communities out to an OpenAI-compatible chat
//     endpoint; failures fall back to deterministic structural heuristics,
//     and a fingerprint cache skips communities that have not changed.
//  4. Report (report): render the partition and enrichment results as
//     Markdown or JSON, with run statistics and AI coverage.
//
// # Guarantees
//
// Enrichment always produces exactly one result per input community, even
// under cancellation or endpoint failure. At most the configured number of
// AI calls run concurrently, and call starts are paced by the dispatch
// interval. Fallback output is deterministic for a given community.
//
// Supporting packages: graph holds the immutable store, config loads YAML
// configuration, errors classifies failures as transient, invalid, or
// fatal, metric wraps Prometheus registration, and pkg/ carries generic
// cache, retry, and worker-pool utilities.
package codegraph
