package clustering

import (
	"context"
	"math"
	"sort"

	"github.com/c360/codegraph/graph"
)

// PageRankConfig holds configuration for PageRank computation.
type PageRankConfig struct {
	// Iterations is the maximum number of iterations (default: 20).
	Iterations int

	// DampingFactor is the probability of continuing the random walk
	// (default: 0.85).
	DampingFactor float64

	// Tolerance is the convergence threshold (default: 1e-6).
	Tolerance float64

	// TopN limits how many ranked IDs are returned (0 = all).
	TopN int
}

// DefaultPageRankConfig returns the standard PageRank configuration.
func DefaultPageRankConfig() PageRankConfig {
	return PageRankConfig{
		Iterations:    20,
		DampingFactor: 0.85,
		Tolerance:     1e-6,
	}
}

// PageRankResult holds the outcome of a PageRank computation.
type PageRankResult struct {
	// Scores maps element ID to normalized PageRank score.
	Scores map[string]float64

	// Ranked contains element IDs sorted by descending score.
	Ranked []string

	// Iterations actually run.
	Iterations int

	// Converged reports whether the tolerance was reached early.
	Converged bool
}

// ComputePageRank ranks a subset of elements by PageRank over the edges
// internal to the subset.
func ComputePageRank(ctx context.Context, store *graph.Store, nodeIDs []string, config PageRankConfig) (*PageRankResult, error) {
	n := len(nodeIDs)
	if n == 0 {
		return &PageRankResult{
			Scores:    map[string]float64{},
			Ranked:    []string{},
			Converged: true,
		}, nil
	}

	nodeIndex := make(map[string]int, n)
	for i, id := range nodeIDs {
		nodeIndex[id] = i
	}

	// Adjacency restricted to the subset
	inLinks := make([][]int, n)
	outLinkCount := make([]int, n)
	for i, fromID := range nodeIDs {
		for _, toID := range store.Neighbors(fromID) {
			if store.EdgeWeight(fromID, toID) <= 0 {
				continue // only outgoing direction counts for the walk
			}
			if toIdx, ok := nodeIndex[toID]; ok {
				inLinks[toIdx] = append(inLinks[toIdx], i)
				outLinkCount[i]++
			}
		}
	}

	scores := make([]float64, n)
	initial := 1.0 / float64(n)
	for i := range scores {
		scores[i] = initial
	}

	d := config.DampingFactor
	teleport := (1.0 - d) / float64(n)

	newScores := make([]float64, n)
	converged := false
	iterations := 0
	for iterations = 0; iterations < config.Iterations; iterations++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for i := range newScores {
			sum := 0.0
			for _, j := range inLinks[i] {
				if outLinkCount[j] > 0 {
					sum += scores[j] / float64(outLinkCount[j])
				}
			}
			newScores[i] = teleport + d*sum
		}

		maxDiff := 0.0
		for i := range scores {
			if diff := math.Abs(newScores[i] - scores[i]); diff > maxDiff {
				maxDiff = diff
			}
		}
		scores, newScores = newScores, scores
		if maxDiff < config.Tolerance {
			converged = true
			iterations++
			break
		}
	}

	scoreMap := make(map[string]float64, n)
	sum := 0.0
	for i, id := range nodeIDs {
		scoreMap[id] = scores[i]
		sum += scores[i]
	}
	if sum > 0 {
		for id := range scoreMap {
			scoreMap[id] /= sum
		}
	}

	type scoredNode struct {
		id    string
		score float64
	}
	ranked := make([]scoredNode, 0, n)
	for id, score := range scoreMap {
		ranked = append(ranked, scoredNode{id, score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})

	limit := n
	if config.TopN > 0 && config.TopN < n {
		limit = config.TopN
	}
	rankedIDs := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		rankedIDs = append(rankedIDs, ranked[i].id)
	}

	return &PageRankResult{
		Scores:     scoreMap,
		Ranked:     rankedIDs,
		Iterations: iterations,
		Converged:  converged,
	}, nil
}

// ComputeRepresentatives returns the top members of a community. PageRank
// ranks communities of three or more members; smaller communities fall back
// to degree centrality.
func ComputeRepresentatives(ctx context.Context, store *graph.Store, members []string, topN int) []string {
	if len(members) == 0 {
		return []string{}
	}

	if len(members) >= 3 {
		config := DefaultPageRankConfig()
		config.TopN = topN
		result, err := ComputePageRank(ctx, store, members, config)
		if err == nil {
			return result.Ranked
		}
	}
	return rankByDegree(store, members, topN)
}

// rankByDegree sorts members by descending degree with lexical tie-breaking.
func rankByDegree(store *graph.Store, members []string, topN int) []string {
	type degreeNode struct {
		id     string
		degree int
	}
	nodes := make([]degreeNode, 0, len(members))
	for _, id := range members {
		nodes = append(nodes, degreeNode{id, store.Degree(id)})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].degree != nodes[j].degree {
			return nodes[i].degree > nodes[j].degree
		}
		return nodes[i].id < nodes[j].id
	})

	limit := len(nodes)
	if topN > 0 && topN < limit {
		limit = topN
	}
	ranked := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		ranked = append(ranked, nodes[i].id)
	}
	return ranked
}
