package clustering

import (
	"github.com/c360/codegraph/graph"
)

// computeCommunityMetrics computes cohesion and coupling for one community.
// Cohesion is internal edges over possible internal edges (treating edges as
// undirected pairs); coupling is external edges over total incident edges.
func computeCommunityMetrics(store *graph.Store, members []string) (cohesion, coupling float64) {
	n := len(members)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		// A singleton has no internal structure; coupling still reflects
		// how much it points outward.
		member := set(members)
		_, external := countEdges(store, members, member)
		if external > 0 {
			coupling = 1.0
		}
		return 1.0, coupling
	}

	memberSet := set(members)
	internal, external := countEdges(store, members, memberSet)

	possible := n * (n - 1) / 2
	if possible > 0 {
		cohesion = float64(internal) / float64(possible)
	}
	total := internal + external
	if total > 0 {
		coupling = float64(external) / float64(total)
	}
	return cohesion, coupling
}

// countEdges counts undirected internal pairs and external incident edges
// for a community.
func countEdges(store *graph.Store, members []string, memberSet map[string]bool) (internal, external int) {
	seenPair := make(map[[2]string]bool)
	for _, id := range members {
		for _, neighbor := range store.Neighbors(id) {
			if memberSet[neighbor] {
				a, b := id, neighbor
				if a > b {
					a, b = b, a
				}
				key := [2]string{a, b}
				if !seenPair[key] {
					seenPair[key] = true
					internal++
				}
			} else {
				external++
			}
		}
	}
	return internal, external
}

// computeModularity computes Newman modularity of a partition over the
// undirected view of the graph: Q = sum over communities of
// (e_c/m - (d_c/2m)^2) where e_c is internal edges, d_c total degree.
func computeModularity(store *graph.Store, assignments map[string]string) float64 {
	type accum struct {
		internal int
		degree   int
	}

	// Undirected edge count via unique neighbor pairs
	m := 0
	seenPair := make(map[[2]string]bool)
	perCommunity := make(map[string]*accum)

	for id, communityID := range assignments {
		acc := perCommunity[communityID]
		if acc == nil {
			acc = &accum{}
			perCommunity[communityID] = acc
		}
		neighbors := store.Neighbors(id)
		acc.degree += len(neighbors)

		for _, neighbor := range neighbors {
			a, b := id, neighbor
			if a > b {
				a, b = b, a
			}
			key := [2]string{a, b}
			if seenPair[key] {
				continue
			}
			seenPair[key] = true
			m++
			if assignments[neighbor] == communityID {
				acc.internal++
			}
		}
	}

	if m == 0 {
		return 0
	}

	q := 0.0
	twoM := 2.0 * float64(m)
	for _, acc := range perCommunity {
		q += float64(acc.internal)/float64(m) - (float64(acc.degree)/twoM)*(float64(acc.degree)/twoM)
	}
	return q
}

func set(ids []string) map[string]bool {
	s := make(map[string]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}
