// Package clustering partitions the knowledge graph into communities using
// label propagation, and computes the structural metrics (cohesion, coupling,
// modularity) and representative members the enrichment stage consumes.
package clustering

// Community is a set of densely interconnected code elements.
type Community struct {
	// ID uniquely identifies the community within one partition.
	ID string `json:"id"`

	// Members are element IDs, sorted.
	Members []string `json:"members"`

	// Size is len(Members), kept explicit for serialized output.
	Size int `json:"size"`

	// Cohesion is the ratio of internal edges to possible internal edges.
	Cohesion float64 `json:"cohesion"`

	// Coupling is the ratio of external edges to total incident edges.
	Coupling float64 `json:"coupling"`

	// Representatives are the top members by PageRank within the community.
	Representatives []string `json:"representatives,omitempty"`
}

// Partition is the full community detection result for one graph.
type Partition struct {
	// Communities sorted by descending size, ties broken by ID.
	Communities []*Community `json:"communities"`

	// Assignments maps element ID to community ID.
	Assignments map[string]string `json:"assignments"`

	// Modularity of the partition, in [-0.5, 1].
	Modularity float64 `json:"modularity"`

	// Iterations the label propagation ran before converging.
	Iterations int `json:"iterations"`

	// Converged reports whether propagation stabilized before the
	// iteration limit.
	Converged bool `json:"converged"`
}
