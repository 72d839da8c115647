package clustering

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/c360/codegraph/errors"
	"github.com/c360/codegraph/graph"
)

const (
	// DefaultMaxIterations is the default iteration cap for label propagation.
	DefaultMaxIterations = 100

	// MaxIterationsLimit is the highest allowed iteration cap.
	MaxIterationsLimit = 10000

	// DefaultRepresentatives is how many top members to keep per community.
	DefaultRepresentatives = 5
)

// LPADetector detects communities with the Label Propagation Algorithm.
// Each element starts with a unique label; elements repeatedly adopt the
// weighted-majority label of their neighbors until no label changes.
type LPADetector struct {
	store *graph.Store

	maxIterations   int
	representatives int
	seed            int64
	logger          *slog.Logger
}

// NewLPADetector creates a detector over a frozen graph store.
func NewLPADetector(store *graph.Store) *LPADetector {
	return &LPADetector{
		store:           store,
		maxIterations:   DefaultMaxIterations,
		representatives: DefaultRepresentatives,
		seed:            1,
		logger:          slog.Default(),
	}
}

// WithMaxIterations sets the iteration cap with validation.
func (d *LPADetector) WithMaxIterations(max int) *LPADetector {
	if max <= 0 {
		max = DefaultMaxIterations
	}
	if max > MaxIterationsLimit {
		max = MaxIterationsLimit
	}
	d.maxIterations = max
	return d
}

// WithSeed fixes the shuffle seed so partitions are reproducible.
func (d *LPADetector) WithSeed(seed int64) *LPADetector {
	d.seed = seed
	return d
}

// WithRepresentatives sets how many top-ranked members each community keeps.
func (d *LPADetector) WithRepresentatives(n int) *LPADetector {
	if n > 0 {
		d.representatives = n
	}
	return d
}

// WithLogger sets the structured logger.
func (d *LPADetector) WithLogger(logger *slog.Logger) *LPADetector {
	d.logger = logger
	return d
}

// Detect partitions the graph and computes per-community metrics.
func (d *LPADetector) Detect(ctx context.Context) (*Partition, error) {
	if d.store == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "LPADetector", "Detect", "store is nil")
	}

	elementIDs := d.store.ElementIDs()
	if len(elementIDs) == 0 {
		return &Partition{
			Communities: []*Community{},
			Assignments: map[string]string{},
			Converged:   true,
		}, nil
	}

	// Each element's own ID is its initial label
	labels := make(map[string]string, len(elementIDs))
	for _, id := range elementIDs {
		labels[id] = id
	}

	rng := rand.New(rand.NewSource(d.seed))
	shuffled := make([]string, len(elementIDs))
	copy(shuffled, elementIDs)

	converged := false
	iterations := 0
	for iterations = 0; iterations < d.maxIterations; iterations++ {
		select {
		case <-ctx.Done():
			return nil, errors.WrapTransient(ctx.Err(), "LPADetector", "Detect", "context cancelled")
		default:
		}

		// Shuffling the update order reduces label oscillation
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		changed := false
		for _, id := range shuffled {
			newLabel := d.majorityLabel(id, labels)
			if newLabel != labels[id] {
				labels[id] = newLabel
				changed = true
			}
		}
		if !changed {
			converged = true
			iterations++
			break
		}
	}

	partition := d.buildPartition(ctx, labels)
	partition.Iterations = iterations
	partition.Converged = converged
	partition.Modularity = computeModularity(d.store, partition.Assignments)

	d.logger.Info("community detection complete",
		"elements", len(elementIDs),
		"communities", len(partition.Communities),
		"iterations", iterations,
		"converged", converged,
		"modularity", partition.Modularity)
	return partition, nil
}

// majorityLabel returns the weighted-majority label among the element's
// neighbors, with deterministic lexical tie-breaking. Isolated elements
// keep their own label.
func (d *LPADetector) majorityLabel(id string, labels map[string]string) string {
	neighbors := d.store.Neighbors(id)
	if len(neighbors) == 0 {
		return labels[id]
	}

	votes := make(map[string]float64)
	for _, neighborID := range neighbors {
		neighborLabel, ok := labels[neighborID]
		if !ok {
			continue
		}
		weight := d.store.EdgeWeight(id, neighborID)
		if reverse := d.store.EdgeWeight(neighborID, id); reverse > weight {
			weight = reverse
		}
		if weight <= 0 {
			weight = 1.0
		}
		votes[neighborLabel] += weight
	}

	maxVotes := 0.0
	winning := ""
	for label, v := range votes {
		if v > maxVotes || (v == maxVotes && (winning == "" || label < winning)) {
			maxVotes = v
			winning = label
		}
	}
	if winning == "" {
		return labels[id]
	}
	return winning
}

// buildPartition groups elements by final label and computes metrics.
func (d *LPADetector) buildPartition(ctx context.Context, labels map[string]string) *Partition {
	byLabel := make(map[string][]string)
	for id, label := range labels {
		byLabel[label] = append(byLabel[label], id)
	}

	labelsSorted := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labelsSorted = append(labelsSorted, label)
	}
	sort.Strings(labelsSorted)

	assignments := make(map[string]string, len(labels))
	communities := make([]*Community, 0, len(byLabel))
	for i, label := range labelsSorted {
		members := byLabel[label]
		sort.Strings(members)

		communityID := fmt.Sprintf("comm-%d", i)
		cohesion, coupling := computeCommunityMetrics(d.store, members)
		community := &Community{
			ID:       communityID,
			Members:  members,
			Size:     len(members),
			Cohesion: cohesion,
			Coupling: coupling,
		}
		community.Representatives = ComputeRepresentatives(ctx, d.store, members, d.representatives)

		communities = append(communities, community)
		for _, m := range members {
			assignments[m] = communityID
		}
	}

	sort.Slice(communities, func(i, j int) bool {
		if communities[i].Size != communities[j].Size {
			return communities[i].Size > communities[j].Size
		}
		return communities[i].ID < communities[j].ID
	})

	return &Partition{
		Communities: communities,
		Assignments: assignments,
	}
}
