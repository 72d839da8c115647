package graph

import (
	"sort"
	"sync"

	"github.com/c360/codegraph/errors"
)

// Store is an in-memory knowledge graph. Writes happen during scanning;
// after Freeze it is safe for unsynchronized concurrent reads.
type Store struct {
	mu       sync.RWMutex
	frozen   bool
	elements map[string]Element
	outgoing map[string][]Edge
	incoming map[string][]Edge
}

// NewStore creates an empty knowledge graph store.
func NewStore() *Store {
	return &Store{
		elements: make(map[string]Element),
		outgoing: make(map[string][]Edge),
		incoming: make(map[string][]Edge),
	}
}

// AddElement inserts an element node. Duplicate IDs are overwritten
// (last write wins); an empty ID is rejected.
func (s *Store) AddElement(el Element) error {
	if el.ID == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Store", "AddElement", "element ID is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return errors.WrapInvalid(errors.ErrInvalidData, "Store", "AddElement", "store is frozen")
	}
	s.elements[el.ID] = el
	return nil
}

// AddEdge inserts a directed edge. Both endpoints must already exist.
// A non-positive weight defaults to 1.0.
func (s *Store) AddEdge(edge Edge) error {
	if edge.FromID == "" || edge.ToID == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Store", "AddEdge", "edge endpoint is empty")
	}
	if edge.Weight <= 0 {
		edge.Weight = 1.0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return errors.WrapInvalid(errors.ErrInvalidData, "Store", "AddEdge", "store is frozen")
	}
	if _, ok := s.elements[edge.FromID]; !ok {
		return errors.WrapInvalid(errors.ErrInvalidData, "Store", "AddEdge", "unknown from element "+edge.FromID)
	}
	if _, ok := s.elements[edge.ToID]; !ok {
		return errors.WrapInvalid(errors.ErrInvalidData, "Store", "AddEdge", "unknown to element "+edge.ToID)
	}

	s.outgoing[edge.FromID] = append(s.outgoing[edge.FromID], edge)
	s.incoming[edge.ToID] = append(s.incoming[edge.ToID], edge)
	return nil
}

// Freeze marks the store read-only. Further writes fail.
func (s *Store) Freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Element returns the element with the given ID.
func (s *Store) Element(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.elements[id]
	return el, ok
}

// ElementIDs returns all element IDs in stable sorted order.
func (s *Store) ElementIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.elements))
	for id := range s.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of elements.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}

// EdgeCount returns the number of directed edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, edges := range s.outgoing {
		count += len(edges)
	}
	return count
}

// Neighbors returns the IDs adjacent to the given element in either
// direction, deduplicated, excluding the element itself.
func (s *Store) Neighbors(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, edge := range s.outgoing[id] {
		if edge.ToID != id {
			seen[edge.ToID] = true
		}
	}
	for _, edge := range s.incoming[id] {
		if edge.FromID != id {
			seen[edge.FromID] = true
		}
	}

	neighbors := make([]string, 0, len(seen))
	for neighborID := range seen {
		neighbors = append(neighbors, neighborID)
	}
	sort.Strings(neighbors)
	return neighbors
}

// EdgeWeight returns the weight of the directed edge from -> to,
// or 0 if no such edge exists.
func (s *Store) EdgeWeight(from, to string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, edge := range s.outgoing[from] {
		if edge.ToID == to {
			return edge.Weight
		}
	}
	return 0
}

// HasEdge reports whether an edge exists between two elements in either direction.
func (s *Store) HasEdge(a, b string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, edge := range s.outgoing[a] {
		if edge.ToID == b {
			return true
		}
	}
	for _, edge := range s.outgoing[b] {
		if edge.ToID == a {
			return true
		}
	}
	return false
}

// Degree returns the number of incident edges (in + out) for an element.
func (s *Store) Degree(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.outgoing[id]) + len(s.incoming[id])
}
