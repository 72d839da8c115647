// Package graph defines the knowledge-graph data model produced by the source
// scanner and consumed by community detection and enrichment. The graph is
// built once per analysis run and is read-only afterwards.
package graph

// Kind classifies a code element.
type Kind string

const (
	KindClass    Kind = "class"
	KindFunction Kind = "function"
	KindModule   Kind = "module"
)

// Element is a single code element node in the knowledge graph.
type Element struct {
	// ID uniquely identifies the element within one analysis run,
	// conventionally "path/to/file.go:Name".
	ID string `json:"id"`

	// Kind is the element classification (class, function, module).
	Kind Kind `json:"kind"`

	// Name is the declared identifier.
	Name string `json:"name"`

	// FilePath is the path of the file declaring the element,
	// relative to the project root.
	FilePath string `json:"file_path"`
}

// Edge is a directed structural relationship (call, reference, import)
// between two elements.
type Edge struct {
	FromID string  `json:"from_id"`
	ToID   string  `json:"to_id"`
	Weight float64 `json:"weight"`
}
