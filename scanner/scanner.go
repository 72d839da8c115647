// Package scanner builds a knowledge graph from Go source trees. Files are
// parsed concurrently through a worker pool; declarations become graph
// elements and cross-references between declared names become edges.
package scanner

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/c360/codegraph/errors"
	"github.com/c360/codegraph/graph"
	"github.com/c360/codegraph/metric"
	"github.com/c360/codegraph/pkg/worker"
)

const (
	// DefaultWorkers is the parse pool size when none is configured.
	DefaultWorkers = 8

	// DefaultQueueSize bounds the number of files waiting to be parsed.
	DefaultQueueSize = 1024

	drainTimeout = 2 * time.Minute
)

// Scanner walks a project root and produces a frozen knowledge graph.
type Scanner struct {
	root            string
	workers         int
	includeTests    bool
	logger          *slog.Logger
	metricsRegistry *metric.Registry
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers sets the parse pool size.
func WithWorkers(n int) Option {
	return func(s *Scanner) { s.workers = n }
}

// WithTests includes _test.go files in the graph.
func WithTests() Option {
	return func(s *Scanner) { s.includeTests = true }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

// WithMetrics registers worker-pool metrics with the registry.
func WithMetrics(registry *metric.Registry) Option {
	return func(s *Scanner) { s.metricsRegistry = registry }
}

// New creates a Scanner rooted at the given directory.
func New(root string, opts ...Option) (*Scanner, error) {
	if root == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Scanner", "New", "root is empty")
	}

	s := &Scanner{
		root:    root,
		workers: DefaultWorkers,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	return s, nil
}

// fileResult holds the declarations and name references parsed from one file.
type fileResult struct {
	elements []graph.Element
	refs     []reference
}

// reference is an unresolved name mention inside a declaration body.
type reference struct {
	fromID string
	name   string
}

// Scan parses the tree and returns a frozen graph.
func (s *Scanner) Scan(ctx context.Context) (*graph.Store, error) {
	files, err := s.collectFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Scanner", "Scan",
			"no Go source files under "+s.root)
	}

	var (
		mu      sync.Mutex
		results []fileResult
	)

	pool := worker.NewPool(s.workers, DefaultQueueSize, func(_ context.Context, path string) error {
		result, parseErr := parseFile(s.root, path)
		if parseErr != nil {
			s.logger.Warn("skipping unparseable file", "path", path, "error", parseErr)
			return parseErr
		}
		mu.Lock()
		results = append(results, result)
		mu.Unlock()
		return nil
	}, s.poolOptions()...)

	if err := pool.Start(ctx); err != nil {
		return nil, errors.WrapFatal(err, "Scanner", "Scan", "start parse pool")
	}
	for _, path := range files {
		if err := pool.Submit(path); err != nil {
			s.logger.Warn("dropping file, parse queue full", "path", path)
		}
	}
	if err := pool.Stop(drainTimeout); err != nil {
		return nil, errors.WrapTransient(err, "Scanner", "Scan", "drain parse pool")
	}

	store := buildGraph(results)
	store.Freeze()

	s.logger.Info("scan complete",
		"files", len(files),
		"elements", store.Len(),
		"edges", store.EdgeCount())
	return store, nil
}

// collectFiles walks the root gathering .go files, skipping hidden and
// underscore-prefixed directories, vendor, and testdata.
func (s *Scanner) collectFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == s.root {
				return nil
			}
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "vendor" || name == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") {
			return nil
		}
		if !s.includeTests && strings.HasSuffix(name, "_test.go") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "Scanner", "collectFiles", "walk source tree")
	}
	sort.Strings(files)
	return files, nil
}

func (s *Scanner) poolOptions() []worker.Option[string] {
	if s.metricsRegistry == nil {
		return nil
	}
	return []worker.Option[string]{
		worker.WithMetricsRegistry[string](s.metricsRegistry, "scanner"),
	}
}

// parseFile extracts top-level declarations and the names their bodies mention.
func parseFile(root, path string) (fileResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return fileResult{}, errors.WrapInvalid(errors.ErrParsingFailed, "Scanner", "parseFile", path)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	var result fileResult
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			id := rel + ":" + d.Name.Name
			result.elements = append(result.elements, graph.Element{
				ID:       id,
				Kind:     graph.KindFunction,
				Name:     d.Name.Name,
				FilePath: rel,
			})
			if d.Body != nil {
				for _, name := range referencedNames(d.Body) {
					result.refs = append(result.refs, reference{fromID: id, name: name})
				}
			}
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				id := rel + ":" + ts.Name.Name
				result.elements = append(result.elements, graph.Element{
					ID:       id,
					Kind:     graph.KindClass,
					Name:     ts.Name.Name,
					FilePath: rel,
				})
				for _, name := range referencedNames(ts.Type) {
					result.refs = append(result.refs, reference{fromID: id, name: name})
				}
			}
		}
	}
	return result, nil
}

// referencedNames collects unique identifiers mentioned in a node, in
// first-seen order. Package-qualified selectors are skipped since the
// graph only tracks intra-project names.
func referencedNames(node ast.Node) []string {
	seen := make(map[string]bool)
	var names []string

	ast.Inspect(node, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.SelectorExpr:
			// Only descend into the receiver side of x.Sel
			ast.Inspect(v.X, func(inner ast.Node) bool {
				if ident, ok := inner.(*ast.Ident); ok && !seen[ident.Name] {
					seen[ident.Name] = true
					names = append(names, ident.Name)
				}
				return true
			})
			return false
		case *ast.Ident:
			if !seen[v.Name] {
				seen[v.Name] = true
				names = append(names, v.Name)
			}
		}
		return true
	})
	return names
}

// buildGraph resolves name references against the declared elements and
// assembles the store. Name collisions across files resolve to every
// declaration with that name.
func buildGraph(results []fileResult) *graph.Store {
	store := graph.NewStore()

	byName := make(map[string][]string)
	for _, result := range results {
		for _, el := range result.elements {
			if err := store.AddElement(el); err != nil {
				continue
			}
			byName[el.Name] = append(byName[el.Name], el.ID)
		}
	}
	for name := range byName {
		sort.Strings(byName[name])
	}

	// Dedupe repeated mentions so each pair gets a single weighted edge
	type pair struct{ from, to string }
	counts := make(map[pair]float64)
	for _, result := range results {
		for _, ref := range result.refs {
			for _, toID := range byName[ref.name] {
				if toID == ref.fromID {
					continue
				}
				counts[pair{ref.fromID, toID}]++
			}
		}
	}

	pairs := make([]pair, 0, len(counts))
	for p := range counts {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].from != pairs[j].from {
			return pairs[i].from < pairs[j].from
		}
		return pairs[i].to < pairs[j].to
	})
	for _, p := range pairs {
		_ = store.AddEdge(graph.Edge{FromID: p.from, ToID: p.to, Weight: counts[p]})
	}
	return store
}
