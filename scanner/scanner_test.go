package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/codegraph/errors"
	"github.com/c360/codegraph/graph"
)

func writeFixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"store.go": `package fixture

type Record struct {
	Key string
}

func SaveRecord(r Record) error {
	return validate(r)
}

func validate(r Record) error {
	return nil
}
`,
		"api/handler.go": `package api

func HandleSave() {
	_ = SaveRecord
}

func SaveRecord() {}
`,
		"store_test.go": `package fixture

func TestSave(t *T) {}
`,
		"notes.txt": "not go source",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestScanBuildsGraph(t *testing.T) {
	root := writeFixtureTree(t)

	s, err := New(root, WithWorkers(2))
	require.NoError(t, err)

	store, err := s.Scan(context.Background())
	require.NoError(t, err)

	// Record type, SaveRecord x2, validate, HandleSave; no test file elements
	assert.Equal(t, 5, store.Len())

	el, ok := store.Element("store.go:Record")
	require.True(t, ok)
	assert.Equal(t, graph.KindClass, el.Kind)
	assert.Equal(t, "store.go", el.FilePath)

	el, ok = store.Element("api/handler.go:HandleSave")
	require.True(t, ok)
	assert.Equal(t, graph.KindFunction, el.Kind)
}

func TestScanResolvesReferences(t *testing.T) {
	root := writeFixtureTree(t)

	s, err := New(root)
	require.NoError(t, err)
	store, err := s.Scan(context.Background())
	require.NoError(t, err)

	// SaveRecord body calls validate and takes a Record parameter
	assert.True(t, store.HasEdge("store.go:SaveRecord", "store.go:validate"))

	// HandleSave references SaveRecord; the name is declared in two files
	assert.True(t, store.HasEdge("api/handler.go:HandleSave", "store.go:SaveRecord"))
	assert.True(t, store.HasEdge("api/handler.go:HandleSave", "api/handler.go:SaveRecord"))

	// No self edges from a declaration mentioning its own name
	assert.False(t, store.HasEdge("store.go:SaveRecord", "store.go:SaveRecord"))
}

func TestScanSkipsTestFilesByDefault(t *testing.T) {
	root := writeFixtureTree(t)

	s, err := New(root)
	require.NoError(t, err)
	store, err := s.Scan(context.Background())
	require.NoError(t, err)

	_, ok := store.Element("store_test.go:TestSave")
	assert.False(t, ok)

	withTests, err := New(root, WithTests())
	require.NoError(t, err)
	store, err = withTests.Scan(context.Background())
	require.NoError(t, err)

	_, ok = store.Element("store_test.go:TestSave")
	assert.True(t, ok)
}

func TestScanFrozenStore(t *testing.T) {
	root := writeFixtureTree(t)

	s, err := New(root)
	require.NoError(t, err)
	store, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.Error(t, store.AddElement(graph.Element{ID: "late"}))
}

func TestNewValidation(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestScanRejectsEmptyProject(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("no go here"), 0o644))

	s, err := New(root)
	require.NoError(t, err)

	_, err = s.Scan(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidData)
	assert.True(t, errors.IsInvalid(err))
}

func TestScanToleratesBadFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.go"), []byte("package \n func {"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "good.go"), []byte("package p\n\nfunc OK() {}\n"), 0o644))

	s, err := New(root)
	require.NoError(t, err)
	store, err := s.Scan(context.Background())
	require.NoError(t, err)

	_, ok := store.Element("good.go:OK")
	assert.True(t, ok)
	assert.Equal(t, 1, store.Len())
}
