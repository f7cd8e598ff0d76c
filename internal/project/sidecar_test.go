package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexd/codeindexd/internal/model"
)

func TestSaveSidecarThenLoadRoundTripsFileAnnotations(t *testing.T) {
	root := t.TempDir()

	entries := []*model.FileEntry{
		{RelPath: "a.go", Definition: "entry point", HasDefn: true},
		{RelPath: "b.go", Mark: model.MarkGenerated, HasMark: true},
		{RelPath: "c.go"},
	}
	saveSidecar(root, entries, nil)

	_, err := os.Stat(sidecarPath(root))
	require.NoError(t, err)

	tree := newFakeAnnotationTarget()
	symbols := loadSidecar(root, tree)
	require.Empty(t, symbols)

	require.Equal(t, "entry point", tree.defined["a.go"])
	require.Equal(t, model.MarkGenerated, tree.marked["b.go"])
	_, ok := tree.defined["c.go"]
	require.False(t, ok)
}

func TestSaveSidecarPersistsSymbolAnnotations(t *testing.T) {
	root := t.TempDir()

	symbols := []*model.Symbol{
		{File: "a.go", Name: "Foo", Definition: "does a thing", HasDefn: true},
		{File: "a.go", Name: "Bar"},
	}
	saveSidecar(root, nil, symbols)

	tree := newFakeAnnotationTarget()
	pending := loadSidecar(root, tree)
	require.Len(t, pending, 1)
	require.Equal(t, "Foo", pending[0].Name)
	require.Equal(t, "does a thing", pending[0].Definition)
}

func TestSaveSidecarSkipsWriteWhenNothingToPersist(t *testing.T) {
	root := t.TempDir()
	saveSidecar(root, []*model.FileEntry{{RelPath: "a.go"}}, nil)

	_, err := os.Stat(filepath.Join(root, sidecarDir))
	require.True(t, os.IsNotExist(err))
}

func TestLoadSidecarMissingFileReturnsNil(t *testing.T) {
	root := t.TempDir()
	tree := newFakeAnnotationTarget()
	require.Nil(t, loadSidecar(root, tree))
}

type fakeAnnotationTarget struct {
	defined map[string]string
	marked  map[string]model.Mark
}

func newFakeAnnotationTarget() *fakeAnnotationTarget {
	return &fakeAnnotationTarget{defined: map[string]string{}, marked: map[string]model.Mark{}}
}

func (f *fakeAnnotationTarget) Get(relPath string) (*model.FileEntry, bool) {
	return nil, false
}

func (f *fakeAnnotationTarget) Define(relPath, text string, overwrite bool) (bool, bool) {
	f.defined[relPath] = text
	return true, true
}

func (f *fakeAnnotationTarget) Mark(relPath string, mark model.Mark) bool {
	f.marked[relPath] = mark
	return true
}
