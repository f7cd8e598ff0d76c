package filetree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexd/codeindexd/internal/lang"
	"github.com/codeindexd/codeindexd/internal/model"
)

func TestReplaceAndGet(t *testing.T) {
	tr := New()
	tr.Replace(map[string]*model.FileEntry{
		"a.go": {RelPath: "a.go", Language: lang.Go},
	})
	e, ok := tr.Get("a.go")
	require.True(t, ok)
	require.Equal(t, lang.Go, e.Language)
	require.Equal(t, 1, tr.Len())
}

func TestUpsertAndRemove(t *testing.T) {
	tr := New()
	tr.Upsert(&model.FileEntry{RelPath: "a.go", Language: lang.Go})
	require.Equal(t, 1, tr.Len())
	tr.Remove("a.go")
	_, ok := tr.Get("a.go")
	require.False(t, ok)
}

func TestDefineRequiresExistingEntry(t *testing.T) {
	tr := New()
	ok, found := tr.Define("a.go", "text", false)
	require.False(t, ok)
	require.False(t, found)

	tr.Upsert(&model.FileEntry{RelPath: "a.go"})
	ok, found = tr.Define("a.go", "text", false)
	require.True(t, ok)
	require.True(t, found)

	// Second define without overwrite fails once already defined.
	ok, found = tr.Define("a.go", "text2", false)
	require.False(t, ok)
	require.True(t, found)

	ok, found = tr.Define("a.go", "text2", true)
	require.True(t, ok)
	require.True(t, found)
	e, _ := tr.Get("a.go")
	require.Equal(t, "text2", e.Definition)
}

func TestMark(t *testing.T) {
	tr := New()
	require.False(t, tr.Mark("a.go", model.MarkTest))
	tr.Upsert(&model.FileEntry{RelPath: "a.go"})
	require.True(t, tr.Mark("a.go", model.MarkTest))
	e, _ := tr.Get("a.go")
	require.Equal(t, model.MarkTest, e.Mark)
}
