package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexd/codeindexd/internal/errs"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPeekBasicRange(t *testing.T) {
	path := writeFile(t, "a\nb\nc\nd\ne\n")
	out, err := Peek(path, 1, 3)
	require.NoError(t, err)
	require.Contains(t, out, "b")
	require.Contains(t, out, "c")
	require.NotContains(t, out, "\td\n")
}

func TestPeekClipsEndToLineCount(t *testing.T) {
	lines := ""
	for i := 0; i < 100; i++ {
		lines += "x\n"
	}
	path := writeFile(t, lines)
	out, err := Peek(path, 90, 200)
	require.NoError(t, err)
	require.Equal(t, 10, countLines(out))
}

func TestPeekBadRangeWhenStartAfterEnd(t *testing.T) {
	path := writeFile(t, "a\nb\n")
	_, err := Peek(path, 50, 40)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.BadRange))
}

func TestPeekStartEqualsEndReturnsEmpty(t *testing.T) {
	path := writeFile(t, "a\nb\n")
	out, err := Peek(path, 1, 1)
	require.NoError(t, err)
	require.Equal(t, "", out)
}

func TestGrepFindsMatchesWithContext(t *testing.T) {
	path := writeFile(t, "one\ndeaf\ntwo\ndeef\nthree\n")
	result, err := Grep([]string{path}, "de[ae]f", 2, 1)
	require.NoError(t, err)
	require.Len(t, result.Matches, 2)
	require.False(t, result.Truncated)
	require.Equal(t, 2, result.Matches[0].Line)
	require.Equal(t, []string{"one"}, result.Matches[0].Before)
	require.Equal(t, []string{"two"}, result.Matches[0].After)
}

func TestGrepExactlyAtCapIsNotTruncated(t *testing.T) {
	path := writeFile(t, "hit\nhit\n")
	result, err := Grep([]string{path}, "hit", 2, 0)
	require.NoError(t, err)
	require.Len(t, result.Matches, 2)
	require.False(t, result.Truncated)
}

func TestGrepOverCapIsTruncated(t *testing.T) {
	path := writeFile(t, "hit\nhit\nhit\n")
	result, err := Grep([]string{path}, "hit", 2, 0)
	require.NoError(t, err)
	require.Len(t, result.Matches, 2)
	require.True(t, result.Truncated)
}

func TestGrepBadPattern(t *testing.T) {
	path := writeFile(t, "x\n")
	_, err := Grep([]string{path}, "(unclosed", 10, 0)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.BadPattern))
}

func TestGrepSkipsBinaryFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bin.dat")
	require.NoError(t, os.WriteFile(path, append([]byte("magic"), 0, 'm', 'a', 't', 'c', 'h'), 0o644))
	result, err := Grep([]string{path}, "match", 10, 0)
	require.NoError(t, err)
	require.Empty(t, result.Matches)
}

func TestChunkIndicesCoversFileWithOverlap(t *testing.T) {
	chunks, err := ChunkIndices(250, 100, 10)
	require.NoError(t, err)
	require.Equal(t, []Chunk{
		{Index: 0, Start: 0, End: 100},
		{Index: 1, Start: 90, End: 190},
		{Index: 2, Start: 180, End: 250},
	}, chunks)
}

func TestChunkIndicesBadChunking(t *testing.T) {
	_, err := ChunkIndices(250, 10, 10)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.BadChunking))
}

func countLines(s string) int {
	n := 0
	for _, c := range s {
		if c == '\n' {
			n++
		}
	}
	return n
}
