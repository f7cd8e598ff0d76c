package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexd/codeindexd/internal/lang"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestScanBasic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "app.py", "def main(): pass\n")

	files, err := Scan(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.Len(t, files, 2)

	require.Equal(t, lang.Go, files["main.go"].Language)
	require.Equal(t, lang.Python, files["app.py"].Language)
}

func TestScanHonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "build/\n*.log\n")
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "build/out.go", "package build\n")
	writeFile(t, dir, "debug.log", "noise\n")

	files, err := Scan(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.Contains(t, files, "main.go")
	require.NotContains(t, files, "build/out.go")
	require.NotContains(t, files, "debug.log")
}

func TestScanGitignoreNegation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "*.log\n!keep.log\n")
	writeFile(t, dir, "debug.log", "noise\n")
	writeFile(t, dir, "keep.log", "kept\n")

	files, err := Scan(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.NotContains(t, files, "debug.log")
	require.Contains(t, files, "keep.log")
}

func TestScanExcludesDotfilesByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "SECRET=1\n")
	writeFile(t, dir, "main.go", "package main\n")

	files, err := Scan(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.NotContains(t, files, ".env")
	require.Contains(t, files, "main.go")
}

func TestScanReincludesDotfileViaGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "!.env.example\n")
	writeFile(t, dir, ".env.example", "TOKEN=\n")

	files, err := Scan(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.Contains(t, files, ".env.example")
}

func TestScanNeverReincludesGitDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".git/config", "[core]\n")
	writeFile(t, dir, ".gitignore", "!.git\n!.git/**\n")

	files, err := Scan(context.Background(), dir, Options{})
	require.NoError(t, err)
	for path := range files {
		require.NotContains(t, path, ".git/")
	}
}

func TestScanRecordsOversizeWithoutError(t *testing.T) {
	dir := t.TempDir()
	big := make([]byte, 200)
	writeFile(t, dir, "big.go", string(big))

	files, err := Scan(context.Background(), dir, Options{MaxFileSize: 50})
	require.NoError(t, err)
	require.True(t, files["big.go"].Oversize)
}

func TestScanUnknownExtensionRetained(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# hi\n")

	files, err := Scan(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.Equal(t, lang.Unknown, files["README.md"].Language)
}

func TestScanCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, dir, Options{})
	require.Error(t, err)
}
