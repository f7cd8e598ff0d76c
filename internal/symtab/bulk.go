package symtab

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/codeindexd/codeindexd/internal/filetree"
	"github.com/codeindexd/codeindexd/internal/lang"
)

// BulkExtract parses every file in tree that carries a recognized
// language and isn't oversize, replacing each file's symbols in t
// concurrently. Per-file extraction errors are logged and skip that
// file; BulkExtract itself only fails on ctx cancellation, matching the
// teacher's pipeline.go bounded-fan-out shape (errgroup + SetLimit).
func BulkExtract(ctx context.Context, root string, tree *filetree.Tree, t *Table) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, entry := range tree.Snapshot() {
		entry := entry
		if entry.Language == lang.Unknown || entry.Oversize {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(entry.RelPath)))
			if err != nil {
				slog.Warn("symtab.extract.read", "file", entry.RelPath, "err", err)
				return nil
			}
			symbols, err := Extract(entry.RelPath, entry.Language, source)
			if err != nil {
				slog.Warn("symtab.extract.parse", "file", entry.RelPath, "err", err)
				return nil
			}
			t.ReplaceFile(entry.RelPath, symbols)
			return nil
		})
	}
	return g.Wait()
}

// ExtractFile reads relPath from disk under root, extracts its symbols
// for language l, and replaces them in t.
func ExtractFile(root, relPath string, l lang.Language, t *Table) error {
	source, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return err
	}
	symbols, err := Extract(relPath, l, source)
	if err != nil {
		return err
	}
	t.ReplaceFile(relPath, symbols)
	return nil
}
