// Package filetree holds the per-project mapping from relative path to
// FileEntry, refreshed wholesale after a scan and incrementally by the
// watcher.
package filetree

import (
	"sync"

	"github.com/codeindexd/codeindexd/internal/model"
)

// Tree is a concurrent map from relative path to *model.FileEntry. All
// mutations are atomic per-key from any concurrent reader's perspective.
type Tree struct {
	mu      sync.RWMutex
	entries map[string]*model.FileEntry
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{entries: make(map[string]*model.FileEntry)}
}

// Replace atomically swaps the entire contents of the tree — used after a
// full initial scan.
func (t *Tree) Replace(entries map[string]*model.FileEntry) {
	t.mu.Lock()
	t.entries = entries
	t.mu.Unlock()
}

// Upsert inserts or replaces a single entry, keyed by its RelPath.
func (t *Tree) Upsert(e *model.FileEntry) {
	t.mu.Lock()
	t.entries[e.RelPath] = e
	t.mu.Unlock()
}

// Remove deletes the entry for relPath, if present.
func (t *Tree) Remove(relPath string) {
	t.mu.Lock()
	delete(t.entries, relPath)
	t.mu.Unlock()
}

// Get returns the entry for relPath, or (nil, false).
func (t *Tree) Get(relPath string) (*model.FileEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[relPath]
	return e, ok
}

// Len returns the number of indexed files.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Snapshot returns a shallow copy of every entry, safe for the caller to
// range over without holding the tree's lock.
func (t *Tree) Snapshot() []*model.FileEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*model.FileEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}

// LanguageBreakdown returns a count of files per detected language tag.
func (t *Tree) LanguageBreakdown() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int)
	for _, e := range t.entries {
		out[string(e.Language)]++
	}
	return out
}

// Define attaches or overwrites a file-level definition string, depending
// on overwrite. Returns false if overwrite is false and a definition
// already exists.
func (t *Tree) Define(relPath, text string, overwrite bool) (ok bool, found bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, present := t.entries[relPath]
	if !present {
		return false, false
	}
	if e.HasDefn && !overwrite {
		return false, true
	}
	e.Definition = text
	e.HasDefn = true
	return true, true
}

// Mark sets the classification mark on a file.
func (t *Tree) Mark(relPath string, mark model.Mark) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[relPath]
	if !ok {
		return false
	}
	e.Mark = mark
	e.HasMark = true
	return true
}
