package symtab

import (
	"sort"
	"strings"
	"sync"

	"github.com/codeindexd/codeindexd/internal/errs"
	"github.com/codeindexd/codeindexd/internal/lang"
	"github.com/codeindexd/codeindexd/internal/model"
)

// Table is the concurrent (file,name) -> Symbol primary index plus its
// by-name and by-file secondary indices. All three are kept consistent
// under a single mutex; per-file re-index attempts are additionally
// serialized by a per-path guard so two concurrent watcher events for the
// same file can never interleave their ReplaceFile calls (spec §9).
type Table struct {
	mu      sync.RWMutex
	primary map[model.Key]*model.Symbol
	byName  map[string]map[model.Key]bool
	byFile  map[string]map[string]bool // file -> set of names currently keyed there

	guardsMu sync.Mutex
	guards   map[string]*sync.Mutex
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		primary: make(map[model.Key]*model.Symbol),
		byName:  make(map[string]map[model.Key]bool),
		byFile:  make(map[string]map[string]bool),
		guards:  make(map[string]*sync.Mutex),
	}
}

func (t *Table) fileGuard(file string) *sync.Mutex {
	t.guardsMu.Lock()
	defer t.guardsMu.Unlock()
	g, ok := t.guards[file]
	if !ok {
		g = &sync.Mutex{}
		t.guards[file] = g
	}
	return g
}

// ReplaceFile atomically swaps the symbol set belonging to file with
// symbols. It is the sole write path used by both the initial bulk
// extraction and the watcher's incremental re-index, guaranteeing a
// reader never observes a partially-updated file: the old symbols for
// file are removed and the new ones inserted while holding the table's
// write lock for the whole transaction.
func (t *Table) ReplaceFile(file string, symbols []*model.Symbol) {
	guard := t.fileGuard(file)
	guard.Lock()
	defer guard.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	for name := range t.byFile[file] {
		key := model.Key{File: file, Name: name}
		delete(t.primary, key)
		if set := t.byName[name]; set != nil {
			delete(set, key)
			if len(set) == 0 {
				delete(t.byName, name)
			}
		}
	}
	delete(t.byFile, file)

	if len(symbols) == 0 {
		return
	}
	names := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		key := model.Key{File: s.File, Name: s.Name}
		t.primary[key] = s
		if t.byName[s.Name] == nil {
			t.byName[s.Name] = make(map[model.Key]bool)
		}
		t.byName[s.Name][key] = true
		names[s.Name] = true
	}
	t.byFile[file] = names
}

// RemoveFile drops every symbol belonging to file, e.g. on a watcher
// Removed event.
func (t *Table) RemoveFile(file string) {
	t.ReplaceFile(file, nil)
}

// Get returns the symbol keyed by (file,name).
func (t *Table) Get(file, name string) (*model.Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.primary[model.Key{File: file, Name: name}]
	return s, ok
}

// List returns symbols, optionally filtered by kind and/or file, ordered
// by kind, then (file, start line) within each kind (spec §4.4).
func (t *Table) List(kind lang.Kind, hasKind bool, file string) []*model.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []*model.Symbol
	if file != "" {
		for name := range t.byFile[file] {
			s := t.primary[model.Key{File: file, Name: name}]
			if s == nil || (hasKind && s.Kind != kind) {
				continue
			}
			out = append(out, s)
		}
	} else {
		for _, s := range t.primary {
			if hasKind && s.Kind != kind {
				continue
			}
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Start < out[j].Start
	})
	return out
}

// Search matches name against substring, bucketing results into exact,
// then prefix, then substring matches (spec §4.4), each bucket ordered by
// (file, start line), and returns at most limit results overall.
func (t *Table) Search(substring string, limit int) []*model.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var exact, prefix, contains []*model.Symbol
	for name, keys := range t.byName {
		var bucket *[]*model.Symbol
		switch {
		case name == substring:
			bucket = &exact
		case strings.HasPrefix(name, substring):
			bucket = &prefix
		case strings.Contains(name, substring):
			bucket = &contains
		default:
			continue
		}
		for key := range keys {
			*bucket = append(*bucket, t.primary[key])
		}
	}
	sortSymbols(exact)
	sortSymbols(prefix)
	sortSymbols(contains)

	out := append(append(exact, prefix...), contains...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortSymbols(syms []*model.Symbol) {
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].File != syms[j].File {
			return syms[i].File < syms[j].File
		}
		return syms[i].Start < syms[j].Start
	})
}

// Define attaches (or, with overwrite, replaces) the definition text for
// a symbol. Mirrors filetree.Tree.Define's contract at the symbol grain.
func (t *Table) Define(file, name, text string, overwrite bool) (ok bool, found bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, present := t.primary[model.Key{File: file, Name: name}]
	if !present {
		return false, false
	}
	if s.HasDefn && !overwrite {
		return false, true
	}
	s.Definition = text
	s.HasDefn = true
	return true, true
}

// ErrSymbolNotFound mirrors the spec's "symbol-not-found" define/redefine
// failure, exposed so callers can build the right errs.Error detail.
var ErrSymbolNotFound = errs.New(errs.NotFound, "symbol not found")
