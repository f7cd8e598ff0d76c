// Package project assembles one indexed root's FileTree, SymbolTable and
// Watcher into the unit the Registry manages, and implements the
// operations that need more than one of those pieces together (callers,
// tests, variables, implementation).
package project

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codeindexd/codeindexd/internal/content"
	"github.com/codeindexd/codeindexd/internal/errs"
	"github.com/codeindexd/codeindexd/internal/filetree"
	"github.com/codeindexd/codeindexd/internal/fqn"
	"github.com/codeindexd/codeindexd/internal/lang"
	"github.com/codeindexd/codeindexd/internal/model"
	"github.com/codeindexd/codeindexd/internal/symtab"
	"github.com/codeindexd/codeindexd/internal/walker"
	"github.com/codeindexd/codeindexd/internal/watcher"
	"github.com/zeebo/xxh3"
)

// testDirNames are directory segments that mark every file beneath them
// as test code, in addition to the per-file name patterns in
// testFilePatterns (spec §4.6).
var testDirNames = map[string]bool{"tests": true, "test": true}

var testFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`_test\.go$`),
	regexp.MustCompile(`^test_.*\.py$`),
	regexp.MustCompile(`_test\.py$`),
	regexp.MustCompile(`\.test\.tsx?$`),
	regexp.MustCompile(`\.test\.jsx?$`),
	regexp.MustCompile(`\.spec\.tsx?$`),
	regexp.MustCompile(`\.spec\.jsx?$`),
}

// Project is one resident indexed codebase.
type Project struct {
	Root string

	Tree  *filetree.Tree
	Table *symtab.Table

	walkerOpts walker.Options

	watcher *watcher.Watcher
	cancel  context.CancelFunc

	mu         sync.Mutex
	lastActive time.Time
	sessions   map[string]bool
}

// CanonicalRoot resolves root to an absolute, symlink-free path, the
// same identity Open uses as a project's key. Callers that need to look
// up an already-resident project before deciding whether to Open a new
// one (the Registry) must canonicalize with this first.
func CanonicalRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errs.Wrap(errs.BadArgument, "resolve root", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}

// Open canonicalizes root, runs a synchronous scan so the project is
// immediately queryable, kicks off background bulk extraction, and
// starts the debounced watcher. Matches Registry.get_or_create's
// contract (spec §4.1).
func Open(ctx context.Context, root string, opts walker.Options) (*Project, error) {
	abs, err := CanonicalRoot(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, errs.New(errs.BadArgument, "root is not a directory: "+abs)
	}

	entries, err := walker.Scan(ctx, abs, opts)
	if err != nil {
		return nil, err
	}

	tree := filetree.New()
	tree.Replace(entries)
	pendingSymbols := loadSidecar(abs, tree)

	p := &Project{
		Root:       abs,
		Tree:       tree,
		Table:      symtab.New(),
		walkerOpts: opts,
		lastActive: now(),
		sessions:   make(map[string]bool),
	}

	go func() {
		if err := symtab.BulkExtract(context.Background(), abs, tree, p.Table); err != nil {
			slog.Warn("project.bulk_extract", "root", abs, "err", err)
		}
		for _, ann := range pendingSymbols {
			p.Table.Define(ann.File, ann.Name, ann.Definition, true)
		}
	}()

	if err := p.startWatcher(); err != nil {
		slog.Warn("project.watcher", "root", abs, "err", err)
	}

	return p, nil
}

func now() time.Time { return time.Now() }

func (p *Project) startWatcher() error {
	ignore, err := walker.DefaultIgnore(p.Root, walker.Options{})
	if err != nil {
		return err
	}
	w, err := watcher.New(p.Root, ignore)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.watcher = w
	p.cancel = cancel

	go w.Run(ctx)
	go p.consumeEvents(ctx)
	return nil
}

func (p *Project) consumeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.watcher.Events:
			p.handleEvent(ev)
		case <-p.watcher.FullResync:
			p.rescan(ctx)
		}
	}
}

func (p *Project) handleEvent(ev watcher.Event) {
	switch ev.Op {
	case watcher.Removed:
		p.Tree.Remove(ev.RelPath)
		p.Table.RemoveFile(ev.RelPath)
	default:
		full := filepath.Join(p.Root, filepath.FromSlash(ev.RelPath))
		info, err := os.Stat(full)
		if err != nil {
			p.Tree.Remove(ev.RelPath)
			p.Table.RemoveFile(ev.RelPath)
			return
		}
		l, known := lang.ForExtensionTag(strings.ToLower(filepath.Ext(ev.RelPath)))
		if !known {
			l = lang.Unknown
		}
		entry := &model.FileEntry{RelPath: ev.RelPath, Size: info.Size(), Language: l}
		if info.Size() > p.maxFileSize() {
			entry.Oversize = true
		}

		unchanged := false
		if !entry.Oversize && l != lang.Unknown {
			if data, readErr := os.ReadFile(full); readErr == nil {
				entry.ContentHash = xxh3.Hash(data)
				if prev, ok := p.Tree.Get(ev.RelPath); ok && prev.ContentHash == entry.ContentHash && !prev.Oversize {
					unchanged = true
				}
			}
		}

		p.Tree.Upsert(entry)
		if !entry.Oversize && l != lang.Unknown && !unchanged {
			if err := symtab.ExtractFile(p.Root, ev.RelPath, l, p.Table); err != nil {
				slog.Warn("project.reindex", "file", ev.RelPath, "err", err)
			}
		}
	}
}

func (p *Project) maxFileSize() int64 {
	if p.walkerOpts.MaxFileSize > 0 {
		return p.walkerOpts.MaxFileSize
	}
	return walker.DefaultMaxFileSize
}

func (p *Project) rescan(ctx context.Context) {
	entries, err := walker.Scan(ctx, p.Root, p.walkerOpts)
	if err != nil {
		slog.Warn("project.rescan", "root", p.Root, "err", err)
		return
	}
	p.Tree.Replace(entries)
	if err := symtab.BulkExtract(ctx, p.Root, p.Tree, p.Table); err != nil {
		slog.Warn("project.rescan.extract", "root", p.Root, "err", err)
	}
}

// Close stops the watcher goroutines; the FileTree and SymbolTable are
// left for the garbage collector once the Registry drops its reference.
func (p *Project) Close() {
	saveSidecar(p.Root, p.Tree.Snapshot(), p.Table.List(lang.Kind(""), false, ""))
	if p.cancel != nil {
		p.cancel()
	}
	if p.watcher != nil {
		p.watcher.Close()
	}
}

// Touch updates last_active and records session as bound to this project.
func (p *Project) Touch(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastActive = now()
	if sessionID != "" {
		p.sessions[sessionID] = true
	}
}

// LastActive returns the last-touched instant.
func (p *Project) LastActive() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastActive
}

// SessionCount returns the number of sessions currently bound.
func (p *Project) SessionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Unbind removes sessionID from this project's bound-session set, e.g.
// when a session is destroyed explicitly.
func (p *Project) Unbind(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, sessionID)
}

// Implementation returns the symbol's source text, read fresh from disk.
func (p *Project) Implementation(file, name string) (string, error) {
	sym, ok := p.Table.Get(file, name)
	if !ok {
		return "", errs.New(errs.NotFound, "symbol not found: "+file+" "+name)
	}
	return content.Peek(filepath.Join(p.Root, filepath.FromSlash(file)), sym.Start, sym.End)
}

// Callers performs the name-matched textual resolution described in
// spec §4.6: grep every supported file for the identifier, excluding
// the declaration's own line range, ordered by (file, line).
func (p *Project) Callers(name, declFile string, limit int) ([]content.Match, error) {
	decl, _ := p.Table.Get(declFile, name)
	files := p.supportedFiles()
	pattern := `\b` + regexp.QuoteMeta(name) + `\b`
	result, err := content.Grep(files, pattern, matchBudget(limit), 0)
	if err != nil {
		return nil, err
	}

	out := make([]content.Match, 0, len(result.Matches))
	for _, m := range result.Matches {
		rel := p.relPath(m.File)
		if decl != nil && rel == declFile {
			line0 := m.Line - 1
			if line0 >= decl.Start && line0 < decl.End {
				continue
			}
		}
		out = append(out, m)
	}
	sortMatches(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Tests restricts the same search to test-marked files, and climbs each
// match to its enclosing function declaration, deduplicated.
func (p *Project) Tests(name string, limit int) ([]*model.Symbol, error) {
	files := p.testFiles()
	pattern := `\b` + regexp.QuoteMeta(name) + `\b`
	result, err := content.Grep(files, pattern, matchBudget(limit), 0)
	if err != nil {
		return nil, err
	}

	seen := map[model.Key]bool{}
	var out []*model.Symbol
	for _, m := range result.Matches {
		rel := p.relPath(m.File)
		enclosing := p.enclosingFunction(rel, m.Line-1)
		if enclosing == nil {
			continue
		}
		key := model.Key{File: enclosing.File, Name: enclosing.Name}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, enclosing)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Start < out[j].Start
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (p *Project) enclosingFunction(file string, line0 int) *model.Symbol {
	candidates := p.Table.List(lang.Kind(""), false, file)
	var best *model.Symbol
	for _, s := range candidates {
		if s.Kind != lang.KindFunction && s.Kind != lang.KindMethod {
			continue
		}
		if line0 >= s.Start && line0 < s.End {
			if best == nil || s.Start > best.Start {
				best = s
			}
		}
	}
	return best
}

// Variables re-parses the named function's source and returns the
// declared identifiers in source order, deduplicated.
func (p *Project) Variables(file, name string) ([]string, error) {
	sym, ok := p.Table.Get(file, name)
	if !ok {
		return nil, errs.New(errs.NotFound, "symbol not found: "+file+" "+name)
	}
	if sym.Kind != lang.KindFunction && sym.Kind != lang.KindMethod {
		return nil, errs.New(errs.NotAFunction, "not a function or method: "+name)
	}
	entry, ok := p.Tree.Get(file)
	if !ok {
		return nil, errs.New(errs.NotFound, "file not found: "+file)
	}
	source, err := os.ReadFile(filepath.Join(p.Root, filepath.FromSlash(file)))
	if err != nil {
		return nil, errs.Wrap(errs.IO, "read file", err)
	}
	return symtab.Variables(entry.Language, source, sym)
}

func (p *Project) supportedFiles() []string {
	var files []string
	for _, e := range p.Tree.Snapshot() {
		if e.Oversize || e.Language == lang.Unknown {
			continue
		}
		files = append(files, filepath.Join(p.Root, filepath.FromSlash(e.RelPath)))
	}
	sort.Strings(files)
	return files
}

func (p *Project) testFiles() []string {
	var files []string
	for _, e := range p.Tree.Snapshot() {
		if e.Oversize {
			continue
		}
		if e.Mark == model.MarkTest || isTestPath(e.RelPath) {
			files = append(files, filepath.Join(p.Root, filepath.FromSlash(e.RelPath)))
		}
	}
	sort.Strings(files)
	return files
}

func isTestPath(relPath string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if testDirNames[seg] {
			return true
		}
	}
	base := filepath.Base(relPath)
	for _, re := range testFilePatterns {
		if re.MatchString(base) {
			return true
		}
	}
	return false
}

func (p *Project) relPath(abs string) string {
	rel, err := filepath.Rel(p.Root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// RelPath converts an absolute path under the project root to its
// forward-slash relative form, for presenting Callers/Grep results to
// a caller that only knows project-relative paths.
func (p *Project) RelPath(abs string) string {
	return p.relPath(abs)
}

// QualifiedName returns the dotted, project-prefixed name for a symbol
// declared in file — a human-readable handle alongside its (file, name)
// key, e.g. "myrepo.internal.registry.GetOrCreate".
func (p *Project) QualifiedName(file, name string) string {
	return fqn.Compute(filepath.Base(p.Root), file, name)
}

func sortMatches(matches []content.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].File != matches[j].File {
			return matches[i].File < matches[j].File
		}
		return matches[i].Line < matches[j].Line
	})
}

// matchBudget turns a caller-supplied limit into a generous internal cap
// for the underlying grep, since callers/tests apply their own
// after-the-fact exclusion+dedup pass that can only shrink the result.
func matchBudget(limit int) int {
	if limit <= 0 {
		return 10000
	}
	return limit * 4
}
