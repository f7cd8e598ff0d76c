// Package watcher emits debounced, typed filesystem change events for a
// project root, replacing polling with fsnotify so Created/Modified/
// Removed/Renamed can be reported as distinct event kinds (spec §4.3).
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is the coalesced change kind reported for a path.
type Op int

const (
	Created Op = iota
	Modified
	Removed
	Renamed
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Event is a single coalesced filesystem change, relative to the
// project's root.
type Event struct {
	RelPath string
	Op      Op
}

// debounceWindow is the quiet period a path must go without further
// fsnotify activity before its coalesced Event is emitted.
const debounceWindow = 500 * time.Millisecond

// queueCapacity bounds the channel of ready-to-emit events. Overflow
// degrades to a single FullResync signal rather than blocking the
// fsnotify read loop (spec §5 back-pressure).
const queueCapacity = 256

// Watcher recursively watches a project root and emits debounced Events.
type Watcher struct {
	root string
	fsw  *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*pendingEvent
	ignore  func(relPath string, isDir bool) bool

	Events     chan Event
	FullResync chan struct{}
	done       chan struct{}
}

type pendingEvent struct {
	op    Op
	timer *time.Timer
}

// New creates a Watcher rooted at root. ignore, if non-nil, is consulted
// on every raw fsnotify event and on directory discovery to honor the
// same gitignore discipline the initial walker.Scan used — without it
// the watcher would re-index build/ or vendor/ churn forever.
func New(root string, ignore func(relPath string, isDir bool) bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:       root,
		fsw:        fsw,
		pending:    make(map[string]*pendingEvent),
		ignore:     ignore,
		Events:     make(chan Event, queueCapacity),
		FullResync: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers root and every non-ignored subdirectory with fsnotify.
// fsnotify only watches one directory level at a time, so new directories
// discovered later (via a Created event) must call addTree again.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtree entry: skip, don't abort the walk
		}
		if !d.IsDir() {
			return nil
		}
		rel := w.relPath(path)
		if rel != "" && w.ignore != nil && w.ignore(rel, true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			slog.Warn("watcher.add", "dir", path, "err", err)
		}
		return nil
	})
}

func (w *Watcher) relPath(abs string) string {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// Run consumes raw fsnotify events until ctx is cancelled, debouncing
// them into Events. Call it in its own goroutine.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleRaw(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher.fsnotify", "err", err)
		}
	}
}

// Close stops the watcher and releases its fsnotify handle.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) handleRaw(ev fsnotify.Event) {
	rel := w.relPath(ev.Name)
	if rel == "" {
		return
	}
	if strings.HasPrefix(rel, ".git/") || rel == ".git" {
		return
	}

	info, statErr := os.Stat(ev.Name)
	isDir := statErr == nil && info.IsDir()

	if w.ignore != nil && w.ignore(rel, isDir) {
		return
	}

	if ev.Op.Has(fsnotify.Create) && isDir {
		if err := w.addTree(ev.Name); err != nil {
			slog.Warn("watcher.add_tree", "dir", ev.Name, "err", err)
		}
		return // directory creation itself isn't a file event
	}

	var op Op
	switch {
	case ev.Op.Has(fsnotify.Create):
		op = Created
	case ev.Op.Has(fsnotify.Remove):
		op = Removed
	case ev.Op.Has(fsnotify.Rename):
		op = Renamed
	case ev.Op.Has(fsnotify.Write), ev.Op.Has(fsnotify.Chmod):
		op = Modified
	default:
		return
	}

	w.schedule(rel, op)
}

// schedule coalesces repeated events for the same path within
// debounceWindow into a single emitted Event, keeping the most
// meaningful op seen (Removed overrides every earlier op, while a later op
// overrides Removed; a Create followed by a Write within the window is
// still reported as Created).
func (w *Watcher) schedule(rel string, op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[rel]; ok {
		p.op = mergeOp(p.op, op)
		p.timer.Reset(debounceWindow)
		return
	}

	p := &pendingEvent{op: op}
	p.timer = time.AfterFunc(debounceWindow, func() { w.fire(rel) })
	w.pending[rel] = p
}

func mergeOp(prev, next Op) Op {
	if next == Removed {
		return Removed
	}
	if prev == Created && next == Modified {
		return Created
	}
	return next
}

func (w *Watcher) fire(rel string) {
	w.mu.Lock()
	p, ok := w.pending[rel]
	if ok {
		delete(w.pending, rel)
	}
	w.mu.Unlock()
	if !ok {
		return
	}

	select {
	case w.Events <- Event{RelPath: rel, Op: p.op}:
	default:
		// Queue saturated: degrade to a full-subtree resync ticket
		// rather than blocking or dropping silently (spec §5).
		select {
		case w.FullResync <- struct{}{}:
		default:
		}
		slog.Warn("watcher.queue_full", "path", rel)
	}
}
