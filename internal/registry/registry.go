// Package registry owns every resident Project, creating them on demand,
// evicting under capacity pressure by least-recently-active, and
// resolving session IDs to projects (spec §4.1).
package registry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/codeindexd/codeindexd/internal/errs"
	"github.com/codeindexd/codeindexd/internal/lang"
	"github.com/codeindexd/codeindexd/internal/metrics"
	"github.com/codeindexd/codeindexd/internal/project"
	"github.com/codeindexd/codeindexd/internal/walker"
)

// DefaultMaxProjects is the resident-project cap used when Config.MaxProjects is 0.
const DefaultMaxProjects = 5

// Config holds the start-time knobs named in spec §6.
type Config struct {
	MaxProjects  int
	WalkerOpts   walker.Options
	HistoryLimit int // per-session ring buffer size; 0 uses DefaultHistoryLimit
}

// Registry is the top-level resident-project store.
type Registry struct {
	cfg Config

	mu       sync.RWMutex
	projects map[string]*project.Project // keyed by canonical root

	sessionsMu sync.RWMutex
	sessions   map[string]*Session // keyed by session id
}

// New returns an empty Registry.
func New(cfg Config) *Registry {
	if cfg.MaxProjects <= 0 {
		cfg.MaxProjects = DefaultMaxProjects
	}
	return &Registry{
		cfg:      cfg,
		projects: make(map[string]*project.Project),
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate canonicalizes cwd; if a project already exists at that
// root, returns it (touched); otherwise opens a fresh Project, evicting
// the LRU victim first if at capacity.
func (r *Registry) GetOrCreate(ctx context.Context, cwd string) (*project.Project, error) {
	canonical, err := project.CanonicalRoot(cwd)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.projects[canonical]; ok {
		p.Touch("")
		return p, nil
	}

	p, err := project.Open(ctx, cwd, r.cfg.WalkerOpts)
	if err != nil {
		return nil, err
	}

	if len(r.projects) >= r.cfg.MaxProjects {
		if err := r.evictLRULocked(); err != nil {
			p.Close()
			return nil, err
		}
	}

	r.projects[p.Root] = p
	metrics.ProjectsResident.Set(float64(len(r.projects)))
	return p, nil
}

// evictLRULocked drops the resident project with the smallest
// last_active, breaking ties by fewest bound sessions. Caller must hold
// r.mu for writing.
func (r *Registry) evictLRULocked() error {
	var victim *project.Project
	var victimRoot string
	for root, p := range r.projects {
		if victim == nil {
			victim, victimRoot = p, root
			continue
		}
		if p.LastActive().Before(victim.LastActive()) ||
			(p.LastActive().Equal(victim.LastActive()) && p.SessionCount() < victim.SessionCount()) {
			victim, victimRoot = p, root
		}
	}
	if victim == nil {
		return errs.New(errs.Capacity, "no project available to evict")
	}
	r.evictLocked(victimRoot, victim)
	return nil
}

func (r *Registry) evictLocked(root string, p *project.Project) {
	delete(r.projects, root)
	p.Close()
	metrics.ProjectsResident.Set(float64(len(r.projects)))
	metrics.ProjectEvictions.Inc()

	r.sessionsMu.Lock()
	for _, s := range r.sessions {
		if s.root == root {
			s.markEvicted()
		}
	}
	r.sessionsMu.Unlock()
	slog.Info("registry.evict", "root", root)
}

// Evict drops the project at root, if resident, marking its sessions stale.
func (r *Registry) Evict(root string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.projects[root]; ok {
		r.evictLocked(root, p)
	}
}

// CreateSession binds a new session to the project at cwd, creating the
// project if necessary.
func (r *Registry) CreateSession(ctx context.Context, cwd string) (*Session, error) {
	p, err := r.GetOrCreate(ctx, cwd)
	if err != nil {
		return nil, err
	}
	id := newSessionID()
	s := &Session{
		id:        id,
		root:      p.Root,
		createdAt: time.Now(),
		limit:     r.cfg.HistoryLimit,
	}
	p.Touch(id)

	r.sessionsMu.Lock()
	r.sessions[id] = s
	r.sessionsMu.Unlock()
	metrics.SessionsOpen.Inc()
	return s, nil
}

// Resolve returns the Project bound to sessionID, or session-unknown /
// project-evicted.
func (r *Registry) Resolve(sessionID string) (*project.Project, error) {
	r.sessionsMu.RLock()
	s, ok := r.sessions[sessionID]
	r.sessionsMu.RUnlock()
	if !ok {
		return nil, errs.New(errs.SessionUnknown, "unknown session: "+sessionID)
	}
	if s.Evicted() {
		return nil, errs.New(errs.ProjectEvicted, "project evicted for session: "+sessionID)
	}

	r.mu.RLock()
	p, ok := r.projects[s.root]
	r.mu.RUnlock()
	if !ok {
		s.markEvicted()
		return nil, errs.New(errs.ProjectEvicted, "project evicted for session: "+sessionID)
	}
	p.Touch(sessionID)
	return p, nil
}

// Session returns the Session for sessionID, for recording request
// history; ok is false if the ID is unknown.
func (r *Registry) Session(sessionID string) (*Session, bool) {
	r.sessionsMu.RLock()
	defer r.sessionsMu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// DestroySession unbinds and forgets sessionID.
func (r *Registry) DestroySession(sessionID string) {
	r.sessionsMu.Lock()
	s, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.sessionsMu.Unlock()

	if !ok {
		return
	}
	metrics.SessionsOpen.Dec()
	r.mu.RLock()
	p, ok := r.projects[s.root]
	r.mu.RUnlock()
	if ok {
		p.Unbind(sessionID)
	}
}

// RootInfo is one entry in a list_roots snapshot.
type RootInfo struct {
	Root         string
	FileCount    int
	SymbolCount  int
	LastActive   time.Time
	SessionCount int
}

// ListRoots returns a snapshot of every resident project.
func (r *Registry) ListRoots() []RootInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RootInfo, 0, len(r.projects))
	for root, p := range r.projects {
		out = append(out, RootInfo{
			Root:         root,
			FileCount:    p.Tree.Len(),
			SymbolCount:  len(p.Table.List(lang.Kind(""), false, "")),
			LastActive:   p.LastActive(),
			SessionCount: p.SessionCount(),
		})
	}
	return out
}

// SessionInfo is one entry in a list_sessions snapshot.
type SessionInfo struct {
	ID        string
	Root      string
	CreatedAt time.Time
	Evicted   bool
}

// ListSessions returns a snapshot of every tracked session (spec §6
// list_sessions()).
func (r *Registry) ListSessions() []SessionInfo {
	r.sessionsMu.RLock()
	defer r.sessionsMu.RUnlock()

	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, SessionInfo{
			ID:        s.id,
			Root:      s.root,
			CreatedAt: s.createdAt,
			Evicted:   s.Evicted(),
		})
	}
	return out
}

// HealthSnapshot reports current resident/session counts against the
// configured capacity (spec §6 health()).
type HealthSnapshot struct {
	ProjectsResident int
	SessionsOpen     int
	MaxProjects      int
}

// Health returns the current HealthSnapshot.
func (r *Registry) Health() HealthSnapshot {
	r.mu.RLock()
	projectCount := len(r.projects)
	r.mu.RUnlock()

	r.sessionsMu.RLock()
	sessionCount := len(r.sessions)
	r.sessionsMu.RUnlock()

	return HealthSnapshot{
		ProjectsResident: projectCount,
		SessionsOpen:     sessionCount,
		MaxProjects:      r.cfg.MaxProjects,
	}
}

func newSessionID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}
