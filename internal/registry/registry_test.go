package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeindexd/codeindexd/internal/errs"
)

func tempProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	return dir
}

func TestGetOrCreateReturnsSameProjectForSameRoot(t *testing.T) {
	r := New(Config{MaxProjects: 5})
	dir := tempProject(t)

	p1, err := r.GetOrCreate(context.Background(), dir)
	require.NoError(t, err)
	p2, err := r.GetOrCreate(context.Background(), dir)
	require.NoError(t, err)
	require.Same(t, p1, p2)
}

func TestCreateSessionAndResolve(t *testing.T) {
	r := New(Config{MaxProjects: 5})
	dir := tempProject(t)

	s, err := r.CreateSession(context.Background(), dir)
	require.NoError(t, err)

	p, err := r.Resolve(s.ID())
	require.NoError(t, err)
	require.Equal(t, dir, p.Root)
}

func TestResolveUnknownSession(t *testing.T) {
	r := New(Config{MaxProjects: 5})
	_, err := r.Resolve("nonexistent")
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.SessionUnknown))
}

func TestLRUEvictionAtCapacity(t *testing.T) {
	r := New(Config{MaxProjects: 2})

	dirs := []string{tempProject(t), tempProject(t), tempProject(t)}

	var sessions []*Session
	for _, d := range dirs {
		s, err := r.CreateSession(context.Background(), d)
		require.NoError(t, err)
		sessions = append(sessions, s)
		time.Sleep(2 * time.Millisecond) // ensure distinct last_active
	}

	roots := r.ListRoots()
	require.Len(t, roots, 2)

	_, err := r.Resolve(sessions[0].ID())
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.ProjectEvicted))

	_, err = r.Resolve(sessions[2].ID())
	require.NoError(t, err)
}

func TestEvictMarksSessionsStale(t *testing.T) {
	r := New(Config{MaxProjects: 5})
	dir := tempProject(t)

	s, err := r.CreateSession(context.Background(), dir)
	require.NoError(t, err)

	r.Evict(dir)

	_, err = r.Resolve(s.ID())
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.ProjectEvicted))
}

func TestListRootsReportsCounts(t *testing.T) {
	r := New(Config{MaxProjects: 5})
	dir := tempProject(t)
	_, err := r.CreateSession(context.Background(), dir)
	require.NoError(t, err)

	roots := r.ListRoots()
	require.Len(t, roots, 1)
	require.Equal(t, 1, roots[0].FileCount)
	require.Equal(t, 1, roots[0].SessionCount)
}

func TestListSessionsReportsRootAndEvictedState(t *testing.T) {
	r := New(Config{MaxProjects: 5})
	dir := tempProject(t)
	s, err := r.CreateSession(context.Background(), dir)
	require.NoError(t, err)

	sessions := r.ListSessions()
	require.Len(t, sessions, 1)
	require.Equal(t, s.ID(), sessions[0].ID)
	require.Equal(t, dir, sessions[0].Root)
	require.False(t, sessions[0].Evicted)

	r.Evict(dir)
	sessions = r.ListSessions()
	require.Len(t, sessions, 1)
	require.True(t, sessions[0].Evicted)
}

func TestHealthReportsCountsAndCapacity(t *testing.T) {
	r := New(Config{MaxProjects: 3})
	dir := tempProject(t)
	_, err := r.CreateSession(context.Background(), dir)
	require.NoError(t, err)

	h := r.Health()
	require.Equal(t, 1, h.ProjectsResident)
	require.Equal(t, 1, h.SessionsOpen)
	require.Equal(t, 3, h.MaxProjects)
}

func TestSessionHistoryRingBuffer(t *testing.T) {
	s := &Session{limit: 3}
	s.Record("peek", "a.go", "preview1")
	s.Record("peek", "b.go", "preview2")
	s.Record("peek", "c.go", "preview3")
	s.Record("peek", "d.go", "preview4")

	hist := s.History()
	require.Len(t, hist, 3)
	require.Equal(t, "b.go", hist[0].Path)
	require.Equal(t, "d.go", hist[2].Path)
}
