package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string, ignore func(string, bool) bool) (*Watcher, func()) {
	t.Helper()
	w, err := New(root, ignore)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	return w, func() {
		cancel()
		w.Close()
	}
}

func waitForEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return Event{}
	}
}

func TestWatcherReportsCreated(t *testing.T) {
	dir := t.TempDir()
	w, stop := startWatcher(t, dir, nil)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.go"), []byte("package main\n"), 0o644))

	ev := waitForEvent(t, w)
	require.Equal(t, "new.go", ev.RelPath)
	require.Equal(t, Created, ev.Op)
}

func TestWatcherReportsModified(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	w, stop := startWatcher(t, dir, nil)
	defer stop()

	require.NoError(t, os.WriteFile(target, []byte("package main // changed\n"), 0o644))

	ev := waitForEvent(t, w)
	require.Equal(t, "main.go", ev.RelPath)
	require.Equal(t, Modified, ev.Op)
}

func TestWatcherReportsRemoved(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	w, stop := startWatcher(t, dir, nil)
	defer stop()

	require.NoError(t, os.Remove(target))

	ev := waitForEvent(t, w)
	require.Equal(t, "main.go", ev.RelPath)
	require.Equal(t, Removed, ev.Op)
}

func TestWatcherHonorsIgnore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vendor"), 0o755))

	ignore := func(relPath string, isDir bool) bool {
		return relPath == "vendor" || filepath.Dir(relPath) == "vendor"
	}
	w, stop := startWatcher(t, dir, ignore)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "dep.go"), []byte("package vendor\n"), 0o644))
	// A non-ignored file must still surface an event; the vendor write
	// above must not (its directory was never added to fsnotify).
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.go"), []byte("package main\n"), 0o644))

	ev := waitForEvent(t, w)
	require.Equal(t, "keep.go", ev.RelPath)
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	w, stop := startWatcher(t, dir, nil)
	defer stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte("package main // edit\n"), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	ev := waitForEvent(t, w)
	require.Equal(t, "main.go", ev.RelPath)

	select {
	case extra := <-w.Events:
		t.Fatalf("expected rapid writes to coalesce into one event, got extra %+v", extra)
	case <-time.After(debounceWindow + 200*time.Millisecond):
	}
}

func TestWatcherCancellationStopsRun(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
	w.Close()
}

func TestOpString(t *testing.T) {
	require.Equal(t, "created", Created.String())
	require.Equal(t, "modified", Modified.String())
	require.Equal(t, "removed", Removed.String())
	require.Equal(t, "renamed", Renamed.String())
}
