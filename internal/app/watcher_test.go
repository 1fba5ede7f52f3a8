package app

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/image"
)

type listerFunc func() ([]string, error)

func (f listerFunc) List() ([]string, error) { return f() }

// switchLister returns a fixed listing that tests can swap concurrently.
type switchLister struct {
	mu   sync.Mutex
	refs []string
}

func (l *switchLister) List() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.refs...), nil
}

func (l *switchLister) set(refs ...string) {
	l.mu.Lock()
	l.refs = refs
	l.mu.Unlock()
}

func waitListing(t *testing.T, ch <-chan []string, want []string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-ch:
			if assert.ObjectsAreEqual(want, got) {
				return
			}
		case <-deadline:
			t.Fatalf("listing %v never reported", want)
		}
	}
}

func TestTrayWatcherCheck(t *testing.T) {
	refs := []string{"a.png"}
	w := NewTrayWatcher(listerFunc(func() ([]string, error) { return refs, nil }), "", 0, nil)
	assert.Equal(t, []string{"a.png"}, w.Current())

	var got [][]string
	w.OnChange(func(r []string) { got = append(got, r) })

	assert.False(t, w.Check())
	refs = []string{"a.png", "b.png"}
	assert.True(t, w.Check())
	assert.False(t, w.Check())
	assert.Equal(t, [][]string{{"a.png", "b.png"}}, got)
}

func TestTrayWatcherOverDirectory(t *testing.T) {
	dir := t.TempDir()
	w := NewTrayWatcher(image.DirSource{Root: dir}, dir, 0, nil)
	assert.Empty(t, w.Current())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "star.png"), pngBytes(t, 4, 4), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	assert.True(t, w.Check())
	assert.Equal(t, []string{"star.png"}, w.Current())
}

func TestTrayWatcherNotifiesOnDirectoryChanges(t *testing.T) {
	dir := t.TempDir()
	w := NewTrayWatcher(image.DirSource{Root: dir}, dir, 0, nil)
	changes := make(chan []string, 16)
	w.OnChange(func(r []string) { changes <- r })
	w.Start()
	defer w.Stop()

	path := filepath.Join(dir, "heart.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 4, 4), 0o644))
	waitListing(t, changes, []string{"heart.png"})

	require.NoError(t, os.Remove(path))
	waitListing(t, changes, nil)
}

func TestTrayWatcherPollsWithoutDirectory(t *testing.T) {
	lister := &switchLister{refs: []string{"a.png"}}
	w := NewTrayWatcher(lister, "", 10*time.Millisecond, nil)
	changes := make(chan []string, 16)
	w.OnChange(func(r []string) { changes <- r })
	w.Start()
	defer w.Stop()

	lister.set("a.png", "b.png")
	waitListing(t, changes, []string{"a.png", "b.png"})
}

func TestTrayWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewTrayWatcher(image.DirSource{Root: dir}, dir, time.Hour, nil)
	w.Stop()
	w.Start()
	w.Start()
	assert.NotPanics(t, func() {
		w.Stop()
		w.Stop()
	})
}
