package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingInvalidator) Invalidate(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

func (r *recordingInvalidator) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startWatcher(t *testing.T, opts Options, dir string) (*Watcher, <-chan Change) {
	t.Helper()

	w, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, w.Watch(dir))

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan Change, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, func(c Change) { changes <- c })
	}()

	t.Cleanup(func() {
		cancel()
		_ = w.Close()
		<-done
	})
	return w, changes
}

func TestWatch_CoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	inv := &recordingInvalidator{}
	_, changes := startWatcher(t, Options{Debounce: 100 * time.Millisecond, Invalidator: inv}, dir)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}

	want := map[string]bool{
		filepath.Join(dir, "a"): true,
		filepath.Join(dir, "b"): true,
		filepath.Join(dir, "c"): true,
	}
	deadline := time.After(5 * time.Second)
	for len(want) > 0 {
		select {
		case c := <-changes:
			assert.Equal(t, dir, c.Dir)
			for _, p := range c.Paths {
				delete(want, p)
			}
		case <-deadline:
			t.Fatalf("changes not delivered for %v", want)
		}
	}

	assert.Contains(t, inv.seen(), filepath.Join(dir, "a"))
}

func TestWatch_ReplacesDirectory(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	w, changes := startWatcher(t, Options{Debounce: 50 * time.Millisecond}, first)

	require.NoError(t, w.Watch(second))
	assert.Equal(t, second, w.Dir())

	require.NoError(t, os.WriteFile(filepath.Join(second, "new"), nil, 0o644))

	select {
	case c := <-changes:
		assert.Equal(t, second, c.Dir)
		assert.Contains(t, c.Paths, filepath.Join(second, "new"))
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
	}
}

func TestWatch_RejectsFiles(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	w, err := New(Options{})
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.Watch(file))
	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "missing")))
	assert.Empty(t, w.Dir())
}

func TestRelevant(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)
	defer w.Close()

	dir := t.TempDir()
	require.NoError(t, w.Watch(dir))

	_, ok := w.relevant(fsnotify.Event{Name: filepath.Join(dir, "a"), Op: fsnotify.Create})
	assert.True(t, ok)

	_, ok = w.relevant(fsnotify.Event{Name: filepath.Join(dir, "a"), Op: fsnotify.Chmod})
	assert.False(t, ok, "chmod alone is ignored")

	_, ok = w.relevant(fsnotify.Event{Name: "/somewhere/else", Op: fsnotify.Write})
	assert.False(t, ok)
}

func TestClose_Idempotent(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.NoError(t, w.Watch(t.TempDir()), "watch after close is a no-op")
}
