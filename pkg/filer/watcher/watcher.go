// Package watcher reports changes to the directory currently on screen.
//
// Only one directory is watched at a time and the watch is not recursive:
// the listing shows direct children, and a changed child is enough to
// refresh it. Bursts of events are coalesced into a single Change.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesainslie/filer/pkg/filer/logging"
)

// DefaultDebounce is the quiet period that ends a burst of events.
const DefaultDebounce = 150 * time.Millisecond

// Invalidator is told about every changed path. *cache.Cache satisfies it.
type Invalidator interface {
	Invalidate(path string) error
}

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period before a Change is delivered.
	// Zero uses DefaultDebounce.
	Debounce time.Duration

	// Invalidator is optional.
	Invalidator Invalidator
}

// Change is a coalesced burst of events in the watched directory.
type Change struct {
	Dir   string
	Paths []string
}

// Watcher watches one directory at a time.
type Watcher struct {
	fsw  *fsnotify.Watcher
	opts Options
	log  *logging.Logger

	mu     sync.Mutex
	dir    string
	closed bool
}

// New creates a Watcher that is not yet watching anything.
func New(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &Watcher{fsw: fsw, opts: opts, log: logging.Get("watcher")}, nil
}

// Watch replaces the watched directory with dir.
func (w *Watcher) Watch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", abs)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	if w.dir == abs {
		return nil
	}

	if w.dir != "" {
		_ = w.fsw.Remove(w.dir)
		w.dir = ""
	}

	if err := w.fsw.Add(abs); err != nil {
		w.log.Warn("failed to add watch", "path", abs, "error", err)
		return err
	}
	w.dir = abs
	w.log.Debug("watching", "dir", abs)
	return nil
}

// Dir returns the watched directory, or "" when nothing is watched.
func (w *Watcher) Dir() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

// Run delivers coalesced changes to onChange until ctx is cancelled or the
// watcher is closed. onChange is called from Run's goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(Change)) {
	pending := make(map[string]bool)
	pendingDir := ""

	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		pending = make(map[string]bool)

		if onChange != nil {
			onChange(Change{Dir: pendingDir, Paths: paths})
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			dir, relevant := w.relevant(event)
			if !relevant {
				continue
			}
			if pendingDir != dir {
				pending = make(map[string]bool)
				pendingDir = dir
			}
			pending[event.Name] = true
			w.invalidate(event.Name)

			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			flush()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

// relevant reports whether event concerns the watched directory, and which
// directory that is.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op == fsnotify.Chmod {
		return "", false
	}

	w.mu.Lock()
	dir := w.dir
	w.mu.Unlock()

	if dir == "" {
		return "", false
	}
	if event.Name != dir && filepath.Dir(event.Name) != dir {
		return "", false
	}
	return dir, true
}

func (w *Watcher) invalidate(path string) {
	if w.opts.Invalidator == nil {
		return
	}
	if err := w.opts.Invalidator.Invalidate(path); err != nil {
		w.log.Warn("cache invalidation failed", "path", path, "error", err)
	}
}

// Close stops the watcher. Run returns once its channels are closed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.dir = ""
	return w.fsw.Close()
}
