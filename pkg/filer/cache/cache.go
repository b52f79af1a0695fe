// Package cache persists recursive directory totals between runs.
//
// A cached total is only trusted while the directory's mtime still matches
// the one recorded with it. Because a change deep in a tree does not touch
// the mtime of distant ancestors, every mutation must call Invalidate, which
// drops the mutated path, all of its ancestors and everything beneath it.
package cache

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/filer/pkg/filer/logging"
	"github.com/jamesainslie/filer/pkg/filer/types"
)

// DefaultPath returns $XDG_CACHE_HOME/filer/sizes.
func DefaultPath() string {
	return filepath.Join(xdg.CacheHome, "filer", "sizes")
}

// Cache provides directory-size caching on top of a Store.
type Cache struct {
	store *Store
	log   *logging.Logger
}

// Open opens or creates a cache at the given directory. A lock left by a
// filer that exited without closing the cache is removed first; a lock held
// by a running process yields ErrLocked.
func Open(path string) (*Cache, error) {
	if err := recoverLock(path); err != nil {
		return nil, err
	}
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	return New(store), nil
}

// OpenMemory opens a cache that is discarded on Close.
func OpenMemory() (*Cache, error) {
	store, err := OpenMemoryStore()
	if err != nil {
		return nil, err
	}
	return New(store), nil
}

// New wraps an open store.
func New(store *Store) *Cache {
	return &Cache{store: store, log: logging.Get("cache")}
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Lookup returns the cached metadata for dir if it was recorded against the
// given mtime.
func (c *Cache) Lookup(dir string, mtime time.Time) (types.Metadata, bool) {
	entry, err := c.store.Get(dir)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn("cache read failed", "path", dir, "error", err)
		}
		return types.Metadata{}, false
	}

	if entry.Version != Version || entry.Mtime != mtime.UnixNano() {
		return types.Metadata{}, false
	}

	return types.Metadata{
		Size:    entry.Size,
		Items:   entry.Items,
		Skipped: entry.Skipped,
		ModTime: mtime,
		IsDir:   true,
	}, true
}

// Store records the metadata computed for dir. Non-directory metadata is ignored.
func (c *Cache) Store(dir string, md types.Metadata) error {
	if !md.IsDir {
		return nil
	}
	return c.store.Put(dir, &Entry{
		Version: Version,
		Size:    md.Size,
		Items:   md.Items,
		Skipped: md.Skipped,
		Mtime:   md.ModTime.UnixNano(),
	})
}

// Invalidate drops the entries for path, each of its ancestors and every
// directory below it.
func (c *Cache) Invalidate(path string) error {
	if err := c.store.Delete(Ancestors(path)...); err != nil {
		return err
	}

	n, err := c.store.DeletePrefix(MakeDescendantPrefix(path))
	if err != nil {
		return err
	}
	c.log.Debug("invalidated", "path", path, "descendants", n)
	return nil
}

// Clear removes every cached entry.
func (c *Cache) Clear() (int, error) {
	return c.store.DeletePrefix([]byte(keyPrefix))
}

// Len returns the number of cached directories.
func (c *Cache) Len() (int, error) {
	return c.store.Count()
}
