// Package engine implements the selection state machine and the validated
// file mutations (delete, rename, move, copy from clipboard) that act on it.
//
// An Engine owns the current view of a directory listing and the set of
// selected entries. It is driven from a single goroutine and holds no locks.
// Every mutation validates against the live filesystem before touching it,
// reports per-item outcomes in a Result, and returns the revised view.
package engine

import (
	"context"

	"github.com/jamesainslie/filer/pkg/filer/logging"
	"github.com/jamesainslie/filer/pkg/filer/trash"
	"github.com/jamesainslie/filer/pkg/filer/types"
)

// Mode is the selection mode.
type Mode int

// Selection modes.
const (
	// Browsing shows no selection UI.
	Browsing Mode = iota

	// Selecting has zero or more entries marked.
	Selecting
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Browsing:
		return "browsing"
	case Selecting:
		return "selecting"
	default:
		return "unknown"
	}
}

// Clipboard is a source holding at most one file reference.
type Clipboard interface {
	// Read returns the referenced path, or "" when the clipboard is empty.
	Read(ctx context.Context) (string, error)
}

// Remover disposes of a path instead of deleting it outright.
// *trash.Bin satisfies it.
type Remover interface {
	Remove(ctx context.Context, path string) (trash.Method, error)
}

// Recorder journals completed mutations.
type Recorder interface {
	Record(ctx context.Context, res Result) error
}

// Invalidator is told about every path a mutation touched.
type Invalidator interface {
	Invalidate(path string) error
}

// Options configures an Engine. Every field is optional.
type Options struct {
	// Trash, when set, is used by Delete instead of permanent removal.
	Trash Remover

	// Clipboard is the source read by CopyFromClipboard.
	Clipboard Clipboard

	// Recorder journals every mutation with at least one success.
	Recorder Recorder

	// Invalidator is called with the source and destination of each
	// successful mutation.
	Invalidator Invalidator
}

// Engine holds the current view and the selection set.
type Engine struct {
	opts Options
	log  *logging.Logger

	mode    Mode
	dir     string
	entries []types.Entry
	sel     []types.Entry
}

// New creates an Engine in Browsing mode with an empty view.
func New(opts Options) *Engine {
	return &Engine{
		opts: opts,
		log:  logging.Get("engine"),
	}
}

// Mode returns the current selection mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Dir returns the directory of the current view.
func (e *Engine) Dir() string {
	return e.dir
}

// Entries returns a copy of the current view.
func (e *Engine) Entries() []types.Entry {
	return append([]types.Entry(nil), e.entries...)
}

// Selected returns a copy of the selection in the order entries were added.
func (e *Engine) Selected() []types.Entry {
	return append([]types.Entry(nil), e.sel...)
}

// SelectedCount returns the number of selected entries.
func (e *Engine) SelectedCount() int {
	return len(e.sel)
}

// IsSelected reports whether the entry with the given path is selected.
func (e *Engine) IsSelected(path string) bool {
	return types.IndexOf(e.sel, path) >= 0
}

// SetEntries replaces the view with a listing of dir and reconciles the
// selection by path. Selected entries missing from the new view are dropped;
// the mode is kept even if the selection becomes empty.
func (e *Engine) SetEntries(dir string, entries []types.Entry) {
	e.dir = dir
	e.entries = append([]types.Entry(nil), entries...)

	kept := e.sel[:0]
	for _, s := range e.sel {
		if i := types.IndexOf(e.entries, s.Path); i >= 0 {
			kept = append(kept, e.entries[i])
		}
	}
	e.sel = kept
}

// Begin starts a selection with entry as its sole member. In Selecting mode
// it behaves like Toggle.
func (e *Engine) Begin(entry types.Entry) {
	if e.mode == Selecting {
		e.Toggle(entry)
		return
	}
	e.mode = Selecting
	e.sel = []types.Entry{entry}
}

// Toggle adds entry to the selection if absent and removes it if present.
// It is ignored in Browsing mode and reports whether it had an effect.
func (e *Engine) Toggle(entry types.Entry) bool {
	if e.mode != Selecting {
		return false
	}

	if i := types.IndexOf(e.sel, entry.Path); i >= 0 {
		e.sel = append(e.sel[:i], e.sel[i+1:]...)
		return true
	}
	e.sel = append(e.sel, entry)
	return true
}

// SelectAll selects every entry of the current view, entering Selecting mode.
func (e *Engine) SelectAll() {
	e.mode = Selecting
	e.sel = append([]types.Entry(nil), e.entries...)
}

// ClearSelection empties the selection without leaving Selecting mode.
func (e *Engine) ClearSelection() {
	e.sel = nil
}

// Cancel empties the selection and returns to Browsing.
func (e *Engine) Cancel() {
	e.sel = nil
	e.mode = Browsing
}

// finish notifies the invalidator and recorder about a completed mutation.
func (e *Engine) finish(ctx context.Context, res Result) {
	if len(res.Applied) == 0 {
		return
	}

	if e.opts.Invalidator != nil {
		for _, a := range res.Applied {
			for _, p := range []string{a.From, a.To} {
				if p == "" {
					continue
				}
				if err := e.opts.Invalidator.Invalidate(p); err != nil {
					e.log.Warn("cache invalidation failed", "path", p, "error", err)
				}
			}
		}
	}

	if e.opts.Recorder != nil {
		if err := e.opts.Recorder.Record(ctx, res); err != nil {
			e.log.Warn("recording operation failed", "op", res.Op, "error", err)
		}
	}
}

// removeEntries returns entries without the given paths.
func removeEntries(entries []types.Entry, paths map[string]bool) []types.Entry {
	out := make([]types.Entry, 0, len(entries))
	for _, en := range entries {
		if !paths[en.Path] {
			out = append(out, en)
		}
	}
	return out
}
