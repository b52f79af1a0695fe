// Package types provides core data types for the filer file manager.
// It includes the Entry value that identifies a row in a directory listing,
// the derived Metadata computed for it, the error taxonomy shared by the
// inventory and the mutation engine, and size formatting helpers.
package types

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// Entry is one filesystem node shown to the user.
// Entries are immutable values identified by Path; a rename produces a new
// Entry rather than modifying an existing one.
type Entry struct {
	// Name is the display name (final path segment).
	Name string `json:"name"`

	// Path is the absolute path of the node and its identity key.
	Path string `json:"path"`

	// IsDir is fixed at creation time from the filesystem.
	IsDir bool `json:"is_dir"`
}

// NewEntry creates an Entry for the given absolute path.
func NewEntry(path string, isDir bool) Entry {
	path = filepath.Clean(path)
	return Entry{
		Name:  filepath.Base(path),
		Path:  path,
		IsDir: isDir,
	}
}

// Same reports whether e and other are the same logical row.
// Only Path is compared; other fields may be stale.
func (e Entry) Same(other Entry) bool {
	return e.Path == other.Path
}

// Dir returns the directory containing the entry.
func (e Entry) Dir() string {
	return filepath.Dir(e.Path)
}

// Ext returns the file extension including the dot, or "" for directories.
func (e Entry) Ext() string {
	if e.IsDir {
		return ""
	}
	return filepath.Ext(e.Name)
}

// Renamed returns a new Entry for the same node under newName in the same directory.
func (e Entry) Renamed(newName string) Entry {
	return NewEntry(filepath.Join(e.Dir(), newName), e.IsDir)
}

// MovedTo returns a new Entry for the same node placed in dir.
func (e Entry) MovedTo(dir string) Entry {
	return NewEntry(filepath.Join(dir, e.Name), e.IsDir)
}

// IndexOf returns the position of the entry with the given path, or -1.
func IndexOf(entries []Entry, path string) int {
	for i, e := range entries {
		if e.Path == path {
			return i
		}
	}
	return -1
}

// Metadata holds the derived, lazily computed information about an Entry.
// It is never stored on the Entry itself.
type Metadata struct {
	// Size is the file length, or the recursive sum of descendant file sizes
	// for directories.
	Size int64 `json:"size"`

	// Items is the number of direct children. Only meaningful for directories.
	Items int `json:"items,omitempty"`

	// ModTime is the last modification time of the node.
	ModTime time.Time `json:"mod_time"`

	// IsDir mirrors the Entry the metadata was computed for.
	IsDir bool `json:"is_dir"`

	// Skipped counts descendants that could not be read during a recursive
	// size computation.
	Skipped int `json:"skipped,omitempty"`
}

// DefaultTimeLayout is the layout used for last-modified labels.
const DefaultTimeLayout = "2006-01-02 15:04"

// LabelOptions controls how Metadata is rendered for display.
type LabelOptions struct {
	// TimeLayout is the time.Format layout for the modified label.
	// Empty uses DefaultTimeLayout.
	TimeLayout string

	// Relative renders the modified label as a relative time ("3 hours ago").
	Relative bool
}

// Labels are the human-readable strings rendered for a row.
type Labels struct {
	Size     string `json:"size"`
	Count    string `json:"count,omitempty"`
	Modified string `json:"modified"`
}

// Labels renders the metadata for display.
func (m Metadata) Labels(opts LabelOptions) Labels {
	l := Labels{Size: FormatSize(m.Size)}

	if m.IsDir {
		l.Count = FormatCount(m.Items)
	}

	switch {
	case m.ModTime.IsZero():
		l.Modified = ""
	case opts.Relative:
		l.Modified = humanize.Time(m.ModTime)
	default:
		layout := opts.TimeLayout
		if layout == "" {
			layout = DefaultTimeLayout
		}
		l.Modified = m.ModTime.Format(layout)
	}

	return l
}

// FormatCount renders a child-item count, e.g. "1 item" or "1,024 items".
func FormatCount(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%s items", humanize.Comma(int64(n)))
}
