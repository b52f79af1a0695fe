// Package clipboard holds the single file reference that paste copies from.
//
// Three stores are provided: Memory for tests and a single TUI session, File
// which persists the reference under the XDG state directory so that
// "filer yank" and "filer paste" can run as separate processes, and System
// which goes through the desktop clipboard tools.
package clipboard

import (
	"context"
	"fmt"
	"strings"
)

// Store reads and writes a single file reference. Read returns "" when the
// clipboard is empty.
type Store interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, path string) error
	Clear(ctx context.Context) error
}

// Kinds accepted by New.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSystem = "system"
)

// New returns the store of the given kind. An empty kind selects File.
func New(kind string) (Store, error) {
	switch strings.ToLower(kind) {
	case KindFile, "":
		return NewFile(DefaultPath()), nil
	case KindMemory:
		return &Memory{}, nil
	case KindSystem:
		return NewSystem(), nil
	default:
		return nil, fmt.Errorf("unknown clipboard kind %q", kind)
	}
}

// firstLine keeps only the first non-blank line; multi-item payloads are
// reduced to their first item.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
