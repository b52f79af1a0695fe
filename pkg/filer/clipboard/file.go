package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultPath returns $XDG_STATE_HOME/filer/clipboard.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, "filer", "clipboard")
}

// File keeps the reference in a small state file.
type File struct {
	path string
}

// NewFile returns a File store backed by path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the state file location.
func (f *File) Path() string {
	return f.path
}

// Read returns the stored reference, or "" if the state file does not exist.
func (f *File) Read(context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading clipboard: %w", err)
	}
	return firstLine(string(data)), nil
}

// Write atomically replaces the stored reference.
func (f *File) Write(_ context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating clipboard directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(firstLine(path)+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}

// Clear removes the state file.
func (f *File) Clear(context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing clipboard: %w", err)
	}
	return nil
}
