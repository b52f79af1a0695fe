package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/filer/pkg/filer/types"
)

// Rename gives entry a new name in the same directory. Validation happens in
// a fixed order and stops at the first failure:
//
//   - more than one entry selected: types.ErrMultipleSelected
//   - newName blank: types.ErrEmptyName
//   - newName equal to the current name: types.ErrNoChange
//   - newName containing a path separator, or "." or "..": types.ErrInvalidName
//   - entry gone from disk: types.ErrSourceMissing
//   - entry not a regular file: types.ErrNotAFile
//   - newName already taken: types.ErrDestinationExists
//
// On success the new entry replaces the old one at the same index of the view.
func (e *Engine) Rename(ctx context.Context, entry types.Entry, newName string) Result {
	newName = strings.TrimSpace(newName)

	if err := e.validateRename(entry, newName); err != nil {
		e.log.Debug("rename rejected", "path", entry.Path, "name", newName, "error", err)
		return rejected(OpRename, err, e.Entries())
	}

	if err := ctx.Err(); err != nil {
		return Result{Op: OpRename, Status: Failed, Err: err, Entries: e.Entries()}
	}

	renamed := entry.Renamed(newName)
	if err := os.Rename(entry.Path, renamed.Path); err != nil {
		opErr := types.Unknown("rename", entry.Path, err)
		e.log.Error("rename failed", "path", entry.Path, "error", err)
		return Result{
			Op:      OpRename,
			Status:  Failed,
			Err:     opErr,
			Failed:  []Failure{{Name: entry.Name, Err: opErr}},
			Entries: e.Entries(),
		}
	}

	if i := types.IndexOf(e.entries, entry.Path); i >= 0 {
		e.entries[i] = renamed
	}
	if i := types.IndexOf(e.sel, entry.Path); i >= 0 {
		e.sel[i] = renamed
	}

	res := Result{
		Op:        OpRename,
		Status:    Succeeded,
		Succeeded: []string{entry.Name},
		Applied:   []Applied{{From: entry.Path, To: renamed.Path}},
		Entries:   e.Entries(),
		Entry:     &renamed,
	}
	e.log.Info("renamed", "from", entry.Path, "to", renamed.Path)

	e.finish(ctx, res)
	return res
}

func (e *Engine) validateRename(entry types.Entry, newName string) error {
	switch {
	case len(e.sel) > 1:
		return types.ErrMultipleSelected
	case newName == "":
		return types.ErrEmptyName
	case newName == entry.Name:
		return types.ErrNoChange
	}

	if err := ValidateName(newName); err != nil {
		return err
	}

	src, err := os.Stat(entry.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", types.ErrSourceMissing, entry.Path)
	}
	if err != nil {
		return types.Unknown("rename", entry.Path, err)
	}
	if !src.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", types.ErrNotAFile, entry.Name)
	}

	dest := filepath.Join(entry.Dir(), newName)
	dst, err := os.Lstat(dest)
	switch {
	case err == nil:
		// A case-only rename on a case-insensitive filesystem finds the source itself.
		if !os.SameFile(src, dst) {
			return fmt.Errorf("%w: %s", types.ErrDestinationExists, newName)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return types.Unknown("rename", dest, err)
	}

	return nil
}

// ValidateName reports whether name can be used as a single path segment.
func ValidateName(name string) error {
	if name == "." || name == ".." ||
		strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') ||
		strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", types.ErrInvalidName, name)
	}
	return nil
}
