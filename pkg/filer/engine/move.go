package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jamesainslie/filer/pkg/filer/types"
	"github.com/otiai10/copy"
)

// Move moves every selected file into dest. Each item is validated and moved
// independently; successes are never rolled back when a sibling fails.
// Directories are not moved and fail with types.ErrNotAFile.
//
// Moved entries leave the view unless dest is the view's directory. The
// selection keeps the items that failed; when none are left the engine
// returns to Browsing.
func (e *Engine) Move(ctx context.Context, dest string) Result {
	if len(e.sel) == 0 {
		return rejected(OpMove, types.ErrNothingSelected, e.Entries())
	}

	dest, err := resolveDir(dest)
	if err != nil {
		return rejected(OpMove, err, e.Entries())
	}

	res := Result{Op: OpMove, Dest: dest}
	moved := make(map[string]bool, len(e.sel))
	var arrived []types.Entry

	for _, en := range e.sel {
		applied, err := e.moveOne(ctx, en, dest)
		if err != nil {
			e.log.Warn("move failed", "path", en.Path, "dest", dest, "error", err)
			res.Failed = append(res.Failed, Failure{Name: en.Name, Err: err})
			continue
		}
		moved[en.Path] = true
		res.Succeeded = append(res.Succeeded, en.Name)
		res.Applied = append(res.Applied, applied)
		arrived = append(arrived, en.MovedTo(dest))
	}

	e.entries = removeEntries(e.entries, moved)
	if e.dir != "" && filepath.Clean(e.dir) == dest {
		e.entries = append(e.entries, arrived...)
	}

	remaining := e.sel[:0]
	for _, s := range e.sel {
		if !moved[s.Path] {
			remaining = append(remaining, s)
		}
	}
	e.sel = remaining
	if len(e.sel) == 0 {
		e.mode = Browsing
	}

	res.settle()
	res.Entries = e.Entries()
	e.log.Info("move", "dest", dest, "status", res.Status, "moved", len(res.Succeeded), "failed", len(res.Failed))

	e.finish(ctx, res)
	return res
}

func (e *Engine) moveOne(ctx context.Context, en types.Entry, dest string) (Applied, error) {
	if err := ctx.Err(); err != nil {
		return Applied{}, err
	}

	info, err := checkSourceFile(OpMove, en.Path)
	if err != nil {
		return Applied{}, err
	}

	target := filepath.Join(dest, en.Name)
	if err := checkFree(OpMove, target); err != nil {
		return Applied{}, err
	}

	if err := moveFile(en.Path, target); err != nil {
		return Applied{}, types.Unknown("move", en.Path, err)
	}

	return Applied{From: en.Path, To: target, Size: info.Size()}, nil
}

// moveFile renames src to dst, copying then removing when they are on
// different filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !isCrossDevice(err) {
		return err
	}

	if err := copy.Copy(src, dst, copy.Options{PreserveTimes: true, Sync: true}); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("copying across devices: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing source after copy: %w", err)
	}
	return nil
}

// resolveDir returns the absolute form of dir, or types.ErrNotADirectory
// (types.ErrAccessDenied when it cannot be inspected) if it is not a directory.
func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", types.Unknown("resolve", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", types.ClassifyListError(abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", types.ErrNotADirectory, abs)
	}
	return abs, nil
}

// checkSourceFile verifies that path still exists and is a regular file.
func checkSourceFile(op Op, path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", types.ErrSourceMissing, path)
	}
	if err != nil {
		return nil, types.Unknown(string(op), path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", types.ErrNotAFile, filepath.Base(path))
	}
	return info, nil
}

// checkFree verifies that nothing exists at path.
func checkFree(op Op, path string) error {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", types.ErrDestinationExists, path)
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return types.Unknown(string(op), path, err)
	}
}
