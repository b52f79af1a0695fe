package inventory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/filer/pkg/filer/logging"
	"github.com/jamesainslie/filer/pkg/filer/types"
)

// Inventory produces directory listings and entry metadata.
// It holds no per-directory state and is safe for concurrent use.
type Inventory struct {
	opts Options
	log  *logging.Logger
}

// New creates an Inventory. Out-of-range options fall back to defaults.
func New(opts Options) *Inventory {
	opts.ApplyDefaults()
	return &Inventory{opts: opts, log: logging.Get("inventory")}
}

// Options returns the effective options.
func (inv *Inventory) Options() Options {
	return inv.opts
}

// List returns the entries of dir in filesystem enumeration order.
// It fails with types.ErrNotADirectory if dir is missing or not a directory
// and with types.ErrAccessDenied if dir cannot be read.
func (inv *Inventory) List(ctx context.Context, dir string) ([]types.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, types.Unknown("list", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, types.ClassifyListError(abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", types.ErrNotADirectory, abs)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, types.ClassifyListError(abs, err)
	}
	defer f.Close()

	dirents, err := f.ReadDir(-1)
	if err != nil {
		return nil, types.ClassifyListError(abs, err)
	}

	entries := make([]types.Entry, 0, len(dirents))
	for _, d := range dirents {
		name := d.Name()
		if !inv.opts.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(abs, name)
		isDir, err := resolveIsDir(path, d)
		if err != nil {
			inv.log.Debug("skipping entry", "path", path, "error", err)
			continue
		}
		entries = append(entries, types.Entry{Name: name, Path: path, IsDir: isDir})
	}

	inv.log.Debug("listed directory", "dir", abs, "entries", len(entries))
	return entries, nil
}

// resolveIsDir reports whether d is a directory. A symlink counts as a
// directory when its target is one; a dangling link counts as a file.
func resolveIsDir(path string, d fs.DirEntry) (bool, error) {
	if d.Type()&fs.ModeSymlink == 0 {
		return d.IsDir(), nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// Metadata computes the metadata for entry. For files it reports the length
// and mtime; for directories the direct child count and the recursive sum of
// descendant file sizes. It never modifies the filesystem.
func (inv *Inventory) Metadata(ctx context.Context, entry types.Entry) (types.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return types.Metadata{}, err
	}

	info, err := os.Stat(entry.Path)
	if err != nil {
		return types.Metadata{}, classifyStatError(entry.Path, err)
	}

	if !info.IsDir() {
		return types.Metadata{
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}, nil
	}

	if inv.opts.Cache != nil {
		if md, ok := inv.opts.Cache.Lookup(entry.Path, info.ModTime()); ok {
			inv.log.Debug("cache hit", "path", entry.Path)
			return md, nil
		}
	}

	items, err := countChildren(entry.Path)
	if err != nil {
		return types.Metadata{}, types.ClassifyListError(entry.Path, err)
	}

	total, err := inv.dirSize(ctx, entry.Path)
	if err != nil {
		return types.Metadata{}, err
	}

	md := types.Metadata{
		Size:    total.size,
		Items:   items,
		ModTime: info.ModTime(),
		IsDir:   true,
		Skipped: total.skipped,
	}

	if inv.opts.Cache != nil {
		if err := inv.opts.Cache.Store(entry.Path, md); err != nil {
			inv.log.Warn("cache write failed", "path", entry.Path, "error", err)
		}
	}

	return md, nil
}

func countChildren(dir string) (int, error) {
	f, err := os.Open(dir)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

func classifyStatError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", types.ErrSourceMissing, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", types.ErrAccessDenied, path)
	default:
		return types.Unknown("stat", path, err)
	}
}
