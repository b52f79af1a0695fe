package inventory

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/filer/pkg/filer/types"
)

type dirTotal struct {
	size    int64
	skipped int
}

// dirSize sums the sizes of regular files below root using fastwalk.
// Symlinks are never followed. Subtrees deeper than MaxDepth and entries that
// cannot be read are skipped; unreadable entries are counted, not fatal.
func (inv *Inventory) dirSize(ctx context.Context, root string) (dirTotal, error) {
	// Resolve a symlinked root so the walk starts at the real directory.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	var (
		size    atomic.Int64
		skipped atomic.Int64
	)

	conf := fastwalk.Config{Follow: false}
	maxDepth := inv.opts.MaxDepth

	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			skipped.Add(1)
			inv.log.Debug("walk error", "path", path, "error", err)
			return nil
		}

		if d.IsDir() {
			if path != root && depth(root, path) > maxDepth {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			skipped.Add(1)
			return nil
		}

		size.Add(info.Size())
		return nil
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dirTotal{}, ctxErr
		}
		return dirTotal{}, types.Unknown("walk", root, err)
	}

	return dirTotal{
		size:    size.Load(),
		skipped: int(skipped.Load()),
	}, nil
}

// depth returns how many directory levels path lies below root.
func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
