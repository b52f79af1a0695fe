package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jamesainslie/filer/pkg/filer/types"
)

// Delete removes every selected entry, best-effort. A failure on one entry
// never stops the others. Afterwards the selection is cleared and the engine
// returns to Browsing, whatever the per-item outcome.
func (e *Engine) Delete(ctx context.Context) Result {
	if len(e.sel) == 0 {
		return rejected(OpDelete, types.ErrNothingSelected, e.Entries())
	}

	res := Result{Op: OpDelete}
	removed := make(map[string]bool, len(e.sel))

	for _, en := range e.sel {
		applied, err := e.remove(ctx, en)
		if err != nil {
			e.log.Warn("delete failed", "path", en.Path, "error", err)
			res.Failed = append(res.Failed, Failure{Name: en.Name, Err: err})
			continue
		}
		removed[en.Path] = true
		res.Succeeded = append(res.Succeeded, en.Name)
		res.Applied = append(res.Applied, applied)
	}

	e.entries = removeEntries(e.entries, removed)
	e.Cancel()

	res.settle()
	res.Entries = e.Entries()
	e.log.Info("delete", "status", res.Status, "removed", len(res.Succeeded), "failed", len(res.Failed))

	e.finish(ctx, res)
	return res
}

func (e *Engine) remove(ctx context.Context, en types.Entry) (Applied, error) {
	if err := ctx.Err(); err != nil {
		return Applied{}, err
	}

	info, err := os.Lstat(en.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Applied{}, fmt.Errorf("%w: %s", types.ErrSourceMissing, en.Path)
	}
	if err != nil {
		return Applied{}, types.Unknown("delete", en.Path, err)
	}

	applied := Applied{From: en.Path, IsDir: info.IsDir()}
	if info.Mode().IsRegular() {
		applied.Size = info.Size()
	}

	if e.opts.Trash != nil {
		method, err := e.opts.Trash.Remove(ctx, en.Path)
		if err != nil {
			return Applied{}, types.Unknown("delete", en.Path, err)
		}
		e.log.Debug("trashed", "path", en.Path, "method", method)
		return applied, nil
	}

	if err := os.RemoveAll(en.Path); err != nil {
		return Applied{}, types.Unknown("delete", en.Path, err)
	}
	return applied, nil
}
