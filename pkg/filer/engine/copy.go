package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/filer/pkg/filer/types"
	"github.com/otiai10/copy"
)

// CopyFromClipboard copies the single file referenced by the clipboard into
// dest, byte for byte, leaving the source untouched. The copy keeps the
// source's mode and timestamps. The new entry joins the view when dest is the
// view's directory.
func (e *Engine) CopyFromClipboard(ctx context.Context, dest string) Result {
	src, err := e.readClipboard(ctx)
	if err != nil {
		if errors.Is(err, types.ErrEmptyClipboard) {
			return rejected(OpCopy, err, e.Entries())
		}
		return Result{Op: OpCopy, Status: Failed, Err: err, Entries: e.Entries()}
	}

	dest, err = resolveDir(dest)
	if err != nil {
		return rejected(OpCopy, err, e.Entries())
	}

	info, err := checkSourceFile(OpCopy, src)
	if err != nil {
		return rejected(OpCopy, err, e.Entries())
	}

	created := types.NewEntry(filepath.Join(dest, filepath.Base(src)), false)
	if err := checkFree(OpCopy, created.Path); err != nil {
		return rejected(OpCopy, err, e.Entries())
	}

	if err := ctx.Err(); err != nil {
		return Result{Op: OpCopy, Status: Failed, Err: err, Entries: e.Entries()}
	}

	opts := copy.Options{PreserveTimes: true, Sync: true}
	if err := copy.Copy(src, created.Path, opts); err != nil {
		_ = os.Remove(created.Path)
		opErr := types.Unknown("copy", src, err)
		e.log.Error("copy failed", "src", src, "dest", created.Path, "error", err)
		return Result{
			Op:      OpCopy,
			Status:  Failed,
			Err:     opErr,
			Failed:  []Failure{{Name: filepath.Base(src), Err: opErr}},
			Entries: e.Entries(),
			Dest:    dest,
		}
	}

	if e.dir != "" && filepath.Clean(e.dir) == dest {
		e.entries = append(e.entries, created)
	}

	res := Result{
		Op:        OpCopy,
		Status:    Succeeded,
		Succeeded: []string{created.Name},
		Applied:   []Applied{{From: src, To: created.Path, Size: info.Size()}},
		Entries:   e.Entries(),
		Entry:     &created,
		Dest:      dest,
	}
	e.log.Info("copied", "src", src, "dest", created.Path)

	e.finish(ctx, res)
	return res
}

func (e *Engine) readClipboard(ctx context.Context) (string, error) {
	if e.opts.Clipboard == nil {
		return "", types.ErrEmptyClipboard
	}

	ref, err := e.opts.Clipboard.Read(ctx)
	if err != nil {
		if errors.Is(err, types.ErrEmptyClipboard) {
			return "", err
		}
		return "", types.Unknown("copy", "clipboard", err)
	}

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", types.ErrEmptyClipboard
	}
	return ref, nil
}
