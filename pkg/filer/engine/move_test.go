package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/filer/pkg/filer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove_Rejections(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"a": "1"})

	e := newEngine(dir, entries)
	res := e.Move(context.Background(), t.TempDir())
	assert.Equal(t, Rejected, res.Status)
	assert.ErrorIs(t, res.Err, types.ErrNothingSelected)

	e.SelectAll()
	res = e.Move(context.Background(), filepath.Join(dir, "a"))
	assert.Equal(t, Rejected, res.Status)
	assert.ErrorIs(t, res.Err, types.ErrNotADirectory)

	res = e.Move(context.Background(), filepath.Join(dir, "missing"))
	assert.ErrorIs(t, res.Err, types.ErrNotADirectory)
	assert.FileExists(t, filepath.Join(dir, "a"))
}

func TestMove_AllSucceed(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"a": "alpha", "b": "beta"})
	dest := t.TempDir()
	e := newEngine(dir, entries)
	e.SelectAll()

	res := e.Move(context.Background(), dest)

	require.Equal(t, Succeeded, res.Status, res.Summary())
	assert.ElementsMatch(t, []string{"a", "b"}, res.Succeeded)
	assert.Empty(t, res.Entries)
	assert.Equal(t, "alpha", readFile(t, filepath.Join(dest, "a")))
	assert.NoFileExists(t, filepath.Join(dir, "a"))
	assert.Equal(t, "Moved 2 items to "+dest, res.Summary())
	assert.Equal(t, Browsing, e.Mode())
}

func TestMove_PerItemFailures(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"ok": "1", "clash": "2", "gone": "3"}, "folder")
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "clash"), []byte("existing"), 0o644))

	e := newEngine(dir, entries)
	e.SelectAll()
	require.NoError(t, os.Remove(filepath.Join(dir, "gone")))

	res := e.Move(context.Background(), dest)

	require.Equal(t, Partial, res.Status)
	assert.Equal(t, []string{"ok"}, res.Succeeded)

	failures := map[string]error{}
	for _, f := range res.Failed {
		failures[f.Name] = f.Err
	}
	assert.ErrorIs(t, failures["clash"], types.ErrDestinationExists)
	assert.ErrorIs(t, failures["gone"], types.ErrSourceMissing)
	assert.ErrorIs(t, failures["folder"], types.ErrNotAFile)

	// No rollback of the success, nothing overwritten.
	assert.FileExists(t, filepath.Join(dest, "ok"))
	assert.Equal(t, "existing", readFile(t, filepath.Join(dest, "clash")))
	assert.Equal(t, "2", readFile(t, filepath.Join(dir, "clash")))

	// Failed items stay selected and in view.
	assert.Equal(t, Selecting, e.Mode())
	assert.ElementsMatch(t, []string{"clash", "gone", "folder"}, selectedNames(e))
	assert.Equal(t, 3, len(res.Entries))
	assert.Equal(t, -1, types.IndexOf(res.Entries, filepath.Join(dir, "ok")))
}

func TestMove_DirectoryAlwaysFails(t *testing.T) {
	dir, entries := fixture(t, nil, "folder/inner")
	dest := t.TempDir()
	e := newEngine(dir, entries)
	e.SelectAll()

	res := e.Move(context.Background(), dest)

	assert.Equal(t, Failed, res.Status)
	require.Len(t, res.Failed, 1)
	assert.ErrorIs(t, res.Failed[0].Err, types.ErrNotAFile)
	assert.DirExists(t, filepath.Join(dir, "folder", "inner"))
	assert.NoDirExists(t, filepath.Join(dest, "folder"))
}

func TestMove_IntoCurrentDirectoryFromElsewhere(t *testing.T) {
	view, viewEntries := fixture(t, map[string]string{"here": "1"})
	src, srcEntries := fixture(t, map[string]string{"incoming": "2"})

	e := newEngine(src, srcEntries)
	e.SelectAll()
	e.SetEntries(view, append(viewEntries, srcEntries...))

	res := e.Move(context.Background(), view)

	require.Equal(t, Succeeded, res.Status)
	assert.GreaterOrEqual(t, types.IndexOf(res.Entries, filepath.Join(view, "incoming")), 0)
	assert.Equal(t, -1, types.IndexOf(res.Entries, filepath.Join(src, "incoming")))
}

func TestMoveFile_SameDevice(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o640))

	require.NoError(t, moveFile(src, dst))
	assert.NoFileExists(t, src)
	assert.Equal(t, "payload", readFile(t, dst))
}
