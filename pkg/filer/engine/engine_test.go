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

// fixture creates the named files (with their content) and directories under
// a fresh temp dir and returns the dir and its listing.
func fixture(t *testing.T, files map[string]string, dirs ...string) (string, []types.Entry) {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	return root, listing(t, root)
}

func listing(t *testing.T, dir string) []types.Entry {
	t.Helper()

	dirents, err := os.ReadDir(dir)
	require.NoError(t, err)

	entries := make([]types.Entry, 0, len(dirents))
	for _, d := range dirents {
		entries = append(entries, types.NewEntry(filepath.Join(dir, d.Name()), d.IsDir()))
	}
	return entries
}

func entryNamed(t *testing.T, entries []types.Entry, name string) types.Entry {
	t.Helper()

	for _, e := range entries {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("no entry named %q", name)
	return types.Entry{}
}

func selectedNames(e *Engine) []string {
	var out []string
	for _, s := range e.Selected() {
		out = append(out, s.Name)
	}
	return out
}

func newEngine(dir string, entries []types.Entry) *Engine {
	e := New(Options{})
	e.SetEntries(dir, entries)
	return e
}

func TestSelection_Transitions(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"a": "1", "b": "2", "c": "3"})
	e := newEngine(dir, entries)
	a, b := entryNamed(t, entries, "a"), entryNamed(t, entries, "b")

	assert.Equal(t, Browsing, e.Mode())
	assert.False(t, e.Toggle(a), "toggle is ignored while browsing")
	assert.Zero(t, e.SelectedCount())

	e.Begin(a)
	assert.Equal(t, Selecting, e.Mode())
	assert.Equal(t, []string{"a"}, selectedNames(e))

	assert.True(t, e.Toggle(b))
	assert.Equal(t, []string{"a", "b"}, selectedNames(e))

	assert.True(t, e.Toggle(a))
	assert.Equal(t, []string{"b"}, selectedNames(e))
	assert.False(t, e.IsSelected(a.Path))
	assert.True(t, e.IsSelected(b.Path))

	e.Begin(a)
	assert.Equal(t, []string{"b", "a"}, selectedNames(e), "begin toggles while selecting")

	e.ClearSelection()
	assert.Equal(t, Selecting, e.Mode())
	assert.Zero(t, e.SelectedCount())

	e.Cancel()
	assert.Equal(t, Browsing, e.Mode())
}

func TestSelection_SelectAll(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"a": "1", "b": "2"}, "sub")
	e := newEngine(dir, entries)

	e.SelectAll()
	assert.Equal(t, Selecting, e.Mode())
	assert.Equal(t, len(entries), e.SelectedCount())
	for _, en := range entries {
		assert.True(t, e.IsSelected(en.Path))
	}
}

func TestSelection_SetEntriesReconcilesByPath(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"a": "1", "b": "2"})
	e := newEngine(dir, entries)
	e.SelectAll()

	a := entryNamed(t, entries, "a")
	e.SetEntries(dir, []types.Entry{a})

	assert.Equal(t, []string{"a"}, selectedNames(e))

	e.SetEntries(dir, nil)
	assert.Zero(t, e.SelectedCount())
	assert.Equal(t, Selecting, e.Mode(), "mode is kept when the selection empties")
}

func TestEngine_AccessorsReturnCopies(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"a": "1"})
	e := newEngine(dir, entries)
	e.SelectAll()

	view := e.Entries()
	view[0].Name = "mutated"
	sel := e.Selected()
	sel[0].Name = "mutated"

	assert.Equal(t, "a", e.Entries()[0].Name)
	assert.Equal(t, "a", e.Selected()[0].Name)
	assert.Equal(t, dir, e.Dir())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "browsing", Browsing.String())
	assert.Equal(t, "selecting", Selecting.String())
	assert.Equal(t, "unknown", Mode(9).String())
}

type recorder struct {
	results []Result
}

func (r *recorder) Record(_ context.Context, res Result) error {
	r.results = append(r.results, res)
	return nil
}

type invalidator struct {
	paths []string
}

func (i *invalidator) Invalidate(path string) error {
	i.paths = append(i.paths, path)
	return nil
}

func TestEngine_HooksSeeOnlyApplied(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"a": "1"})
	rec, inv := &recorder{}, &invalidator{}

	e := New(Options{Recorder: rec, Invalidator: inv})
	e.SetEntries(dir, entries)
	a := entryNamed(t, entries, "a")

	res := e.Rename(context.Background(), a, "a")
	require.Equal(t, Rejected, res.Status)
	assert.Empty(t, rec.results)
	assert.Empty(t, inv.paths)

	res = e.Rename(context.Background(), a, "b")
	require.Equal(t, Succeeded, res.Status)
	require.Len(t, rec.results, 1)
	assert.Equal(t, OpRename, rec.results[0].Op)
	assert.Equal(t, []string{a.Path, filepath.Join(dir, "b")}, inv.paths)
}
