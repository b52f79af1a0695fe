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

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRename_Success(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"a.txt": "alpha", "b.txt": "beta", "c.txt": "gamma"})
	e := newEngine(dir, entries)
	b := entryNamed(t, entries, "b.txt")
	index := types.IndexOf(entries, b.Path)

	res := e.Rename(context.Background(), b, "  renamed.txt ")

	require.Equal(t, Succeeded, res.Status, res.Summary())
	require.NotNil(t, res.Entry)
	assert.Equal(t, "renamed.txt", res.Entry.Name)
	assert.NotEqual(t, b.Path, res.Entry.Path)
	assert.NoFileExists(t, b.Path)
	assert.Equal(t, "beta", readFile(t, res.Entry.Path))

	// Same row, new identity.
	assert.Equal(t, *res.Entry, res.Entries[index])
	assert.Equal(t, len(entries), len(res.Entries))
	assert.Equal(t, "Renamed b.txt to renamed.txt", res.Summary())
}

func TestRename_UpdatesSelection(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"a": "1"})
	e := newEngine(dir, entries)
	a := entryNamed(t, entries, "a")
	e.Begin(a)

	res := e.Rename(context.Background(), a, "z")

	require.Equal(t, Succeeded, res.Status)
	assert.True(t, e.IsSelected(res.Entry.Path))
	assert.False(t, e.IsSelected(a.Path))
}

func TestRename_Validation(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, e *Engine, dir string, entries []types.Entry) types.Entry
		newName string
		wantErr error
	}{
		{
			name: "multiple selected",
			setup: func(t *testing.T, e *Engine, _ string, entries []types.Entry) types.Entry {
				e.SelectAll()
				return entryNamed(t, entries, "a.txt")
			},
			newName: "x",
			wantErr: types.ErrMultipleSelected,
		},
		{
			name: "multiple selected wins over empty name",
			setup: func(t *testing.T, e *Engine, _ string, entries []types.Entry) types.Entry {
				e.SelectAll()
				return entryNamed(t, entries, "a.txt")
			},
			newName: "",
			wantErr: types.ErrMultipleSelected,
		},
		{
			name:    "empty name",
			newName: "",
			wantErr: types.ErrEmptyName,
		},
		{
			name:    "blank name",
			newName: "   ",
			wantErr: types.ErrEmptyName,
		},
		{
			name:    "same name",
			newName: "a.txt",
			wantErr: types.ErrNoChange,
		},
		{
			name:    "path separator",
			newName: "sub/a.txt",
			wantErr: types.ErrInvalidName,
		},
		{
			name:    "dot dot",
			newName: "..",
			wantErr: types.ErrInvalidName,
		},
		{
			name: "source missing",
			setup: func(t *testing.T, _ *Engine, dir string, entries []types.Entry) types.Entry {
				require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))
				return entryNamed(t, entries, "a.txt")
			},
			newName: "x",
			wantErr: types.ErrSourceMissing,
		},
		{
			name: "directory",
			setup: func(t *testing.T, _ *Engine, _ string, entries []types.Entry) types.Entry {
				return entryNamed(t, entries, "folder")
			},
			newName: "x",
			wantErr: types.ErrNotAFile,
		},
		{
			name:    "destination exists",
			newName: "b.txt",
			wantErr: types.ErrDestinationExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, entries := fixture(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"}, "folder")
			e := newEngine(dir, entries)

			target := entryNamed(t, entries, "a.txt")
			if tt.setup != nil {
				target = tt.setup(t, e, dir, entries)
			}
			before := listing(t, dir)

			res := e.Rename(context.Background(), target, tt.newName)

			assert.Equal(t, Rejected, res.Status)
			assert.ErrorIs(t, res.Err, tt.wantErr)
			assert.Nil(t, res.Entry)
			assert.ElementsMatch(t, before, listing(t, dir), "filesystem must be untouched")
			assert.Contains(t, res.Summary(), "Rename rejected: ")
		})
	}
}

func TestRename_SameNameNeverTouchesDisk(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"keep.txt": "data"})
	e := newEngine(dir, entries)
	keep := entryNamed(t, entries, "keep.txt")

	info, err := os.Stat(keep.Path)
	require.NoError(t, err)

	res := e.Rename(context.Background(), keep, "keep.txt")

	assert.ErrorIs(t, res.Err, types.ErrNoChange)
	assert.Equal(t, "Rename rejected: name unchanged", res.Summary())
	after, err := os.Stat(keep.Path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), after.ModTime())
}

func TestRename_ExistingNameLeavesBothFiles(t *testing.T) {
	dir, entries := fixture(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})
	e := newEngine(dir, entries)

	res := e.Rename(context.Background(), entryNamed(t, entries, "a.txt"), "b.txt")

	assert.ErrorIs(t, res.Err, types.ErrDestinationExists)
	assert.Equal(t, "alpha", readFile(t, filepath.Join(dir, "a.txt")))
	assert.Equal(t, "beta", readFile(t, filepath.Join(dir, "b.txt")))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("report.pdf"))
	assert.NoError(t, ValidateName("...dots"))
	assert.ErrorIs(t, ValidateName("."), types.ErrInvalidName)
	assert.ErrorIs(t, ValidateName("a/b"), types.ErrInvalidName)
	assert.ErrorIs(t, ValidateName("nul\x00"), types.ErrInvalidName)
}
