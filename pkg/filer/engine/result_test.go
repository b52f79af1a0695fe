package engine

import (
	"errors"
	"testing"

	"github.com/jamesainslie/filer/pkg/filer/types"
	"github.com/stretchr/testify/assert"
)

func TestResult_Summary(t *testing.T) {
	renamed := types.NewEntry("/tmp/new.txt", false)
	copied := types.NewEntry("/dst/a.bin", false)
	boom := errors.New("boom")

	tests := []struct {
		name string
		res  Result
		want string
	}{
		{
			name: "single delete",
			res:  Result{Op: OpDelete, Status: Succeeded, Succeeded: []string{"a"}},
			want: "Deleted 1 item",
		},
		{
			name: "rename",
			res: Result{Op: OpRename, Status: Succeeded, Succeeded: []string{"old.txt"},
				Applied: []Applied{{From: "/tmp/old.txt", To: renamed.Path}}, Entry: &renamed},
			want: "Renamed old.txt to new.txt",
		},
		{
			name: "copy",
			res:  Result{Op: OpCopy, Status: Succeeded, Succeeded: []string{"a.bin"}, Entry: &copied, Dest: "/dst"},
			want: "Copied a.bin to /dst",
		},
		{
			name: "move one",
			res:  Result{Op: OpMove, Status: Succeeded, Succeeded: []string{"a"}, Dest: "/dst"},
			want: "Moved 1 item to /dst",
		},
		{
			name: "partial move",
			res: Result{Op: OpMove, Status: Partial, Succeeded: []string{"a", "b"},
				Failed: []Failure{{Name: "c", Err: boom}, {Name: "d", Err: boom}}},
			want: "Moved 2 of 4 items; failed: c, d",
		},
		{
			name: "failed batch",
			res:  Result{Op: OpDelete, Status: Failed, Failed: []Failure{{Name: "a", Err: boom}, {Name: "b", Err: boom}}},
			want: "Delete failed for 2 items: a, b",
		},
		{
			name: "failed without items",
			res:  Result{Op: OpCopy, Status: Failed, Err: boom},
			want: "Copy failed: boom",
		},
		{
			name: "rejected",
			res:  Result{Op: OpMove, Status: Rejected, Err: types.ErrNotADirectory},
			want: "Move rejected: not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.Summary())
		})
	}
}

func TestResult_Settle(t *testing.T) {
	r := Result{Succeeded: []string{"a"}}
	r.settle()
	assert.Equal(t, Succeeded, r.Status)
	assert.NoError(t, r.Err)
	assert.True(t, r.OK())

	r = Result{Succeeded: []string{"a"}, Failed: []Failure{{Name: "b", Err: types.ErrSourceMissing}}}
	r.settle()
	assert.Equal(t, Partial, r.Status)
	assert.ErrorIs(t, r.Err, types.ErrSourceMissing)
	assert.False(t, r.OK())

	r = Result{Failed: []Failure{{Name: "b", Err: types.ErrNotAFile}}}
	r.settle()
	assert.Equal(t, Failed, r.Status)
}

func TestRejected_UnknownIsFailed(t *testing.T) {
	assert.Equal(t, Rejected, rejected(OpRename, types.ErrNoChange, nil).Status)
	assert.Equal(t, Failed, rejected(OpRename, types.Unknown("rename", "/x", errors.New("eio")), nil).Status)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "partial", Partial.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Status(99).String())
}
