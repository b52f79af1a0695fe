package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jamesainslie/filer/pkg/filer/types"
)

// Op identifies a mutation.
type Op string

// Mutations.
const (
	OpDelete Op = "delete"
	OpRename Op = "rename"
	OpMove   Op = "move"
	OpCopy   Op = "copy"
)

// verbs returns the capitalized present and past tense of the operation.
func (o Op) verbs() (string, string) {
	switch o {
	case OpDelete:
		return "Delete", "Deleted"
	case OpRename:
		return "Rename", "Renamed"
	case OpMove:
		return "Move", "Moved"
	case OpCopy:
		return "Copy", "Copied"
	default:
		return string(o), string(o)
	}
}

// Status is the aggregate outcome of an operation.
type Status int

// Outcomes.
const (
	// Succeeded means every item was processed.
	Succeeded Status = iota

	// Partial means at least one item succeeded and at least one failed.
	Partial

	// Rejected means validation failed before the filesystem was touched.
	Rejected

	// Failed means nothing succeeded.
	Failed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Partial:
		return "partial"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Failure is one item that could not be processed.
type Failure struct {
	Name string
	Err  error
}

// Applied is one change made to the filesystem.
type Applied struct {
	From  string
	To    string // empty for deletions
	IsDir bool
	Size  int64
}

// Result reports the outcome of a mutation.
type Result struct {
	Op     Op
	Status Status

	// Err is the validation error for Rejected and the joined item errors
	// for Failed and Partial.
	Err error

	// Succeeded lists the names of items that were processed.
	Succeeded []string

	// Failed lists the items that were not.
	Failed []Failure

	// Applied describes each successful change.
	Applied []Applied

	// Entries is the revised view after the operation.
	Entries []types.Entry

	// Entry is the renamed or copied entry, when there is one.
	Entry *types.Entry

	// Dest is the destination directory of a move or copy.
	Dest string
}

// OK reports whether the operation fully succeeded.
func (r Result) OK() bool {
	return r.Status == Succeeded
}

// FailedNames returns the names of the failed items.
func (r Result) FailedNames() []string {
	names := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		names[i] = f.Name
	}
	return names
}

// Summary renders the outcome for the user.
func (r Result) Summary() string {
	present, past := r.Op.verbs()

	switch r.Status {
	case Rejected:
		return fmt.Sprintf("%s rejected: %v", present, r.Err)

	case Succeeded:
		switch {
		case r.Op == OpRename && r.Entry != nil && len(r.Applied) == 1:
			return fmt.Sprintf("%s %s to %s", past, r.Succeeded[0], r.Entry.Name)
		case r.Op == OpCopy && r.Entry != nil:
			return fmt.Sprintf("%s %s to %s", past, r.Entry.Name, r.Dest)
		case r.Op == OpMove:
			return fmt.Sprintf("%s %s to %s", past, types.FormatCount(len(r.Succeeded)), r.Dest)
		default:
			return fmt.Sprintf("%s %s", past, types.FormatCount(len(r.Succeeded)))
		}

	case Partial:
		total := len(r.Succeeded) + len(r.Failed)
		return fmt.Sprintf("%s %d of %s; failed: %s",
			past, len(r.Succeeded), types.FormatCount(total), strings.Join(r.FailedNames(), ", "))

	case Failed:
		if len(r.Failed) == 1 {
			return fmt.Sprintf("%s failed: %s: %v", present, r.Failed[0].Name, r.Failed[0].Err)
		}
		if len(r.Failed) > 1 {
			return fmt.Sprintf("%s failed for %s: %s",
				present, types.FormatCount(len(r.Failed)), strings.Join(r.FailedNames(), ", "))
		}
		return fmt.Sprintf("%s failed: %v", present, r.Err)

	default:
		return fmt.Sprintf("%s: unknown outcome", present)
	}
}

// rejected reports a validation failure. An OS error met while validating
// is reported as Failed instead.
func rejected(op Op, err error, entries []types.Entry) Result {
	status := Rejected
	if errors.Is(err, types.ErrUnknown) {
		status = Failed
	}
	return Result{Op: op, Status: status, Err: err, Entries: entries}
}

// settle derives the status and joined error from the per-item outcomes.
func (r *Result) settle() {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Name, f.Err))
	}
	r.Err = errors.Join(errs...)

	switch {
	case len(r.Failed) == 0:
		r.Status = Succeeded
	case len(r.Succeeded) == 0:
		r.Status = Failed
	default:
		r.Status = Partial
	}
}
