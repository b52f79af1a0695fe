package types

// ChangeKind identifies the kind of a list Change.
type ChangeKind int

const (
	// ChangeReplace swaps the row at Index for Entry (a rename keeps its position).
	ChangeReplace ChangeKind = iota
	// ChangeRemove deletes the row at Index.
	ChangeRemove
	// ChangeInsert inserts Entry at Index.
	ChangeInsert
)

// String returns the string representation of the kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeReplace:
		return "replace"
	case ChangeRemove:
		return "remove"
	case ChangeInsert:
		return "insert"
	default:
		return "unknown"
	}
}

// Change is one step of a list update.
// Indices refer to the list as it is after all preceding changes were applied.
type Change struct {
	Kind  ChangeKind
	Index int
	Entry Entry
}

// Diff computes the changes that turn old into new, keyed by Path.
// A row whose path vanished while a new path appeared at the same position is
// reported as a replace, and so is a path whose entry changed, such as a file
// replaced by a directory of the same name. Positional replaces come first,
// then removals from the end, then insertions from the front, then in-place
// replaces.
func Diff(old, new []Entry) []Change {
	oldSet := make(map[string]struct{}, len(old))
	for _, e := range old {
		oldSet[e.Path] = struct{}{}
	}
	newPos := make(map[string]int, len(new))
	for i, e := range new {
		newPos[e.Path] = i
	}

	var changes []Change
	working := make([]Entry, len(old))
	copy(working, old)

	for i := 0; i < len(old) && i < len(new); i++ {
		_, oldKept := newPos[old[i].Path]
		_, newExisted := oldSet[new[i].Path]
		if !oldKept && !newExisted {
			changes = append(changes, Change{Kind: ChangeReplace, Index: i, Entry: new[i]})
			working[i] = new[i]
		}
	}

	// Keep an order-preserving subsequence of rows that survive; everything
	// else is removed and reinserted at its new position.
	keep := make([]bool, len(working))
	last := -1
	for i, e := range working {
		if pos, ok := newPos[e.Path]; ok && pos > last {
			keep[i] = true
			last = pos
		}
	}
	for i := len(working) - 1; i >= 0; i-- {
		if !keep[i] {
			changes = append(changes, Change{Kind: ChangeRemove, Index: i, Entry: working[i]})
			working = append(working[:i], working[i+1:]...)
		}
	}

	for j, e := range new {
		if j < len(working) && working[j].Path == e.Path {
			continue
		}
		changes = append(changes, Change{Kind: ChangeInsert, Index: j, Entry: e})
		working = append(working, Entry{})
		copy(working[j+1:], working[j:])
		working[j] = e
	}

	// A path that changed kind keeps its row but carries the new entry.
	for j, e := range new {
		if working[j] != e {
			changes = append(changes, Change{Kind: ChangeReplace, Index: j, Entry: e})
			working[j] = e
		}
	}

	return changes
}

// Apply applies changes to a copy of entries and returns the result.
func Apply(entries []Entry, changes []Change) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)

	for _, c := range changes {
		switch c.Kind {
		case ChangeReplace:
			out[c.Index] = c.Entry
		case ChangeRemove:
			out = append(out[:c.Index], out[c.Index+1:]...)
		case ChangeInsert:
			out = append(out, Entry{})
			copy(out[c.Index+1:], out[c.Index:])
			out[c.Index] = c.Entry
		}
	}
	return out
}
