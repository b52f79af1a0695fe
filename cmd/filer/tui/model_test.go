package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jamesainslie/filer/pkg/filer/clipboard"
	"github.com/jamesainslie/filer/pkg/filer/engine"
	"github.com/jamesainslie/filer/pkg/filer/inventory"
	"github.com/jamesainslie/filer/pkg/filer/types"
	"github.com/jamesainslie/filer/pkg/filer/watcher"
)

// setupDir creates a.txt, b.txt and sub/ in a temp directory.
func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{"a.txt": "hello", "b.txt": "world!"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

// newTestModel returns a model that has listed dir.
func newTestModel(t *testing.T, dir string, clip clipboard.Store) Model {
	t.Helper()
	if clip == nil {
		clip = &clipboard.Memory{}
	}

	m := NewModel(Options{
		Dir:       dir,
		Inventory: inventory.New(inventory.DefaultOptions()),
		Clipboard: clip,
	})
	t.Cleanup(m.Close)

	m, _ = update(t, m, run(t, m.listDir(dir, false))...)
	if m.Dir() != dir {
		t.Fatalf("expected dir %s, got %q (status %q)", dir, m.Dir(), m.Status())
	}
	return m
}

// run executes cmd and returns the messages it produced, flattening batches.
func run(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(t, c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// update feeds msgs to m and returns the last command produced.
func update(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		next, c := m.Update(msg)
		m = next.(Model)
		cmd = c
	}
	return m, cmd
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	return update(t, m, msg)
}

// cursorTo puts the cursor on the entry called name.
func cursorTo(t *testing.T, m Model, name string) Model {
	t.Helper()
	for i, e := range m.entries {
		if e.Name == name {
			m.cursor = i
			return m
		}
	}
	t.Fatalf("entry %s not listed", name)
	return m
}

func hasEntry(m Model, name string) bool {
	for _, e := range m.Entries() {
		if e.Name == name {
			return true
		}
	}
	return false
}

func TestModelListsDirectory(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	if len(m.Entries()) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(m.Entries()))
	}
	if m.State() != StateBrowse {
		t.Errorf("expected StateBrowse, got %d", m.State())
	}
	if m.mode != engine.Browsing {
		t.Errorf("expected browsing mode, got %s", m.mode)
	}
}

func TestModelListingFailureKeepsView(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	missing := filepath.Join(dir, "missing")
	next, cmd := m.open(missing, "")
	m, _ = update(t, next.(Model), run(t, cmd)...)

	if m.Dir() != dir {
		t.Errorf("expected to stay in %s, got %s", dir, m.Dir())
	}
	if !m.statusErr || !strings.Contains(m.Status(), types.ErrNotADirectory.Error()) {
		t.Errorf("expected not-a-directory status, got %q", m.Status())
	}
}

func TestModelLoadsMetadataForVisibleRows(t *testing.T) {
	dir := setupDir(t)

	m := NewModel(Options{Dir: dir, Inventory: inventory.New(inventory.DefaultOptions())})
	t.Cleanup(m.Close)

	m, cmd := update(t, m, run(t, m.listDir(dir, false))...)
	if len(m.pending) != 3 {
		t.Fatalf("expected 3 pending requests, got %d", len(m.pending))
	}

	m, _ = update(t, m, run(t, cmd)...)
	if len(m.pending) != 0 {
		t.Errorf("expected no pending requests, got %d", len(m.pending))
	}

	md, ok := m.meta[filepath.Join(dir, "b.txt")]
	if !ok {
		t.Fatal("expected metadata for b.txt")
	}
	if md.Size != 6 {
		t.Errorf("expected size 6, got %d", md.Size)
	}

	if !strings.Contains(m.View(), "6 B") {
		t.Error("expected the view to show the size label")
	}
}

func TestModelIgnoresMetadataForOtherDirectory(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	e := types.NewEntry(filepath.Join(dir, "a.txt"), false)
	m, _ = update(t, m, metadataMsg{dir: "/elsewhere", res: inventory.Result{Entry: e, Metadata: types.Metadata{Size: 99}}})

	if _, ok := m.meta[e.Path]; ok {
		t.Error("metadata from another directory must be dropped")
	}
}

func TestModelOpenAndParent(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "sub")
	m, cmd := press(t, m, "enter")
	m, _ = update(t, m, run(t, cmd)...)

	sub := filepath.Join(dir, "sub")
	if m.Dir() != sub {
		t.Fatalf("expected dir %s, got %s", sub, m.Dir())
	}
	if len(m.Entries()) != 0 {
		t.Errorf("expected empty listing, got %d", len(m.Entries()))
	}
	if !strings.Contains(m.View(), "(empty)") {
		t.Error("expected empty marker in view")
	}

	m, cmd = press(t, m, "backspace")
	m, _ = update(t, m, run(t, cmd)...)

	if m.Dir() != dir {
		t.Fatalf("expected dir %s, got %s", dir, m.Dir())
	}
	if e, _ := m.current(); e.Name != "sub" {
		t.Errorf("expected cursor on sub, got %q", e.Name)
	}
}

func TestModelEnterOnFileDoesNothing(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "a.txt")
	m, cmd := press(t, m, "enter")
	if cmd != nil {
		t.Error("expected no command for enter on a file")
	}
	if m.Dir() != dir {
		t.Errorf("expected to stay in %s", dir)
	}
}

func TestModelSelection(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "a.txt")
	m, _ = press(t, m, "v")
	if m.mode != engine.Selecting {
		t.Fatalf("expected selecting mode, got %s", m.mode)
	}
	if len(m.selected) != 1 || !m.selected[filepath.Join(dir, "a.txt")] {
		t.Errorf("expected a.txt selected, got %v", m.selected)
	}

	m = cursorTo(t, m, "b.txt")
	m, _ = press(t, m, " ")
	if len(m.selected) != 2 {
		t.Errorf("expected 2 selected, got %d", len(m.selected))
	}

	m, _ = press(t, m, " ")
	if len(m.selected) != 1 {
		t.Errorf("expected 1 selected after toggling off, got %d", len(m.selected))
	}

	m, _ = press(t, m, "a")
	if len(m.selected) != 3 {
		t.Errorf("expected all 3 selected, got %d", len(m.selected))
	}
	if !strings.Contains(m.View(), "SELECTING 3") {
		t.Error("expected selection badge in header")
	}

	m, _ = press(t, m, "n")
	if len(m.selected) != 0 || m.mode != engine.Selecting {
		t.Errorf("expected empty selection in selecting mode, got %d in %s", len(m.selected), m.mode)
	}

	m, _ = press(t, m, "esc")
	if m.mode != engine.Browsing {
		t.Errorf("expected browsing mode after esc, got %s", m.mode)
	}
}

func TestModelCursorMovement(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m, _ = press(t, m, "j")
	if m.Cursor() != 1 {
		t.Errorf("expected cursor 1, got %d", m.Cursor())
	}
	m, _ = press(t, m, "G")
	if m.Cursor() != 2 {
		t.Errorf("expected cursor 2, got %d", m.Cursor())
	}
	m, _ = press(t, m, "j")
	if m.Cursor() != 2 {
		t.Errorf("expected cursor to stay at 2, got %d", m.Cursor())
	}
	m, _ = press(t, m, "g")
	if m.Cursor() != 0 {
		t.Errorf("expected cursor 0, got %d", m.Cursor())
	}
	m, _ = press(t, m, "k")
	if m.Cursor() != 0 {
		t.Errorf("expected cursor to stay at 0, got %d", m.Cursor())
	}
}

func TestModelDeleteCancel(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "a.txt")
	m, _ = press(t, m, "d")
	if m.State() != StateConfirm {
		t.Fatalf("expected StateConfirm, got %d", m.State())
	}
	if !strings.Contains(m.View(), "Confirm Deletion") {
		t.Error("expected confirm dialog in view")
	}

	m, _ = press(t, m, "n")
	if m.State() != StateBrowse {
		t.Errorf("expected StateBrowse, got %d", m.State())
	}
	if m.mode != engine.Browsing || len(m.selected) != 0 {
		t.Error("expected the implicit selection to be undone")
	}
	if _, err := os.Stat(filepath.Join(dir, "a.txt")); err != nil {
		t.Errorf("a.txt should still exist: %v", err)
	}
}

func TestModelDelete(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "a.txt")
	m, _ = press(t, m, "d")
	m, cmd := press(t, m, "y")
	if m.State() != StateWorking {
		t.Fatalf("expected StateWorking, got %d", m.State())
	}

	m, _ = update(t, m, run(t, cmd)...)

	if m.State() != StateBrowse {
		t.Errorf("expected StateBrowse, got %d", m.State())
	}
	if m.Status() != "Deleted 1 item" {
		t.Errorf("unexpected status %q", m.Status())
	}
	if hasEntry(m, "a.txt") {
		t.Error("a.txt should be gone from the view")
	}
	if _, err := os.Stat(filepath.Join(dir, "a.txt")); !os.IsNotExist(err) {
		t.Errorf("a.txt should be deleted, stat error: %v", err)
	}
	if m.mode != engine.Browsing {
		t.Errorf("expected browsing mode after delete, got %s", m.mode)
	}
}

func TestModelDeleteSelection(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "a.txt")
	m, _ = press(t, m, "v")
	m = cursorTo(t, m, "b.txt")
	m, _ = press(t, m, " ")

	m, _ = press(t, m, "d")
	m, _ = press(t, m, "tab")
	m, cmd := press(t, m, "enter")
	m, _ = update(t, m, run(t, cmd)...)

	if m.Status() != "Deleted 2 items" {
		t.Errorf("unexpected status %q", m.Status())
	}
	if len(m.Entries()) != 1 || m.Entries()[0].Name != "sub" {
		t.Errorf("expected only sub to remain, got %v", m.Entries())
	}
}

func TestModelRename(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "a.txt")
	m, _ = press(t, m, "r")
	if m.State() != StateInput {
		t.Fatalf("expected StateInput, got %d", m.State())
	}
	if m.input.Value() != "a.txt" {
		t.Errorf("expected input prefilled with a.txt, got %q", m.input.Value())
	}

	m.input.SetValue("c.txt")
	m, cmd := press(t, m, "enter")
	m, _ = update(t, m, run(t, cmd)...)

	if m.statusErr {
		t.Fatalf("unexpected error status %q", m.Status())
	}
	if e, _ := m.current(); e.Name != "c.txt" {
		t.Errorf("expected cursor on c.txt, got %q", e.Name)
	}
	if hasEntry(m, "a.txt") {
		t.Error("a.txt should be replaced in the view")
	}
	if _, err := os.Stat(filepath.Join(dir, "c.txt")); err != nil {
		t.Errorf("c.txt should exist: %v", err)
	}
}

func TestModelRenameRejected(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "a.txt")
	m, _ = press(t, m, "r")
	m, cmd := press(t, m, "enter")
	m, _ = update(t, m, run(t, cmd)...)

	if !m.statusErr {
		t.Error("expected an error status")
	}
	if !strings.Contains(m.Status(), types.ErrNoChange.Error()) {
		t.Errorf("expected %q in status, got %q", types.ErrNoChange, m.Status())
	}
}

func TestModelRenameMultipleSelected(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m, _ = press(t, m, "a")
	m, _ = press(t, m, "r")

	if m.State() != StateBrowse {
		t.Errorf("expected StateBrowse, got %d", m.State())
	}
	if !strings.Contains(m.Status(), types.ErrMultipleSelected.Error()) {
		t.Errorf("unexpected status %q", m.Status())
	}
}

func TestModelInputEscape(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "a.txt")
	m, _ = press(t, m, "m")
	if m.State() != StateInput {
		t.Fatalf("expected StateInput, got %d", m.State())
	}
	m, _ = press(t, m, "esc")
	if m.State() != StateBrowse || m.mode != engine.Browsing {
		t.Error("expected escape to restore browsing")
	}
}

func TestModelMove(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "a.txt")
	m, _ = press(t, m, "m")
	m.input.SetValue("sub")
	m, cmd := press(t, m, "enter")
	m, _ = update(t, m, run(t, cmd)...)

	if m.statusErr {
		t.Fatalf("unexpected error status %q", m.Status())
	}
	if hasEntry(m, "a.txt") {
		t.Error("a.txt should leave the view")
	}
	if _, err := os.Stat(filepath.Join(dir, "sub", "a.txt")); err != nil {
		t.Errorf("a.txt should be in sub: %v", err)
	}
}

func TestModelYankAndPaste(t *testing.T) {
	dir := setupDir(t)
	clip := &clipboard.Memory{}
	m := newTestModel(t, dir, clip)

	m = cursorTo(t, m, "a.txt")
	m, cmd := press(t, m, "y")
	m, _ = update(t, m, run(t, cmd)...)

	if m.Status() != "Yanked a.txt" {
		t.Errorf("unexpected status %q", m.Status())
	}
	ref, _ := clip.Read(context.Background())
	if ref != filepath.Join(dir, "a.txt") {
		t.Errorf("unexpected clipboard %q", ref)
	}

	other := t.TempDir()
	p := newTestModel(t, other, clip)
	p, cmd = press(t, p, "p")
	p, _ = update(t, p, run(t, cmd)...)

	if p.statusErr {
		t.Fatalf("unexpected error status %q", p.Status())
	}
	if !hasEntry(p, "a.txt") {
		t.Error("pasted file should join the view")
	}
	data, err := os.ReadFile(filepath.Join(other, "a.txt"))
	if err != nil || string(data) != "hello" {
		t.Errorf("unexpected pasted content %q (%v)", data, err)
	}
}

func TestModelYankDirectory(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "sub")
	m, cmd := press(t, m, "y")
	if cmd != nil {
		t.Error("expected no clipboard write for a directory")
	}
	if !strings.Contains(m.Status(), types.ErrNotAFile.Error()) {
		t.Errorf("unexpected status %q", m.Status())
	}
}

func TestModelPasteEmptyClipboard(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m, cmd := press(t, m, "p")
	m, _ = update(t, m, run(t, cmd)...)

	if !strings.Contains(m.Status(), types.ErrEmptyClipboard.Error()) {
		t.Errorf("unexpected status %q", m.Status())
	}
}

func TestModelRefreshKeepsCursor(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m = cursorTo(t, m, "b.txt")
	if err := os.WriteFile(filepath.Join(dir, "0-new.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "a.txt")); err != nil {
		t.Fatal(err)
	}

	m, _ = update(t, m, run(t, m.listDir(dir, true))...)

	if len(m.Entries()) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(m.Entries()))
	}
	if !hasEntry(m, "0-new.txt") || hasEntry(m, "a.txt") {
		t.Errorf("unexpected entries %v", m.Entries())
	}
	if e, _ := m.current(); e.Name != "b.txt" {
		t.Errorf("expected cursor to stay on b.txt, got %q", e.Name)
	}
}

func TestModelRefreshPicksUpKindChange(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	path := filepath.Join(dir, "a.txt")
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}

	m, _ = update(t, m, run(t, m.listDir(dir, true))...)
	m = cursorTo(t, m, "a.txt")
	if e, _ := m.current(); !e.IsDir {
		t.Fatal("expected refreshed entry to be a directory")
	}

	m, cmd := press(t, m, "enter")
	m, _ = update(t, m, run(t, cmd)...)
	if m.Dir() != path {
		t.Errorf("expected to open %s, got %s", path, m.Dir())
	}
}

func TestModelRefreshKeepsSelection(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m, _ = press(t, m, "a")
	if err := os.Remove(filepath.Join(dir, "a.txt")); err != nil {
		t.Fatal(err)
	}
	m, _ = update(t, m, run(t, m.listDir(dir, true))...)

	if len(m.selected) != 2 {
		t.Errorf("expected stale selection dropped, got %d selected", len(m.selected))
	}
	if m.mode != engine.Selecting {
		t.Errorf("expected selecting mode kept, got %s", m.mode)
	}
}

func TestModelRefreshDeferredWhileWorking(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	m.state = StateWorking
	if err := os.WriteFile(filepath.Join(dir, "late.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	m, _ = update(t, m, run(t, m.listDir(dir, true))...)

	if !m.stale {
		t.Error("expected refresh to be deferred")
	}
	if hasEntry(m, "late.txt") {
		t.Error("view must not change while an operation runs")
	}
}

func TestModelChangeForgetsMetadata(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	path := filepath.Join(dir, "a.txt")
	m.meta[path] = types.Metadata{Size: 5}

	m, _ = update(t, m, changedMsg(watcher.Change{Dir: "/elsewhere", Paths: []string{path}}))
	if _, ok := m.meta[path]; !ok {
		t.Error("changes in another directory must be ignored")
	}

	m, _ = update(t, m, changedMsg(watcher.Change{Dir: dir, Paths: []string{path}}))
	if _, ok := m.meta[path]; ok {
		t.Error("expected metadata for the changed path to be dropped")
	}
}

func TestModelQuit(t *testing.T) {
	dir := setupDir(t)
	m := newTestModel(t, dir, nil)

	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelViewBeforeListing(t *testing.T) {
	m := NewModel(Options{Dir: "/nowhere", Inventory: inventory.New(inventory.DefaultOptions())})
	defer m.Close()

	view := m.View()
	if !strings.Contains(view, "Loading") {
		t.Error("expected loading marker before the first listing")
	}
	if !strings.Contains(view, "/nowhere") {
		t.Error("expected target directory in header")
	}
}
