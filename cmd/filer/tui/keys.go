package tui

import (
	"context"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jamesainslie/filer/pkg/filer/config"
	"github.com/jamesainslie/filer/pkg/filer/engine"
	"github.com/jamesainslie/filer/pkg/filer/types"
)

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}

	switch m.state {
	case StateBrowse:
		return m.handleBrowseKey(key)
	case StateConfirm:
		return m.handleConfirmKey(key)
	case StateInput:
		return m.handleInputKey(msg)
	case StateWorking:
		// The engine is busy.
	}
	return m, nil
}

func (m Model) handleBrowseKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		m.cancel()
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup", "ctrl+u":
		m.moveCursor(-m.visibleRows())
	case "pgdown", "ctrl+d":
		m.moveCursor(m.visibleRows())
	case "g", "home":
		m.moveCursor(-len(m.entries))
	case "G", "end":
		m.moveCursor(len(m.entries))

	case "enter", "l", "right":
		e, ok := m.current()
		if !ok || !e.IsDir {
			return m, nil
		}
		return m.open(e.Path, "")

	case "backspace", "h", "left":
		parent, ok := parentDir(m.dir)
		if !ok || m.dir == "" {
			return m, nil
		}
		return m.open(parent, m.dir)

	case "ctrl+r":
		if m.dir == "" {
			return m, nil
		}
		return m, m.listDir(m.dir, true)

	case "v":
		if e, ok := m.current(); ok {
			m.eng.Begin(e)
			m.sync()
		}
	case " ":
		e, ok := m.current()
		if !ok {
			return m, nil
		}
		if m.mode == engine.Browsing {
			m.eng.Begin(e)
		} else {
			m.eng.Toggle(e)
		}
		m.sync()
	case "a":
		m.eng.SelectAll()
		m.sync()
	case "n":
		if m.mode == engine.Selecting {
			m.eng.ClearSelection()
			m.sync()
		}
	case "esc":
		if m.mode == engine.Selecting {
			m.eng.Cancel()
			m.sync()
		}

	case "d", "delete":
		if !m.selectForAction() {
			return m, nil
		}
		m.state = StateConfirm
		m.confirmFocused = 0

	case "r":
		return m.beginRename()

	case "m":
		if !m.selectForAction() {
			return m, nil
		}
		m.purpose = inputMove
		m.input.Placeholder = "destination directory"
		m.input.SetValue(m.dir + string(filepath.Separator))
		m.input.CursorEnd()
		m.state = StateInput
		return m, m.input.Focus()

	case "y":
		e, ok := m.current()
		if !ok {
			return m, nil
		}
		if e.IsDir {
			m.setError(types.ErrNotAFile)
			return m, nil
		}
		return m, m.yank(e)

	case "p":
		dir := m.dir
		return m.startOp("Pasting", func(ctx context.Context, eng *engine.Engine) engine.Result {
			return eng.CopyFromClipboard(ctx, dir)
		})
	}

	return m, m.requestVisible()
}

// open starts listing dir. focus is the path to put the cursor on once the
// listing arrives.
func (m Model) open(dir, focus string) (tea.Model, tea.Cmd) {
	m.target = dir
	m.focus = focus
	return m, m.listDir(dir, false)
}

// selectForAction makes sure something is selected for delete or move. In
// Browsing mode the cursor entry is selected and marked implicit.
func (m *Model) selectForAction() bool {
	if m.eng.SelectedCount() > 0 {
		return true
	}
	e, ok := m.current()
	if !ok {
		m.setError(types.ErrNothingSelected)
		return false
	}
	if m.mode == engine.Browsing {
		m.implicit = true
	}
	m.eng.Begin(e)
	m.sync()
	return true
}

// undoImplicit drops a selection made by selectForAction.
func (m *Model) undoImplicit() {
	if m.implicit {
		m.eng.Cancel()
		m.implicit = false
		m.sync()
	}
}

// beginRename opens the input for the single selected entry, or the cursor
// entry when nothing is selected.
func (m Model) beginRename() (tea.Model, tea.Cmd) {
	var target types.Entry
	switch sel := m.eng.Selected(); {
	case len(sel) == 1:
		target = sel[0]
	case len(sel) > 1:
		m.setError(types.ErrMultipleSelected)
		return m, nil
	default:
		e, ok := m.current()
		if !ok {
			m.setError(types.ErrNothingSelected)
			return m, nil
		}
		target = e
	}

	m.purpose = inputRename
	m.inputTarget = target
	m.input.Placeholder = "new name"
	m.input.SetValue(target.Name)
	m.input.CursorEnd()
	m.state = StateInput
	return m, m.input.Focus()
}

func (m Model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc", "n":
		m.state = StateBrowse
		m.undoImplicit()
	case "left", "h":
		m.confirmFocused = 0
	case "right", "l":
		m.confirmFocused = 1
	case "tab":
		m.confirmFocused = (m.confirmFocused + 1) % 2
	case "enter":
		if m.confirmFocused == 1 {
			return m.startDelete()
		}
		m.state = StateBrowse
		m.undoImplicit()
	case "y":
		return m.startDelete()
	}
	return m, nil
}

func (m Model) startDelete() (tea.Model, tea.Cmd) {
	return m.startOp("Deleting", func(ctx context.Context, eng *engine.Engine) engine.Result {
		return eng.Delete(ctx)
	})
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.state = StateBrowse
		m.undoImplicit()
		return m, nil

	case tea.KeyEnter:
		m.input.Blur()
		value := m.input.Value()

		switch m.purpose {
		case inputRename:
			target := m.inputTarget
			return m.startOp("Renaming", func(ctx context.Context, eng *engine.Engine) engine.Result {
				return eng.Rename(ctx, target, value)
			})

		case inputMove:
			dest := m.resolveDest(value)
			return m.startOp("Moving", func(ctx context.Context, eng *engine.Engine) engine.Result {
				return eng.Move(ctx, dest)
			})
		}
		m.state = StateBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// resolveDest turns typed input into a destination path. Relative paths are
// taken from the current directory.
func (m Model) resolveDest(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return m.dir
	}
	if expanded, err := config.ExpandPath(value); err == nil {
		value = expanded
	}
	if !filepath.IsAbs(value) {
		value = filepath.Join(m.dir, value)
	}
	return filepath.Clean(value)
}

// moveCursor moves the cursor by delta rows, clamped to the list.
func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

// ensureVisible scrolls so the cursor row is on screen.
func (m *Model) ensureVisible() {
	rows := m.visibleRows()

	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}

	if maxOffset := len(m.entries) - rows; m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// visibleRows returns the number of list rows that fit on screen.
func (m Model) visibleRows() int {
	// Border, header, dividers, column titles, status and hints.
	available := m.height - 9
	if available < 3 {
		available = 3
	}
	return available
}
