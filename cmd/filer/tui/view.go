package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/filer/pkg/filer/engine"
	"github.com/jamesainslie/filer/pkg/filer/types"
)

// Column widths of the entry list.
const (
	sizeWidth     = 10
	countWidth    = 12
	modifiedWidth = 16
)

// View renders the current state.
func (m Model) View() string {
	bg := m.renderBrowser()

	switch m.state {
	case StateConfirm:
		return m.overlayDialog(bg, m.renderConfirmDialog())
	case StateInput:
		return m.overlayDialog(bg, m.renderInputDialog())
	}
	return bg
}

// renderBrowser renders the header, the entry list and the status area.
func (m Model) renderBrowser() string {
	contentWidth := m.contentWidth()

	var b strings.Builder
	b.WriteString(m.renderHeader(contentWidth))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.renderColumns(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.renderList(contentWidth))
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.renderStatus(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

func (m Model) contentWidth() int {
	return max(m.width-4, 40)
}

// renderHeader shows the directory, the entry count and the selection mode.
func (m Model) renderHeader(width int) string {
	dir := m.dir
	if dir == "" {
		dir = m.target
	}

	right := mutedTextStyle.Render(types.FormatCount(len(m.entries)))
	if m.mode == engine.Selecting {
		right = warningTextStyle.Render(fmt.Sprintf("SELECTING %d", len(m.selected))) + "  " + right
	}
	if m.options.Watcher != nil {
		right += successTextStyle.Render("  ● LIVE")
	}

	title := titleStyle.Render("filer") + "  "
	room := width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	left := title + truncateLeft(dir, max(room, 10))

	spacing := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", spacing) + right
}

// renderColumns renders the column titles.
func (m Model) renderColumns(width int) string {
	line := fmt.Sprintf("      %s %s  %s  %s",
		padLeft("SIZE", sizeWidth),
		padLeft("ITEMS", countWidth),
		padRight("MODIFIED", modifiedWidth),
		"NAME")
	return mutedTextStyle.Render(truncateRight(line, width))
}

// renderList renders the visible entries, padded to a fixed height.
func (m Model) renderList(width int) string {
	var b strings.Builder
	rows := m.visibleRows()

	if len(m.entries) == 0 {
		if m.dir == "" {
			b.WriteString(mutedTextStyle.Render("  " + m.spinner.View() + " Loading..."))
		} else {
			b.WriteString(mutedTextStyle.Render("  (empty)"))
		}
		b.WriteString("\n")
		rows--
	}

	end := min(m.offset+rows, len(m.entries))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.entries[i], i == m.cursor, width))
		b.WriteString("\n")
	}
	for n := end - m.offset; n < rows; n++ {
		b.WriteString("\n")
	}
	return b.String()
}

// renderRow renders one entry with its metadata labels.
func (m Model) renderRow(e types.Entry, isCursor bool, width int) string {
	cursor := " "
	if isCursor {
		cursor = cursorStyle.Render(">")
	}

	checkbox := "   "
	if m.mode == engine.Selecting {
		checkbox = uncheckedStyle.Render("[ ]")
		if m.selected[e.Path] {
			checkbox = checkedStyle.Render("[x]")
		}
	}

	var size, count, modified string
	md, ok := m.meta[e.Path]
	switch {
	case ok:
		labels := md.Labels(m.options.Labels)
		size, count, modified = labels.Size, labels.Count, labels.Modified
	case m.metaErr[e.Path] != nil:
		size = errorTextStyle.Render("?")
	default:
		size = m.spinner.View()
	}

	name := e.Name
	if e.IsDir {
		name += "/"
	}
	fixed := 6 + sizeWidth + 1 + countWidth + 2 + modifiedWidth + 2
	name = truncateRight(name, max(width-fixed, 8))

	nameStyle := normalItemStyle
	if e.IsDir {
		nameStyle = dirNameStyle
	}

	line := fmt.Sprintf(" %s %s %s %s  %s  %s",
		cursor,
		checkbox,
		sizeStyle.Render(padLeft(size, sizeWidth)),
		detailStyle.Render(padLeft(count, countWidth)),
		detailStyle.Render(padRight(modified, modifiedWidth)),
		nameStyle.Render(name))

	if isCursor {
		return cursorRowStyle.Width(width).Render(line)
	}
	return line
}

// renderStatus renders the last operation outcome, or the work in progress.
func (m Model) renderStatus(width int) string {
	switch {
	case m.state == StateWorking:
		return "  " + m.spinner.View() + " " + m.working + "..."
	case m.status == "":
		return ""
	case m.statusErr:
		return errorTextStyle.Render("  " + truncateRight(m.status, width-2))
	default:
		return successTextStyle.Render("  " + truncateRight(m.status, width-2))
	}
}

// renderHelpBar renders key hints for the current mode.
func (m Model) renderHelpBar() string {
	type hint struct {
		key  string
		desc string
	}

	hints := []hint{
		{"Enter", "Open"},
		{"⌫", "Up"},
		{"v", "Select"},
		{"d", "Delete"},
		{"r", "Rename"},
		{"m", "Move"},
		{"y", "Yank"},
		{"p", "Paste"},
		{"q", "Quit"},
	}
	if m.mode == engine.Selecting {
		hints = []hint{
			{"Space", "Toggle"},
			{"a", "All"},
			{"n", "None"},
			{"d", "Delete"},
			{"m", "Move"},
			{"r", "Rename"},
			{"Esc", "Done"},
		}
	}

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, keyStyle.Render("["+h.key+"]")+" "+keyDescStyle.Render(h.desc))
	}
	return "  " + strings.Join(parts, "  ")
}

// renderConfirmDialog renders the delete confirmation dialog.
func (m Model) renderConfirmDialog() string {
	names := make([]string, 0, len(m.selected))
	for _, e := range m.entries {
		if m.selected[e.Path] {
			names = append(names, e.Name)
		}
	}

	var content strings.Builder
	content.WriteString(dialogTitleStyle.Render("Confirm Deletion"))
	content.WriteString("\n\n")

	question := fmt.Sprintf("Delete %s?", types.FormatCount(len(names)))
	if len(names) == 1 {
		question = fmt.Sprintf("Delete %s?", truncateRight(names[0], 36))
	}
	content.WriteString(dialogTextStyle.Render(question))
	content.WriteString("\n")
	if !m.options.Trash {
		content.WriteString(warningTextStyle.Render("This cannot be undone."))
		content.WriteString("\n")
	}
	content.WriteString("\n")

	cancelBtn := inactiveButtonStyle.Render("Cancel")
	deleteBtn := inactiveButtonStyle.Render("Delete")
	if m.confirmFocused == 0 {
		cancelBtn = activeButtonStyle.Render("Cancel")
	} else {
		deleteBtn = dangerButtonStyle.Render("Delete")
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center, cancelBtn, "  ", deleteBtn)
	content.WriteString(center(buttons, 46))

	return dialogBoxStyle.Render(content.String())
}

// renderInputDialog renders the rename or move prompt.
func (m Model) renderInputDialog() string {
	var title, subject string
	switch m.purpose {
	case inputRename:
		title = "Rename"
		subject = m.inputTarget.Name
	case inputMove:
		title = "Move"
		subject = types.FormatCount(len(m.selected)) + " to"
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(title + " " + truncateRight(subject, 40)))
	content.WriteString("\n\n")
	content.WriteString(m.input.View())
	content.WriteString("\n\n")
	content.WriteString(keyStyle.Render("[Enter]") + " " + keyDescStyle.Render("Confirm") + "  " +
		keyStyle.Render("[Esc]") + " " + keyDescStyle.Render("Cancel"))

	return inputBoxStyle.Render(content.String())
}

// overlayDialog places dialog in the middle of bg, line by line.
func (m Model) overlayDialog(bg, dialog string) string {
	dialogLines := strings.Split(dialog, "\n")
	bgLines := strings.Split(bg, "\n")

	startRow := max((m.height-len(dialogLines))/2, 0)
	startCol := max((m.width-lipgloss.Width(dialog))/2, 0)
	pad := strings.Repeat(" ", startCol)

	total := max(len(bgLines), startRow+len(dialogLines))
	out := make([]string, 0, total)
	for i := range total {
		if i >= startRow && i < startRow+len(dialogLines) {
			out = append(out, pad+dialogLines[i-startRow])
			continue
		}
		if i < len(bgLines) {
			out = append(out, bgLines[i])
		} else {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}
