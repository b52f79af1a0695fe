package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/filer/pkg/filer/types"
)

// PrettyFormatter writes a styled listing for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(HeaderBox.Render(LabelStyle.Render("Directory:") + " " + ValueStyle.Render(r.Dir)))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))
	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")

	if len(r.Warnings) > 0 {
		w.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
		w.WriteString("\n")
		for _, warning := range r.Warnings {
			w.WriteString(WarningStyle.Render("  " + warning))
			w.WriteString("\n")
		}
	}
	return nil
}

func (f *PrettyFormatter) formatTable(r *Result) string {
	if len(r.Rows) == 0 {
		return MutedStyle.Render("  (empty)") + "\n"
	}

	sizeWidth, countWidth, modWidth := len("SIZE"), len("ITEMS"), len("MODIFIED")
	for _, row := range r.Rows {
		sizeWidth = max(sizeWidth, lipgloss.Width(row.SizeText))
		countWidth = max(countWidth, lipgloss.Width(row.Count))
		modWidth = max(modWidth, lipgloss.Width(row.Modified))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padLeft("SIZE", sizeWidth)),
		TableHeaderStyle.Render(padLeft("ITEMS", countWidth)),
		TableHeaderStyle.Render(padRight("MODIFIED", modWidth)),
		TableHeaderStyle.Render("NAME"))

	for _, row := range r.Rows {
		name := FileStyle.Render(row.DisplayName())
		if row.IsDir {
			name = DirStyle.Render(row.DisplayName())
		}
		if row.Error != "" {
			fmt.Fprintf(&sb, "  %s  %s  %s  %s %s\n",
				padLeft("", sizeWidth), padLeft("", countWidth), padRight("", modWidth),
				name, ErrorStyle.Render(row.Error))
			continue
		}
		fmt.Fprintf(&sb, "  %s  %s  %s  %s\n",
			SizeStyle.Render(padLeft(row.SizeText, sizeWidth)),
			MutedStyle.Render(padLeft(row.Count, countWidth)),
			MutedStyle.Render(padRight(row.Modified, modWidth)),
			name)
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	parts := []string{
		LabelStyle.Render("Entries:") + " " + ValueStyle.Render(types.FormatCount(len(r.Rows))),
		LabelStyle.Render("Total:") + " " + SizeStyle.Render(types.FormatSize(r.TotalSize())),
	}
	if r.Duration > 0 {
		parts = append(parts, MutedStyle.Render(fmt.Sprintf("in %s", r.Duration.Round(1e6))))
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func padLeft(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func init() {
	Register("pretty", func() Formatter { return &PrettyFormatter{} })
}

var _ Formatter = (*PrettyFormatter)(nil)
