package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// PlainFormatter writes an aligned, unstyled table for scripting.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "SIZE\tITEMS\tMODIFIED\tNAME")
	for _, row := range r.Rows {
		if row.Error != "" {
			fmt.Fprintf(tw, "-\t-\t-\t%s (%s)\n", row.DisplayName(), row.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.SizeText, dash(row.Count), dash(row.Modified), row.DisplayName())
	}

	return tw.Flush()
}

// PathsFormatter writes one absolute path per line.
type PathsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, row := range r.Rows {
		w.WriteString(row.Path)
		w.WriteByte('\n')
	}
	return nil
}

// NullFormatter writes NUL-terminated paths for xargs -0.
type NullFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *NullFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, row := range r.Rows {
		w.WriteString(row.Path)
		w.WriteByte(0)
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	Register("plain", func() Formatter { return &PlainFormatter{} })
	Register("paths", func() Formatter { return &PathsFormatter{} })
	Register("null", func() Formatter { return &NullFormatter{} })
}

var (
	_ Formatter = (*PlainFormatter)(nil)
	_ Formatter = (*PathsFormatter)(nil)
	_ Formatter = (*NullFormatter)(nil)
)
