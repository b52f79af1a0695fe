package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

var tableHeader = []string{"SIZE", "BYTES", "ITEMS", "MODIFIED", "PATH"}

func tableRecord(row Row) []string {
	items := ""
	if row.IsDir && row.Error == "" {
		items = strconv.Itoa(row.Items)
	}
	return []string{row.SizeText, strconv.FormatInt(row.Size, 10), items, row.Modified, row.Path}
}

// TSVFormatter writes tab-separated values with a header row.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(strings.Join(tableHeader, "\t"))
	w.WriteByte('\n')
	for _, row := range r.Rows {
		w.WriteString(strings.Join(tableRecord(row), "\t"))
		w.WriteByte('\n')
	}
	return nil
}

// CSVFormatter writes RFC 4180 comma-separated values.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write(tableRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarkdownFormatter writes a GitHub-flavored Markdown table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString("| SIZE | ITEMS | MODIFIED | NAME |\n")
	w.WriteString("|-----:|------:|----------|------|\n")
	for _, row := range r.Rows {
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
			escapePipe(row.SizeText), escapePipe(row.Count), escapePipe(row.Modified), escapePipe(row.DisplayName()))
	}
	return nil
}

func escapePipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("tsv", func() Formatter { return &TSVFormatter{} })
	Register("csv", func() Formatter { return &CSVFormatter{} })
	Register("markdown", func() Formatter { return &MarkdownFormatter{} })
}

var (
	_ Formatter = (*TSVFormatter)(nil)
	_ Formatter = (*CSVFormatter)(nil)
	_ Formatter = (*MarkdownFormatter)(nil)
)
