package output

import (
	"bytes"
	"encoding/json"
)

type jsonOutput struct {
	Dir       string   `json:"dir"`
	Entries   []Row    `json:"entries"`
	TotalSize int64    `json:"total_size"`
	Duration  string   `json:"duration,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// JSONFormatter writes the listing as one indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	out := jsonOutput{
		Dir:       r.Dir,
		Entries:   r.Rows,
		TotalSize: r.TotalSize(),
		Warnings:  r.Warnings,
	}
	if out.Entries == nil {
		out.Entries = []Row{}
	}
	if r.Duration > 0 {
		out.Duration = r.Duration.String()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// JSONLFormatter writes one compact JSON object per entry.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, row := range r.Rows {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("json", func() Formatter { return &JSONFormatter{} })
	Register("jsonl", func() Formatter { return &JSONLFormatter{} })
}

var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*JSONLFormatter)(nil)
)
