package output

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

type yamlOutput struct {
	Dir       string   `yaml:"dir"`
	Entries   []Row    `yaml:"entries"`
	TotalSize int64    `yaml:"total_size"`
	Duration  string   `yaml:"duration,omitempty"`
	Warnings  []string `yaml:"warnings,omitempty"`
}

// YAMLFormatter writes the same document as JSONFormatter in YAML.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	out := yamlOutput{
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

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	Register("yaml", func() Formatter { return &YAMLFormatter{} })
}

var _ Formatter = (*YAMLFormatter)(nil)
