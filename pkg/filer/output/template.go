package output

import (
	"bytes"
	"sync"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/filer/pkg/filer/types"
)

// TemplateFormatter renders the listing with a user-supplied text/template.
type TemplateFormatter struct {
	mu   sync.Mutex
	text string
	tmpl *template.Template
}

type templateData struct {
	*Result
	TotalSize int64
}

// NewTemplateFormatter creates a formatter for the given template text.
func NewTemplateFormatter(text string) *TemplateFormatter {
	return &TemplateFormatter{text: text}
}

// SetTemplate replaces the template text.
func (f *TemplateFormatter) SetTemplate(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.tmpl = nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// {{date .ModTime "2006-01-02"}}
		"date": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		// {{size .Size}} uses the listing's own size labels.
		"size": types.FormatSize,
		// {{bytes .Size}} uses IEC units with a space ("1.5 MiB").
		"bytes": func(n int64) string {
			if n < 0 {
				n = 0
			}
			return humanize.IBytes(uint64(n))
		},
		"ago": humanize.Time,
	}
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tmpl == nil {
		tmpl, err := template.New("output").Funcs(templateFuncs()).Parse(f.text)
		if err != nil {
			return err
		}
		f.tmpl = tmpl
	}

	return f.tmpl.Execute(w, templateData{Result: r, TotalSize: r.TotalSize()})
}

// DefaultTemplate prints size and name per line.
const DefaultTemplate = `{{range .Rows}}{{.SizeText}}	{{.DisplayName}}
{{end}}`

func init() {
	Register("template", func() Formatter { return NewTemplateFormatter(DefaultTemplate) })
}

var _ Formatter = (*TemplateFormatter)(nil)
