// Package output renders directory listings for the non-interactive
// commands (ls, du) in several formats (pretty, plain, json, yaml, ...).
//
// Formatters are looked up by name from a registry:
//
//	f, err := output.Get("json")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := f.Format(&buf, result); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/filer/pkg/filer/types"
)

// Row is one listed entry with its computed metadata and display labels.
type Row struct {
	Path     string    `json:"path" yaml:"path"`
	Name     string    `json:"name" yaml:"name"`
	IsDir    bool      `json:"is_dir" yaml:"is_dir"`
	Size     int64     `json:"size" yaml:"size"`
	Items    int       `json:"items,omitempty" yaml:"items,omitempty"`
	Skipped  int       `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	ModTime  time.Time `json:"mod_time" yaml:"mod_time"`
	SizeText string    `json:"size_human" yaml:"size_human"`
	Count    string    `json:"count,omitempty" yaml:"count,omitempty"`
	Modified string    `json:"modified" yaml:"modified"`

	// Error is set when metadata could not be computed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewRow builds a Row from an entry and its metadata. A non-nil err marks
// the row as failed and leaves the metadata labels empty.
func NewRow(e types.Entry, md types.Metadata, opts types.LabelOptions, err error) Row {
	row := Row{Path: e.Path, Name: e.Name, IsDir: e.IsDir}
	if err != nil {
		row.Error = err.Error()
		return row
	}

	labels := md.Labels(opts)
	row.Size = md.Size
	row.Items = md.Items
	row.Skipped = md.Skipped
	row.ModTime = md.ModTime
	row.SizeText = labels.Size
	row.Count = labels.Count
	row.Modified = labels.Modified
	return row
}

// DisplayName is the name with a trailing separator for directories.
func (r Row) DisplayName() string {
	if r.IsDir {
		return r.Name + "/"
	}
	return r.Name
}

// Result is a rendered directory listing.
type Result struct {
	// Dir is the absolute directory that was listed.
	Dir string `json:"dir" yaml:"dir"`

	// Rows are the entries in listing order.
	Rows []Row `json:"rows" yaml:"rows"`

	// Duration is the time taken to compute the metadata.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Warnings are non-fatal problems, such as unreadable subtrees.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// TotalSize returns the sum of all row sizes.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, row := range r.Rows {
		total += row.Size
	}
	return total
}

// SortBySize orders rows largest first, breaking ties by name.
func (r *Result) SortBySize() {
	sort.SliceStable(r.Rows, func(i, j int) bool {
		if r.Rows[i].Size != r.Rows[j].Size {
			return r.Rows[i].Size > r.Rows[j].Size
		}
		return r.Rows[i].Name < r.Rows[j].Name
	})
}

// SortByName orders directories before files, each group by name.
func (r *Result) SortByName() {
	sort.SliceStable(r.Rows, func(i, j int) bool {
		if r.Rows[i].IsDir != r.Rows[j].IsDir {
			return r.Rows[i].IsDir
		}
		return strings.ToLower(r.Rows[i].Name) < strings.ToLower(r.Rows[j].Name)
	})
}

// Formatter renders a Result.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty formatter registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the sorted names of all registered formatters.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
