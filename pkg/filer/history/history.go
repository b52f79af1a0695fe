package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"github.com/jamesainslie/filer/pkg/filer/engine"
)

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("history entry not found")

// DefaultDir returns $XDG_STATE_HOME/filer/history.
func DefaultDir() string {
	return filepath.Join(xdg.StateHome, "filer", "history")
}

// Journal stores entries as JSON files in a directory.
type Journal struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// New returns a Journal writing to dir. The directory is created on the
// first write.
func New(dir string) (*Journal, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Journal{dir: dir, now: time.Now}, nil
}

// Dir returns the journal directory.
func (j *Journal) Dir() string {
	return j.dir
}

// Record journals an engine result. Results without applied changes are
// ignored.
func (j *Journal) Record(_ context.Context, res engine.Result) error {
	if len(res.Applied) == 0 {
		return nil
	}

	at := j.now().UTC()
	files := make([]FileRecord, len(res.Applied))
	for i, a := range res.Applied {
		files[i] = FileRecord{Path: a.From, Dest: a.To, Size: a.Size, IsDir: a.IsDir, At: at}
	}

	var failed []FailedRecord
	for _, f := range res.Failed {
		failed = append(failed, FailedRecord{Name: f.Name, Error: f.Err.Error()})
	}

	_, err := j.Append(&Entry{
		Operation: string(res.Op),
		Status:    res.Status.String(),
		Dest:      res.Dest,
		Files:     files,
		Failed:    failed,
		Summary:   Summary{Text: res.Summary()},
	})
	return err
}

// Append assigns an ID and timestamp to e, fills in its totals and writes it.
func (j *Journal) Append(e *Entry) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	e.Timestamp = j.now().UTC()
	e.ID = newID(e.Operation, e.Timestamp)

	e.Summary.TotalFiles = int64(len(e.Files))
	e.Summary.TotalBytes = 0
	for _, f := range e.Files {
		e.Summary.TotalBytes += f.Size
	}

	if err := j.write(e); err != nil {
		return nil, fmt.Errorf("writing history entry: %w", err)
	}
	return e, nil
}

func (j *Journal) write(e *Entry) error {
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(j.dir, e.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// List returns entries newest first. A limit of zero or less returns all.
// Unreadable files are skipped.
func (j *Journal) List(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	names, err := j.entryFiles()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		e, err := j.read(name)
		if err != nil {
			continue
		}
		entries = append(entries, *e)
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Timestamp.After(entries[b].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry with the given ID. A unique ID prefix also matches.
func (j *Journal) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if e, err := j.read(id + ".json"); err == nil {
		return e, nil
	}

	names, err := j.entryFiles()
	if err != nil {
		return nil, err
	}

	var match string
	for _, name := range names {
		if strings.HasPrefix(name, id) {
			if match != "" {
				return nil, fmt.Errorf("ambiguous history ID %q", id)
			}
			match = name
		}
	}
	if match == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return j.read(match)
}

// Cleanup removes entries older than retentionDays and returns how many
// were removed. A retention of zero or less keeps everything.
func (j *Journal) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	names, err := j.entryFiles()
	if err != nil {
		return 0, err
	}

	cutoff := j.now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, name := range names {
		e, err := j.read(name)
		if err != nil || !e.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (j *Journal) entryFiles() ([]string, error) {
	dirents, err := os.ReadDir(j.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history directory: %w", err)
	}

	var names []string
	for _, d := range dirents {
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			names = append(names, d.Name())
		}
	}
	return names, nil
}

func (j *Journal) read(name string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(j.dir, name))
	if err != nil {
		return nil, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return &e, nil
}

// newID returns an ID like "move-2024-06-15T10-30-00-1f0c2a9b".
func newID(op string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", op, at.Format("2006-01-02T15-04-05"), uuid.NewString()[:8])
}
