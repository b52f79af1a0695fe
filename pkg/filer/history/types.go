// Package history journals completed file mutations as JSON documents,
// one file per operation, so the user can review what filer changed.
package history

import "time"

// Entry is one journaled operation.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Operation string         `json:"operation"`
	Status    string         `json:"status"`
	Dest      string         `json:"dest,omitempty"`
	Files     []FileRecord   `json:"files"`
	Failed    []FailedRecord `json:"failed,omitempty"`
	Summary   Summary        `json:"summary"`
}

// FileRecord describes one path the operation changed.
type FileRecord struct {
	Path  string    `json:"path"`
	Dest  string    `json:"dest,omitempty"`
	Size  int64     `json:"size"`
	IsDir bool      `json:"is_dir,omitempty"`
	At    time.Time `json:"at"`
}

// FailedRecord describes one item the operation could not process.
type FailedRecord struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Summary contains operation totals.
type Summary struct {
	TotalFiles int64  `json:"total_files"`
	TotalBytes int64  `json:"total_bytes"`
	Text       string `json:"text"`
}
