// Package config loads filer settings from a YAML file and FILER_ environment
// variables.
package config

// Default configuration values.
const (
	// DefaultPath is the directory opened when none is given.
	DefaultPath = "."

	// DefaultMaxDepth bounds recursive directory totals.
	DefaultMaxDepth = 256

	// DefaultTimeLayout renders last-modified labels.
	DefaultTimeLayout = "2006-01-02 15:04"

	// DefaultRetentionDays is how long history entries are kept.
	DefaultRetentionDays = 30

	// DefaultClipboard is the clipboard store used by yank and paste.
	DefaultClipboard = "file"

	// DefaultLogMaxSize is the log size that triggers rotation.
	DefaultLogMaxSize = "10MB"
)

// DefaultComponentLevels are the per-component log levels written to a new
// config file.
var DefaultComponentLevels = map[string]string{
	"inventory": "info",
	"engine":    "info",
	"watcher":   "warn",
	"cache":     "warn",
	"tui":       "info",
}
