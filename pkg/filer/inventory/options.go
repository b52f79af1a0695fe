// Package inventory lists directories and computes per-entry metadata.
// Directory totals are computed with a parallel walk that never follows
// symlinks, and the Loader runs those computations off the caller's
// goroutine with a bounded worker pool.
package inventory

import (
	"runtime"
	"time"

	"github.com/jamesainslie/filer/pkg/filer/types"
)

// DefaultMaxDepth bounds how deep a directory total descends.
const DefaultMaxDepth = 256

// Worker limits for the Loader. Totals are dominated by stat calls, so even
// small machines benefit from a few more workers than cores.
const (
	minWorkers = 8
	maxWorkers = 64
)

// DefaultWorkers returns the Loader pool size for this machine.
func DefaultWorkers() int {
	return min(max(runtime.NumCPU(), minWorkers), maxWorkers)
}

// SizeCache stores directory totals between computations.
// *cache.Cache satisfies it.
type SizeCache interface {
	Lookup(dir string, mtime time.Time) (types.Metadata, bool)
	Store(dir string, md types.Metadata) error
}

// Options configures an Inventory.
type Options struct {
	// ShowHidden includes dot-files in listings.
	ShowHidden bool

	// Workers bounds how many metadata computations the Loader runs at once.
	Workers int

	// MaxDepth bounds how many directory levels a total descends below the
	// directory itself.
	MaxDepth int

	// Cache is an optional directory-size cache. If nil, caching is disabled.
	Cache SizeCache
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Workers:  DefaultWorkers(),
		MaxDepth: DefaultMaxDepth,
	}
}

// ApplyDefaults replaces out-of-range values with defaults.
func (o *Options) ApplyDefaults() {
	if o.Workers < 1 {
		o.Workers = DefaultWorkers()
	}
	if o.MaxDepth < 1 {
		o.MaxDepth = DefaultMaxDepth
	}
}
