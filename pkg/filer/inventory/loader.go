package inventory

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/jamesainslie/filer/pkg/filer/types"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// ErrLoaderClosed is returned for requests made after Close.
var ErrLoaderClosed = errors.New("loader closed")

// Result is the outcome of one metadata request.
type Result struct {
	Entry    types.Entry
	Metadata types.Metadata
	Err      error
}

// Loader computes entry metadata in the background.
//
// At most Options.Workers computations run at once, and concurrent requests
// for the same path share a single computation. A shared computation runs
// until its last waiter cancels, so one caller giving up never fails the
// others. Each request receives its own buffered channel, so a caller that
// stops listening never blocks a worker.
type Loader struct {
	inv   *Inventory
	sem   *semaphore.Weighted
	group singleflight.Group

	base    context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	flights map[string]*flight
	gen     uint64
}

// flight is the shared context of one computation and the number of callers
// waiting on it.
type flight struct {
	key     string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewLoader creates a Loader backed by inv.
func NewLoader(inv *Inventory) *Loader {
	base, cancel := context.WithCancel(context.Background())
	return &Loader{
		inv:     inv,
		sem:     semaphore.NewWeighted(int64(inv.opts.Workers)),
		base:    base,
		cancel:  cancel,
		flights: make(map[string]*flight),
	}
}

// Request schedules a metadata computation for entry. The returned channel
// receives exactly one Result and is then closed.
func (l *Loader) Request(ctx context.Context, entry types.Entry) <-chan Result {
	ch := make(chan Result, 1)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		ch <- Result{Entry: entry, Err: ErrLoaderClosed}
		close(ch)
		return ch
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		defer close(ch)

		md, err := l.Load(ctx, entry)
		ch <- Result{Entry: entry, Metadata: md, Err: err}
	}()

	return ch
}

// Load computes the metadata for entry on the calling goroutine, sharing the
// worker limit and in-flight computations with Request. Cancelling ctx stops
// only this caller's wait.
func (l *Loader) Load(ctx context.Context, entry types.Entry) (types.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return types.Metadata{}, err
	}

	f := l.join(entry.Path)
	defer l.leave(entry.Path, f)

	ch := l.group.DoChan(f.key, func() (interface{}, error) {
		if err := l.sem.Acquire(f.ctx, 1); err != nil {
			return types.Metadata{}, err
		}
		defer l.sem.Release(1)

		return l.inv.Metadata(f.ctx, entry)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return types.Metadata{}, res.Err
		}
		return res.Val.(types.Metadata), nil
	case <-ctx.Done():
		return types.Metadata{}, ctx.Err()
	}
}

// join registers a waiter on the computation for path, starting a new one
// if none is live.
func (l *Loader) join(path string) *flight {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.flights[path]
	if !ok {
		l.gen++
		ctx, cancel := context.WithCancel(l.base)
		f = &flight{
			key:    path + "\x00" + strconv.FormatUint(l.gen, 10),
			ctx:    ctx,
			cancel: cancel,
		}
		l.flights[path] = f
	}
	f.waiters++
	return f
}

// leave drops a waiter. The last one out cancels the computation, and later
// callers start a fresh one.
func (l *Loader) leave(path string, f *flight) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if l.flights[path] == f {
		delete(l.flights, path)
	}
}

// LoadAll computes metadata for every entry concurrently and returns the
// results in the order of entries.
func (l *Loader) LoadAll(ctx context.Context, entries []types.Entry) []Result {
	chans := make([]<-chan Result, len(entries))
	for i, e := range entries {
		chans[i] = l.Request(ctx, e)
	}

	results := make([]Result, len(entries))
	for i, ch := range chans {
		results[i] = <-ch
	}
	return results
}

// Close cancels in-flight computations and waits for them to finish.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
}
