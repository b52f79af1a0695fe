package clipboard

import (
	"context"
	"sync"
)

// Memory is an in-process clipboard. The zero value is empty and ready to use.
type Memory struct {
	mu  sync.Mutex
	ref string
}

// Read returns the stored reference.
func (m *Memory) Read(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ref, nil
}

// Write replaces the stored reference.
func (m *Memory) Write(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ref = firstLine(path)
	return nil
}

// Clear empties the clipboard.
func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ref = ""
	return nil
}
