package cache

import (
	"bytes"
	"encoding/gob"
	"path/filepath"
	"strings"
)

// Version is incremented when the entry encoding changes. Entries written by
// another version are treated as misses.
const Version = 1

// keyPrefix namespaces directory-size entries inside the badger keyspace.
const keyPrefix = "size\x00"

// Entry is the cached total for one directory.
type Entry struct {
	Version int
	Size    int64
	Items   int
	Skipped int
	Mtime   int64 // directory mtime as UnixNano when the total was computed
}

// Encode serializes the entry using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes data into the entry.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// MakeKey returns the key for an absolute directory path.
func MakeKey(path string) []byte {
	return []byte(keyPrefix + filepath.Clean(path))
}

// ParseKey returns the directory path stored in key.
func ParseKey(key []byte) string {
	return strings.TrimPrefix(string(key), keyPrefix)
}

// MakeDescendantPrefix returns the prefix shared by keys of every directory
// below path.
func MakeDescendantPrefix(path string) []byte {
	path = filepath.Clean(path)
	if !strings.HasSuffix(path, string(filepath.Separator)) {
		path += string(filepath.Separator)
	}
	return []byte(keyPrefix + path)
}

// Ancestors returns path followed by each of its parent directories up to
// the filesystem root.
func Ancestors(path string) []string {
	path = filepath.Clean(path)
	out := []string{path}
	for {
		parent := filepath.Dir(path)
		if parent == path {
			return out
		}
		out = append(out, parent)
		path = parent
	}
}
