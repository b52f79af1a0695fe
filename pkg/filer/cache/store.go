package cache

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a cache entry doesn't exist.
var ErrNotFound = errors.New("cache entry not found")

// Store wraps Badger for cache operations.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a store at the given directory.
func OpenStore(path string) (*Store, error) {
	return openStore(badger.DefaultOptions(path))
}

// OpenMemoryStore opens a store that lives only in memory.
func OpenMemoryStore() (*Store, error) {
	return openStore(badger.DefaultOptions("").WithInMemory(true))
}

func openStore(opts badger.Options) (*Store, error) {
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the entry for a directory path.
func (s *Store) Get(path string) (*Entry, error) {
	var entry Entry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(MakeKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.Decode)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put stores the entry for a directory path.
func (s *Store) Put(path string, entry *Entry) error {
	value, err := entry.Encode()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(MakeKey(path), value)
	})
}

// Delete removes the entries for the given paths in one transaction.
func (s *Store) Delete(paths ...string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, p := range paths {
			if err := txn.Delete(MakeKey(p)); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeletePrefix removes every entry whose key starts with prefix and returns
// how many were removed.
func (s *Store) DeletePrefix(prefix []byte) (int, error) {
	var keys [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	n := 0
	prefix := []byte(keyPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
