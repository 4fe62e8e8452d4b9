// Package storage is the durable key-value layer behind the session and the
// cart. Each key holds one opaque JSON document.
//
// Three drivers are available:
//   - "file"   one file per key under STORAGE_LOCAL_ROOT (default)
//   - "sql"    a single table through gorm (sqlite, postgres, mysql, sqlserver)
//   - "memory" process-local, for tests and throwaway sessions
//
// Quick start:
//
//	st, err := storage.Open(storage.FromConfig())
//	defer st.Close()
//
//	_ = st.Put("cart", data)
//	data, err := st.Get("cart")
//	if errors.Is(err, storage.ErrNotFound) { ... }
package storage

import "errors"

// ErrNotFound is returned by Get when the key has never been written or was
// deleted.
var ErrNotFound = errors.New("storage: key not found")

// Store is the driver interface. Every driver must implement this.
//
// Put replaces the whole value atomically: a reader never observes a partly
// written document, even if the process dies mid-write.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Put writes value under key, replacing any previous value.
	Put(key string, value []byte) error

	// Delete removes key. Returns nil if the key did not exist.
	Delete(key string) error

	// Exists reports whether key holds a value.
	Exists(key string) bool

	// Close releases driver resources.
	Close() error
}
