// Package storage defines the opaque key-value backend the note
// collection persists to. Two implementations are provided: an embedded
// BadgerDB store (the default) and a SQLite store.
package storage

// Backend is the interface for key-value persistence. Keys are opaque
// strings; values are raw bytes (JSON-encoded domain objects).
type Backend interface {
	// Get returns the value at key, or apperr.ErrNotFound.
	Get(key string) ([]byte, error)
	// Put writes value at key, overwriting any previous value.
	Put(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Scan returns every key/value pair whose key starts with prefix,
	// in lexicographic key order.
	Scan(prefix string) ([]KV, error)
	// Close releases the underlying resources.
	Close() error
}

// KV is a single key-value pair returned by Scan.
type KV struct {
	Key   string
	Value []byte
}
