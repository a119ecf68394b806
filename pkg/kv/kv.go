// Package kv provides a small key-value store interface with hierarchical
// path-based keys, used to persist session records for the monitoring
// pipeline. Keys are string slices (e.g., ["session", "7f3a..."]) encoded
// with a ':' separator.
//
// The package includes a BadgerDB-backed implementation for durable
// session history and an in-memory implementation for tests and
// single-process deployments.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// separator joins key segments in the encoded representation.
// Segments must not contain it.
const separator = ":"

// Key is a hierarchical path represented as a slice of string segments.
// Key{"session", "abc"} encodes to "session:abc".
type Key []string

// String returns the encoded form of the key.
func (k Key) String() string {
	return strings.Join(k, separator)
}

// encode converts a Key to its stored byte representation.
func (k Key) encode() []byte {
	return []byte(k.String())
}

// decodeKey converts a stored byte representation back to a Key.
func decodeKey(b []byte) Key {
	return Key(strings.Split(string(b), separator))
}

// Entry is a key-value pair yielded by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is the interface for a key-value store with path-based keys.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair. Overwrites any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key Key) error

	// List iterates over all entries whose key starts with the given
	// prefix, in lexicographic order of the encoded key.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// Close releases any resources held by the store.
	Close() error
}

// prefixBytes returns the encoded prefix with a trailing separator, so
// "a:b" does not match "a:bc". An empty prefix matches everything.
func prefixBytes(prefix Key) []byte {
	p := prefix.encode()
	if len(p) == 0 {
		return nil
	}
	return append(p, separator...)
}
