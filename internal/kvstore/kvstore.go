// Package kvstore provides durable key-value snapshot storage. It is the
// server-side analog of browser local storage: a handful of fixed keys, each
// holding one JSON blob, overwritten whole on every write. Keys are
// single-writer by convention; concurrent instances sharing a backend are not
// coordinated and the last writer wins.
package kvstore

import "context"

// Store persists opaque values under string keys.
type Store interface {
	// Get returns the value stored under key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites any prior value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
