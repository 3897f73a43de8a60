// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mirror provides the Local Mirror Store: a durable key-value
// snapshot per entity used as the zero-latency read source and the
// fallback when the remote store is unreachable.
package mirror

import "context"

// Store defines the interface for mirror implementations.
// All implementations must be thread-safe.
// Values are opaque []byte blobs; callers overwrite snapshots wholesale
// and the last write wins. Entries never expire.
type Store interface {
	// Get retrieves a snapshot from the mirror.
	// Returns ErrMirrorMiss if no snapshot exists for the key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a snapshot, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key from the mirror.
	Delete(ctx context.Context, key string) error

	// Has checks if a snapshot exists for the key.
	Has(ctx context.Context, key string) (bool, error)

	// Keys returns all keys currently held by the mirror.
	Keys(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// Error represents an error type for mirror operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrMirrorMiss indicates no snapshot exists for the key.
	ErrMirrorMiss Error = "mirror miss"

	// ErrMirrorClosed indicates the store has been closed.
	ErrMirrorClosed Error = "mirror closed"
)
