// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mirror

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryStore is a thread-safe in-memory mirror implementation.
// Snapshots are lost on process exit; it is intended for tests and
// for deployments where durability is delegated to the remote store.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed atomic.Bool

	// Statistics
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewMemoryStore creates an empty in-memory mirror.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Get retrieves a snapshot from the mirror.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrMirrorClosed
	}

	s.mu.RLock()
	value, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		s.misses.Add(1)
		return nil, ErrMirrorMiss
	}

	s.hits.Add(1)
	// Return a copy to prevent mutation
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Set stores a snapshot, replacing any previous value.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return ErrMirrorClosed
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	s.mu.Lock()
	s.data[key] = valueCopy
	s.mu.Unlock()

	s.sets.Add(1)
	return nil
}

// Delete removes a key from the mirror.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return ErrMirrorClosed
	}

	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Has checks if a snapshot exists for the key.
func (s *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	if s.closed.Load() {
		return false, ErrMirrorClosed
	}

	s.mu.RLock()
	_, ok := s.data[key]
	s.mu.RUnlock()
	return ok, nil
}

// Keys returns all keys currently held by the mirror.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrMirrorClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// Close marks the store as closed.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}

// Stats returns hit/miss/set counters.
func (s *MemoryStore) Stats() (hits, misses, sets int64) {
	return s.hits.Load(), s.misses.Load(), s.sets.Load()
}

var _ Store = (*MemoryStore)(nil)
