// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mirror

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// FileStore is a durable mirror that keeps one file per key inside a
// directory. Writes go through a temp file and an atomic rename, so a
// crash mid-write never corrupts the previous snapshot.
type FileStore struct {
	dir    string
	mu     sync.RWMutex
	closed atomic.Bool
}

const fileExt = ".json"

// NewFileStore creates a file-backed mirror rooted at dir,
// creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("mirror directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating mirror directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// encodeKey maps an arbitrary key to a safe file name. Plain keys
// (letters, digits, dot, dash, underscore) keep their name; anything
// else is hex-encoded with an "x" marker so Keys can round-trip it.
func encodeKey(key string) string {
	safe := key != "" && !strings.HasPrefix(key, "x")
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'w', r == 'y', r == 'z':
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '_':
		default:
			safe = false
		}
		if !safe {
			break
		}
	}
	if safe {
		return key + fileExt
	}
	return "x" + hex.EncodeToString([]byte(key)) + fileExt
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, encodeKey(key))
}

// Get retrieves a snapshot from the mirror.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrMirrorClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMirrorMiss
		}
		return nil, fmt.Errorf("reading mirror %q: %w", key, err)
	}
	return data, nil
}

// Set stores a snapshot, replacing any previous value.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return ErrMirrorClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing mirror %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("syncing mirror %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("committing mirror %q: %w", key, err)
	}
	return nil
}

// Delete removes a key from the mirror.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return ErrMirrorClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting mirror %q: %w", key, err)
	}
	return nil
}

// Has checks if a snapshot exists for the key.
func (s *FileStore) Has(_ context.Context, key string) (bool, error) {
	if s.closed.Load() {
		return false, ErrMirrorClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Keys returns all keys currently held by the mirror.
// Hex-encoded keys are decoded back to their original form.
func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrMirrorClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing mirror directory: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		name = strings.TrimSuffix(name, fileExt)
		if strings.HasPrefix(name, "x") {
			if decoded, err := hex.DecodeString(name[1:]); err == nil {
				keys = append(keys, string(decoded))
			}
			continue
		}
		keys = append(keys, name)
	}
	return keys, nil
}

// Close marks the store as closed.
func (s *FileStore) Close() error {
	s.closed.Store(true)
	return nil
}

var _ Store = (*FileStore)(nil)
