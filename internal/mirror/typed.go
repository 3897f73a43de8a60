// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mirror

import (
	"context"
	"encoding/json"
)

// Typed provides type-safe mirror access using generics.
// It wraps a Store and handles JSON serialization.
type Typed[T any] struct {
	store Store
	key   string
}

// NewTyped creates a typed view over one mirror key.
func NewTyped[T any](store Store, key string) *Typed[T] {
	return &Typed[T]{
		store: store,
		key:   key,
	}
}

// Key returns the mirror key this view reads and writes.
func (t *Typed[T]) Key() string {
	return t.key
}

// Get retrieves the snapshot.
// Returns the value and true if present, zero value and false otherwise.
func (t *Typed[T]) Get(ctx context.Context) (T, bool) {
	var value T

	data, err := t.store.Get(ctx, t.key)
	if err != nil {
		return value, false
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false
	}
	return value, true
}

// Set replaces the snapshot wholesale.
func (t *Typed[T]) Set(ctx context.Context, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return t.store.Set(ctx, t.key, data)
}

// Delete removes the snapshot.
func (t *Typed[T]) Delete(ctx context.Context) error {
	return t.store.Delete(ctx, t.key)
}

// Has checks if a snapshot exists.
func (t *Typed[T]) Has(ctx context.Context) bool {
	has, _ := t.store.Has(ctx, t.key)
	return has
}
