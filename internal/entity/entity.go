// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package entity implements the generic Entity Service: per-entity
// read-through/write-through access to a remote store with a durable
// local mirror as the fallback, change notifications on every write,
// and an outbox that replays writes the remote missed.
//
// Read paths never fail: a remote error degrades to the mirror
// snapshot, then to the entity's hard-coded default. Write paths
// never surface remote errors either; a failed remote write lands in
// the mirror and the outbox, and the pending count tells callers the
// change is saved locally only.
package entity

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Remote is the source-of-truth side of a collection entity.
// List must return records ordered by creation time descending.
type Remote[T any] interface {
	List(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, rec T) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// SingletonRemote is the source-of-truth side of a singleton entity.
// Fetch returns exists=false when no row is present, without error.
type SingletonRemote[T any] interface {
	Fetch(ctx context.Context) (T, bool, error)
	Upsert(ctx context.Context, v T) error
}

// Notifier receives the topic of a changed entity.
// notify.Bus satisfies this.
type Notifier interface {
	Notify(topic string)
}

// nopNotifier is used when no notifier is configured.
type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// NewID synthesizes a record identifier eagerly on the client side:
// a millisecond timestamp prefix keeps ids sortable by creation time,
// a random suffix keeps them unique within a burst.
func NewID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + uuid.NewString()[:8]
}

// Topic returns the change-notification topic for an entity name.
func Topic(name string) string {
	return name + ".changed"
}
