// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package entity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaktiyoga/studio/internal/mirror"
)

// Pending write operations.
const (
	opInsert = "insert"
	opUpdate = "update"
	opDelete = "delete"
	opUpsert = "upsert"
)

var errUnknownOp = errors.New("unknown outbox operation")

// PendingWrite is one remote write that failed and awaits replay.
type PendingWrite struct {
	ID       string          `json:"id"`
	Entity   string          `json:"entity"`
	Op       string          `json:"op"`
	RecordID string          `json:"record_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Fields   map[string]any  `json:"fields,omitempty"`
	QueuedAt time.Time       `json:"queued_at"`
	Attempts int             `json:"attempts"`
}

// replayFunc re-applies one pending write against an entity's remote.
type replayFunc func(ctx context.Context, w PendingWrite) error

// refreshFunc refreshes an entity's mirror after a successful replay
// and fires its change notification.
type refreshFunc func(ctx context.Context)

// Outbox is a durable FIFO of mirror-only writes, persisted under one
// mirror key and replayed when connectivity returns. Replays keep
// per-entity order: once an entity's write fails, its later writes are
// skipped until the next replay round.
type Outbox struct {
	mu        sync.Mutex
	typed     *mirror.Typed[[]PendingWrite]
	replayers map[string]replayFunc
	refreshes map[string]refreshFunc
	logger    *slog.Logger
}

// OutboxKey is the mirror key holding the pending-write queue.
const OutboxKey = "outbox"

// NewOutbox creates an outbox persisted in the given mirror store.
func NewOutbox(store mirror.Store, logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{
		typed:     mirror.NewTyped[[]PendingWrite](store, OutboxKey),
		replayers: make(map[string]replayFunc),
		refreshes: make(map[string]refreshFunc),
		logger:    logger,
	}
}

// register wires an entity's replay and refresh hooks. Called by
// NewService / NewSingleton.
func (o *Outbox) register(entity string, replay replayFunc, refresh refreshFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replayers[entity] = replay
	o.refreshes[entity] = refresh
}

// Enqueue appends a pending write to the queue.
func (o *Outbox) Enqueue(ctx context.Context, w PendingWrite) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.QueuedAt.IsZero() {
		w.QueuedAt = time.Now()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	queue, _ := o.typed.Get(ctx)
	queue = append(queue, w)
	if err := o.typed.Set(ctx, queue); err != nil {
		o.logger.Warn("outbox persist failed", "entity", w.Entity, "op", w.Op, "error", err)
		return
	}
	o.logger.Info("write queued for replay",
		"entity", w.Entity, "op", w.Op, "record_id", w.RecordID, "pending", len(queue))
}

// Pending returns a copy of the queued writes in order.
func (o *Outbox) Pending(ctx context.Context) []PendingWrite {
	o.mu.Lock()
	defer o.mu.Unlock()
	queue, _ := o.typed.Get(ctx)
	return queue
}

// Count returns the number of queued writes.
func (o *Outbox) Count(ctx context.Context) int {
	return len(o.Pending(ctx))
}

// Replay attempts every queued write in FIFO order. Writes that
// succeed are removed; the first failure per entity blocks that
// entity's remaining writes for this round. Entities with at least
// one successful replay get their mirror refreshed and a notification
// fired. Returns the number of writes replayed.
func (o *Outbox) Replay(ctx context.Context) int {
	o.mu.Lock()
	queue, _ := o.typed.Get(ctx)
	if len(queue) == 0 {
		o.mu.Unlock()
		return 0
	}

	var remaining []PendingWrite
	blocked := make(map[string]bool)
	touched := make(map[string]bool)
	replayed := 0

	for _, w := range queue {
		replay, ok := o.replayers[w.Entity]
		if !ok || blocked[w.Entity] {
			remaining = append(remaining, w)
			continue
		}

		if err := replay(ctx, w); err != nil {
			o.logger.Warn("outbox replay failed",
				"entity", w.Entity, "op", w.Op, "record_id", w.RecordID,
				"attempts", w.Attempts+1, "error", err)
			w.Attempts++
			blocked[w.Entity] = true
			remaining = append(remaining, w)
			continue
		}

		replayed++
		touched[w.Entity] = true
	}

	if err := o.typed.Set(ctx, remaining); err != nil {
		o.logger.Warn("outbox persist failed after replay", "error", err)
	}
	refreshes := make([]refreshFunc, 0, len(touched))
	for entity := range touched {
		if fn, ok := o.refreshes[entity]; ok {
			refreshes = append(refreshes, fn)
		}
	}
	o.mu.Unlock()

	// Refresh outside the lock: refresh hooks call back into services
	// which may enqueue again.
	for _, fn := range refreshes {
		fn(ctx)
	}

	if replayed > 0 {
		o.logger.Info("outbox replay complete", "replayed", replayed, "pending", len(remaining))
	}
	return replayed
}
