// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package entity

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shaktiyoga/studio/internal/mirror"
)

// Config wires one collection entity service.
type Config[T any] struct {
	// Name is the entity name, e.g. "gallery". The change topic and
	// the outbox entity key derive from it.
	Name string

	// Remote is the source of truth.
	Remote Remote[T]

	// Mirror is the typed view over the entity's mirror key.
	Mirror *mirror.Typed[[]T]

	// Notifier receives one notification per logical change.
	// Optional; defaults to a no-op.
	Notifier Notifier

	// Outbox records writes the remote missed. Optional.
	Outbox *Outbox

	// Default is returned when both remote and mirror are empty.
	Default []T

	// ID extracts a record's identifier.
	ID func(T) string

	// SetID assigns a synthesized identifier before insert.
	SetID func(*T, string)

	// Stamp sets the record's creation time if unset. Optional.
	Stamp func(*T, time.Time)

	Logger *slog.Logger
}

// Service provides uniform CRUD access to one collection entity,
// consistent regardless of remote availability.
type Service[T any] struct {
	cfg   Config[T]
	topic string
}

// NewService creates a collection entity service.
func NewService[T any](cfg Config[T]) *Service[T] {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Service[T]{cfg: cfg, topic: Topic(cfg.Name)}
	if cfg.Outbox != nil {
		cfg.Outbox.register(cfg.Name, s.replay, s.refreshAndNotify)
	}
	return s
}

// Name returns the entity name.
func (s *Service[T]) Name() string { return s.cfg.Name }

// Topic returns the change-notification topic.
func (s *Service[T]) Topic() string { return s.topic }

// IDOf extracts a record's identifier.
func (s *Service[T]) IDOf(rec T) string { return s.cfg.ID(rec) }

// GetAll returns every record, remote first. On remote success the
// mirror snapshot is overwritten with the remote result. On any remote
// failure the mirror snapshot is returned, or the entity default when
// the mirror is empty. GetAll never fails.
func (s *Service[T]) GetAll(ctx context.Context) []T {
	records, err := s.cfg.Remote.List(ctx)
	if err == nil {
		if mErr := s.cfg.Mirror.Set(ctx, records); mErr != nil {
			s.cfg.Logger.Warn("mirror write failed", "entity", s.cfg.Name, "error", mErr)
		}
		return records
	}

	s.cfg.Logger.Warn("remote read failed, serving mirror",
		"entity", s.cfg.Name, "error", err)

	if cached, ok := s.cfg.Mirror.Get(ctx); ok {
		return cached
	}
	return append([]T(nil), s.cfg.Default...)
}

// Get returns the record with the given id, or false when no such
// record exists. It reads through GetAll, so it shares its fallback.
func (s *Service[T]) Get(ctx context.Context, id string) (T, bool) {
	for _, rec := range s.GetAll(ctx) {
		if s.cfg.ID(rec) == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// Create inserts a record. An identifier is synthesized eagerly when
// the record has none. On remote success the mirror is refreshed from
// remote (read-after-write); on failure the record is appended to the
// mirror and queued in the outbox. Exactly one notification fires.
func (s *Service[T]) Create(ctx context.Context, rec T) T {
	if s.cfg.ID(rec) == "" {
		s.cfg.SetID(&rec, NewID())
	}
	if s.cfg.Stamp != nil {
		s.cfg.Stamp(&rec, time.Now())
	}

	if err := s.cfg.Remote.Insert(ctx, rec); err != nil {
		s.cfg.Logger.Warn("remote insert failed, mirror-only write",
			"entity", s.cfg.Name, "id", s.cfg.ID(rec), "error", err)
		s.patchMirror(ctx, func(records []T) []T {
			return append(records, rec)
		})
		s.enqueue(ctx, opInsert, s.cfg.ID(rec), rec, nil)
	} else {
		s.refresh(ctx)
	}

	s.cfg.Notifier.Notify(s.topic)
	return rec
}

// Update applies a shallow partial update to the record with the given
// id. On remote success the mirror is refreshed; on failure the fields
// are merged over the matching mirror record and the write is queued.
// Exactly one notification fires.
func (s *Service[T]) Update(ctx context.Context, id string, fields map[string]any) {
	if err := s.cfg.Remote.Update(ctx, id, fields); err != nil {
		s.cfg.Logger.Warn("remote update failed, patching mirror",
			"entity", s.cfg.Name, "id", id, "error", err)
		s.patchMirror(ctx, func(records []T) []T {
			for i, rec := range records {
				if s.cfg.ID(rec) != id {
					continue
				}
				merged, err := merge(rec, fields)
				if err != nil {
					s.cfg.Logger.Warn("mirror merge failed",
						"entity", s.cfg.Name, "id", id, "error", err)
					break
				}
				records[i] = merged
				break
			}
			return records
		})
		s.enqueue(ctx, opUpdate, id, nil, fields)
	} else {
		s.refresh(ctx)
	}

	s.cfg.Notifier.Notify(s.topic)
}

// Delete removes the record with the given id. On remote success the
// mirror is refreshed; on failure the record is removed from the
// mirror directly and the delete is queued. Exactly one notification
// fires.
func (s *Service[T]) Delete(ctx context.Context, id string) {
	if err := s.cfg.Remote.Delete(ctx, id); err != nil {
		s.cfg.Logger.Warn("remote delete failed, removing from mirror",
			"entity", s.cfg.Name, "id", id, "error", err)
		s.patchMirror(ctx, func(records []T) []T {
			kept := records[:0]
			for _, rec := range records {
				if s.cfg.ID(rec) != id {
					kept = append(kept, rec)
				}
			}
			return kept
		})
		s.enqueue(ctx, opDelete, id, nil, nil)
	} else {
		s.refresh(ctx)
	}

	s.cfg.Notifier.Notify(s.topic)
}

// refresh overwrites the mirror with the current remote state.
func (s *Service[T]) refresh(ctx context.Context) {
	records, err := s.cfg.Remote.List(ctx)
	if err != nil {
		s.cfg.Logger.Warn("read-after-write refresh failed",
			"entity", s.cfg.Name, "error", err)
		return
	}
	if err := s.cfg.Mirror.Set(ctx, records); err != nil {
		s.cfg.Logger.Warn("mirror write failed", "entity", s.cfg.Name, "error", err)
	}
}

// refreshAndNotify is invoked by the outbox after a successful replay.
func (s *Service[T]) refreshAndNotify(ctx context.Context) {
	s.refresh(ctx)
	s.cfg.Notifier.Notify(s.topic)
}

// patchMirror loads the current snapshot (or the default when empty),
// applies fn, and writes the result back.
func (s *Service[T]) patchMirror(ctx context.Context, fn func([]T) []T) {
	records, ok := s.cfg.Mirror.Get(ctx)
	if !ok {
		records = append([]T(nil), s.cfg.Default...)
	}
	if err := s.cfg.Mirror.Set(ctx, fn(records)); err != nil {
		s.cfg.Logger.Warn("mirror write failed", "entity", s.cfg.Name, "error", err)
	}
}

// enqueue records a failed remote write in the outbox, when one is
// configured.
func (s *Service[T]) enqueue(ctx context.Context, op, id string, rec any, fields map[string]any) {
	if s.cfg.Outbox == nil {
		return
	}

	w := PendingWrite{
		Entity:   s.cfg.Name,
		Op:       op,
		RecordID: id,
		Fields:   fields,
		QueuedAt: time.Now(),
	}
	if rec != nil {
		payload, err := json.Marshal(rec)
		if err != nil {
			s.cfg.Logger.Warn("outbox payload marshal failed",
				"entity", s.cfg.Name, "id", id, "error", err)
			return
		}
		w.Payload = payload
	}
	s.cfg.Outbox.Enqueue(ctx, w)
}

// replay re-applies one pending write against the remote.
func (s *Service[T]) replay(ctx context.Context, w PendingWrite) error {
	switch w.Op {
	case opInsert:
		var rec T
		if err := json.Unmarshal(w.Payload, &rec); err != nil {
			return err
		}
		return s.cfg.Remote.Insert(ctx, rec)
	case opUpdate:
		return s.cfg.Remote.Update(ctx, w.RecordID, w.Fields)
	case opDelete:
		return s.cfg.Remote.Delete(ctx, w.RecordID)
	default:
		return errUnknownOp
	}
}
