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

// SingletonConfig wires one singleton entity service.
type SingletonConfig[T any] struct {
	Name     string
	Remote   SingletonRemote[T]
	Mirror   *mirror.Typed[T]
	Notifier Notifier
	Outbox   *Outbox

	// Default is returned when neither remote nor mirror hold a copy.
	// It is the singleton's lazily-created initial state.
	Default T

	Logger *slog.Logger
}

// Singleton provides Get/Save access to a content block with exactly
// one logical record, consistent regardless of remote availability.
type Singleton[T any] struct {
	cfg   SingletonConfig[T]
	topic string
}

// NewSingleton creates a singleton entity service.
func NewSingleton[T any](cfg SingletonConfig[T]) *Singleton[T] {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Singleton[T]{cfg: cfg, topic: Topic(cfg.Name)}
	if cfg.Outbox != nil {
		cfg.Outbox.register(cfg.Name, s.replay, s.refreshAndNotify)
	}
	return s
}

// Name returns the entity name.
func (s *Singleton[T]) Name() string { return s.cfg.Name }

// Topic returns the change-notification topic.
func (s *Singleton[T]) Topic() string { return s.topic }

// Get returns the singleton, remote first. A reachable-but-empty
// remote falls through to the mirror, then to the default. A remote
// failure falls back the same way with a warning. Get never fails.
func (s *Singleton[T]) Get(ctx context.Context) T {
	value, exists, err := s.cfg.Remote.Fetch(ctx)
	if err == nil && exists {
		if mErr := s.cfg.Mirror.Set(ctx, value); mErr != nil {
			s.cfg.Logger.Warn("mirror write failed", "entity", s.cfg.Name, "error", mErr)
		}
		return value
	}
	if err != nil {
		s.cfg.Logger.Warn("remote read failed, serving mirror",
			"entity", s.cfg.Name, "error", err)
	}

	if cached, ok := s.cfg.Mirror.Get(ctx); ok {
		return cached
	}
	return s.cfg.Default
}

// Save replaces the singleton. The mirror is written unconditionally;
// the remote upsert is best-effort and queued in the outbox when it
// fails. Exactly one notification fires.
func (s *Singleton[T]) Save(ctx context.Context, value T) {
	if err := s.cfg.Mirror.Set(ctx, value); err != nil {
		s.cfg.Logger.Warn("mirror write failed", "entity", s.cfg.Name, "error", err)
	}

	if err := s.cfg.Remote.Upsert(ctx, value); err != nil {
		s.cfg.Logger.Warn("remote upsert failed, mirror-only write",
			"entity", s.cfg.Name, "error", err)
		s.enqueue(ctx, value)
	}

	s.cfg.Notifier.Notify(s.topic)
}

// refreshAndNotify is invoked by the outbox after a successful replay.
func (s *Singleton[T]) refreshAndNotify(ctx context.Context) {
	value, exists, err := s.cfg.Remote.Fetch(ctx)
	if err != nil || !exists {
		return
	}
	if err := s.cfg.Mirror.Set(ctx, value); err != nil {
		s.cfg.Logger.Warn("mirror write failed", "entity", s.cfg.Name, "error", err)
	}
	s.cfg.Notifier.Notify(s.topic)
}

func (s *Singleton[T]) enqueue(ctx context.Context, value T) {
	if s.cfg.Outbox == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		s.cfg.Logger.Warn("outbox payload marshal failed",
			"entity", s.cfg.Name, "error", err)
		return
	}
	s.cfg.Outbox.Enqueue(ctx, PendingWrite{
		Entity:   s.cfg.Name,
		Op:       opUpsert,
		Payload:  payload,
		QueuedAt: time.Now(),
	})
}

// replay re-applies one pending upsert against the remote. Only the
// latest queued payload matters; earlier ones are superseded, but
// replaying them in order converges on the same state.
func (s *Singleton[T]) replay(ctx context.Context, w PendingWrite) error {
	if w.Op != opUpsert {
		return errUnknownOp
	}
	var value T
	if err := json.Unmarshal(w.Payload, &value); err != nil {
		return err
	}
	return s.cfg.Remote.Upsert(ctx, value)
}
