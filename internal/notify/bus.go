// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify implements the Change Notifier: a synchronous
// in-process bus that tells subscribers "re-read this entity now",
// plus an optional Redis bridge for cross-process delivery.
//
// Notifications carry no payload. Subscribers must treat the callback
// as a pure invalidation signal and re-read through their entity
// service, never as a diff.
package notify

import (
	"log/slog"
	"sync"
)

// Listener is invoked with the topic that changed.
type Listener func(topic string)

// Bus delivers change notifications synchronously and in subscription
// order to the subscribers present at Notify time. Each logical change
// produces exactly one delivery per subscriber.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]subscription
	logger *slog.Logger
}

type subscription struct {
	id int
	fn Listener
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[string][]subscription),
		logger: logger,
	}
}

// Subscribe registers a listener for a topic and returns an
// unsubscribe function. Unsubscribe is idempotent.
func (b *Bus) Subscribe(topic string, fn Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[topic]
			for i, s := range list {
				if s.id == id {
					b.subs[topic] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// Notify delivers the topic to every current subscriber, synchronously
// and in subscription order. A listener registered during delivery does
// not receive the in-flight notification.
func (b *Bus) Notify(topic string) {
	b.mu.RLock()
	list := make([]subscription, len(b.subs[topic]))
	copy(list, b.subs[topic])
	b.mu.RUnlock()

	b.logger.Debug("change notification", "topic", topic, "listeners", len(list))

	for _, s := range list {
		s.fn(topic)
	}
}

// SubscriberCount returns the number of listeners for a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
