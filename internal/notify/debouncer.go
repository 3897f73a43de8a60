// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"sync"
	"time"
)

// DebounceConfig holds debouncer configuration.
type DebounceConfig struct {
	// Interval is the debounce window duration.
	// Notifications for a topic within this window are coalesced.
	Interval time.Duration
	// MaxWait is the maximum time to hold a topic back.
	// Even if notifications keep coming, deliver after this time.
	MaxWait time.Duration
}

// DefaultDebounceConfig returns default debounce configuration.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		Interval: 500 * time.Millisecond,
		MaxWait:  3 * time.Second,
	}
}

// pendingTopic tracks a held-back topic.
type pendingTopic struct {
	timer     *time.Timer
	firstSeen time.Time
}

// Debouncer coalesces rapid-fire notifications for the same topic into
// a single bus delivery. Useful during bulk admin imports where one
// logical change would otherwise fan out dozens of re-reads.
type Debouncer struct {
	bus     *Bus
	config  DebounceConfig
	pending map[string]*pendingTopic
	mu      sync.Mutex
	wg      sync.WaitGroup
}

// NewDebouncer creates a debouncer in front of the given bus.
func NewDebouncer(bus *Bus, config DebounceConfig) *Debouncer {
	return &Debouncer{
		bus:     bus,
		config:  config,
		pending: make(map[string]*pendingTopic),
	}
}

// Notify queues a topic for debounced delivery. If the topic is
// already pending, the window is extended up to MaxWait.
func (d *Debouncer) Notify(topic string) {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.pending[topic]; ok {
		if now.Sub(existing.firstSeen) >= d.config.MaxWait {
			d.deliverLocked(topic)
			return
		}
		existing.timer.Reset(d.config.Interval)
		return
	}

	pt := &pendingTopic{firstSeen: now}
	pt.timer = time.AfterFunc(d.config.Interval, func() {
		d.mu.Lock()
		d.deliverLocked(topic)
		d.mu.Unlock()
	})
	d.pending[topic] = pt
}

// deliverLocked delivers a pending topic. Must be called with lock held.
func (d *Debouncer) deliverLocked(topic string) {
	pt, ok := d.pending[topic]
	if !ok {
		return
	}
	pt.timer.Stop()
	delete(d.pending, topic)

	// Deliver outside the lock so listeners can Notify again.
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.bus.Notify(topic)
	}()
}

// Flush immediately delivers all pending topics.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	for topic := range d.pending {
		d.deliverLocked(topic)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// PendingCount returns the number of held-back topics.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
