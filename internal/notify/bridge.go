// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// bridgeMessage is the wire format published on the Redis channel.
type bridgeMessage struct {
	Origin string `json:"origin"`
	Topic  string `json:"topic"`
}

// RedisBridge mirrors local notifications onto one Redis pub/sub
// channel and republishes remote ones into the local bus, giving
// every process the same single cross-process change signal.
//
// An origin token on each message prevents a process from re-delivering
// its own notifications.
type RedisBridge struct {
	bus     *Bus
	client  *redis.Client
	channel string
	origin  string
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisBridge creates a bridge over the given channel.
func NewRedisBridge(bus *Bus, client *redis.Client, channel string, logger *slog.Logger) *RedisBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBridge{
		bus:     bus,
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Start subscribes to the Redis channel and begins republishing remote
// notifications into the local bus.
func (b *RedisBridge) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	sub := b.client.Subscribe(ctx, b.channel)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() { _ = sub.Close() }()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var bm bridgeMessage
				if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
					b.logger.Warn("dropping malformed bridge message", "error", err)
					continue
				}
				if bm.Origin == b.origin {
					continue // our own publication
				}
				b.bus.Notify(bm.Topic)
			}
		}
	}()
}

// Publish sends a topic to every other process on the channel.
// Local delivery is the caller's responsibility (via Bus.Notify).
func (b *RedisBridge) Publish(ctx context.Context, topic string) {
	payload, err := json.Marshal(bridgeMessage{Origin: b.origin, Topic: topic})
	if err != nil {
		return
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("cross-process notification failed", "topic", topic, "error", err)
	}
}

// Stop unsubscribes and waits for the republish loop to exit.
func (b *RedisBridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

// BridgedNotifier fans one notification out to the local bus and to
// every other process on the bridge channel.
type BridgedNotifier struct {
	Bus    *Bus
	Bridge *RedisBridge
}

// Notify delivers locally and publishes cross-process.
func (n BridgedNotifier) Notify(topic string) {
	n.Bus.Notify(topic)
	n.Bridge.Publish(context.Background(), topic)
}
