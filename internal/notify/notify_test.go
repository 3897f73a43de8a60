// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestBus_DeliversToAllSubscribersOnce(t *testing.T) {
	bus := NewBus(nil)

	var first, second atomic.Int64
	bus.Subscribe("gallery.changed", func(string) { first.Add(1) })
	bus.Subscribe("gallery.changed", func(string) { second.Add(1) })

	bus.Notify("gallery.changed")

	if got := first.Load(); got != 1 {
		t.Errorf("first listener called %d times; want 1", got)
	}
	if got := second.Load(); got != 1 {
		t.Errorf("second listener called %d times; want 1", got)
	}
}

func TestBus_TopicIsolation(t *testing.T) {
	bus := NewBus(nil)

	var calls atomic.Int64
	bus.Subscribe("gallery.changed", func(string) { calls.Add(1) })

	bus.Notify("articles.changed")

	if got := calls.Load(); got != 0 {
		t.Errorf("listener called %d times for unrelated topic; want 0", got)
	}
}

func TestBus_DeliveryOrder(t *testing.T) {
	bus := NewBus(nil)

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		bus.Subscribe("bookings.changed", func(string) {
			order = append(order, i)
		})
	}

	bus.Notify("bookings.changed")

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("delivery order = %v; want [1 2 3]", order)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)

	var calls atomic.Int64
	unsub := bus.Subscribe("popup.changed", func(string) { calls.Add(1) })

	bus.Notify("popup.changed")
	unsub()
	unsub() // idempotent
	bus.Notify("popup.changed")

	if got := calls.Load(); got != 1 {
		t.Errorf("listener called %d times; want 1", got)
	}
	if n := bus.SubscriberCount("popup.changed"); n != 0 {
		t.Errorf("SubscriberCount = %d after unsubscribe; want 0", n)
	}
}

func TestBus_SubscribeDuringDelivery(t *testing.T) {
	bus := NewBus(nil)

	var late atomic.Int64
	bus.Subscribe("classes.changed", func(string) {
		bus.Subscribe("classes.changed", func(string) { late.Add(1) })
	})

	bus.Notify("classes.changed")

	// The listener registered mid-delivery must not see the in-flight
	// notification.
	if got := late.Load(); got != 0 {
		t.Errorf("late listener called %d times; want 0", got)
	}

	bus.Notify("classes.changed")
	if got := late.Load(); got != 1 {
		t.Errorf("late listener called %d times after second Notify; want 1", got)
	}
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	bus := NewBus(nil)

	var calls atomic.Int64
	bus.Subscribe("gallery.changed", func(string) { calls.Add(1) })

	d := NewDebouncer(bus, DebounceConfig{
		Interval: 20 * time.Millisecond,
		MaxWait:  time.Second,
	})

	for i := 0; i < 10; i++ {
		d.Notify("gallery.changed")
	}
	d.Flush()

	if got := calls.Load(); got != 1 {
		t.Errorf("burst delivered %d times; want 1", got)
	}
}

func TestDebouncer_SeparateTopics(t *testing.T) {
	bus := NewBus(nil)

	var gallery, articles atomic.Int64
	bus.Subscribe("gallery.changed", func(string) { gallery.Add(1) })
	bus.Subscribe("articles.changed", func(string) { articles.Add(1) })

	d := NewDebouncer(bus, DefaultDebounceConfig())
	d.Notify("gallery.changed")
	d.Notify("articles.changed")
	d.Flush()

	if got := gallery.Load(); got != 1 {
		t.Errorf("gallery delivered %d times; want 1", got)
	}
	if got := articles.Load(); got != 1 {
		t.Errorf("articles delivered %d times; want 1", got)
	}
}

func TestDebouncer_PendingCount(t *testing.T) {
	bus := NewBus(nil)
	d := NewDebouncer(bus, DebounceConfig{
		Interval: time.Minute,
		MaxWait:  time.Hour,
	})

	d.Notify("a.changed")
	d.Notify("b.changed")
	if got := d.PendingCount(); got != 2 {
		t.Errorf("PendingCount = %d; want 2", got)
	}

	d.Flush()
	if got := d.PendingCount(); got != 0 {
		t.Errorf("PendingCount after Flush = %d; want 0", got)
	}
}
