// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package entity

import (
	"context"
	"sync"
	"testing"

	"github.com/shaktiyoga/studio/internal/mirror"
)

type testSettings struct {
	Enabled bool   `json:"enabled"`
	Title   string `json:"title"`
}

// fakeSingletonRemote holds at most one row, with a failure switch.
type fakeSingletonRemote struct {
	mu      sync.Mutex
	value   testSettings
	exists  bool
	down    bool
	upserts int
}

func (f *fakeSingletonRemote) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *fakeSingletonRemote) Fetch(context.Context) (testSettings, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return testSettings{}, false, errRemoteDown
	}
	return f.value, f.exists, nil
}

func (f *fakeSingletonRemote) Upsert(_ context.Context, v testSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errRemoteDown
	}
	f.value = v
	f.exists = true
	f.upserts++
	return nil
}

func newTestSingleton(t *testing.T, remote *fakeSingletonRemote, notifier Notifier) *Singleton[testSettings] {
	t.Helper()

	return NewSingleton(SingletonConfig[testSettings]{
		Name:     "popup",
		Remote:   remote,
		Mirror:   mirror.NewTyped[testSettings](mirror.NewMemoryStore(), "popup"),
		Notifier: notifier,
		Default:  testSettings{Enabled: false, Title: "Welcome"},
	})
}

func TestSingleton_DefaultOnFirstRun(t *testing.T) {
	ctx := context.Background()
	remote := &fakeSingletonRemote{} // reachable but empty

	svc := newTestSingleton(t, remote, nil)

	got := svc.Get(ctx)
	if got.Title != "Welcome" || got.Enabled {
		t.Errorf("Get on first run = %+v; want the hard-coded default", got)
	}
}

func TestSingleton_LastSaveWins(t *testing.T) {
	ctx := context.Background()
	remote := &fakeSingletonRemote{}
	svc := newTestSingleton(t, remote, nil)

	svc.Save(ctx, testSettings{Enabled: true, Title: "Summer offer"})
	svc.Save(ctx, testSettings{Enabled: true, Title: "Autumn offer"})
	svc.Save(ctx, testSettings{Enabled: false, Title: "Closed"})

	got := svc.Get(ctx)
	if got.Title != "Closed" || got.Enabled {
		t.Errorf("Get = %+v; want the last saved payload", got)
	}
	if remote.upserts != 3 {
		t.Errorf("remote upserts = %d; want 3 (one logical row, replaced)", remote.upserts)
	}
}

func TestSingleton_SaveSurvivesOutage(t *testing.T) {
	ctx := context.Background()
	remote := &fakeSingletonRemote{down: true}
	svc := newTestSingleton(t, remote, nil)

	svc.Save(ctx, testSettings{Enabled: true, Title: "Offline edit"})

	got := svc.Get(ctx)
	if got.Title != "Offline edit" || !got.Enabled {
		t.Errorf("Get during outage = %+v; want the mirror copy", got)
	}
}

func TestSingleton_RemoteWinsOverMirror(t *testing.T) {
	ctx := context.Background()
	remote := &fakeSingletonRemote{}
	svc := newTestSingleton(t, remote, nil)

	svc.Save(ctx, testSettings{Title: "stale"})

	// Another process updates the remote behind our back.
	remote.mu.Lock()
	remote.value = testSettings{Title: "fresh"}
	remote.mu.Unlock()

	if got := svc.Get(ctx); got.Title != "fresh" {
		t.Errorf("Get = %+v; want the remote copy to win", got)
	}
}

func TestSingleton_OneNotificationPerSave(t *testing.T) {
	ctx := context.Background()
	remote := &fakeSingletonRemote{}
	notifier := newCountingNotifier()
	svc := newTestSingleton(t, remote, notifier)

	svc.Save(ctx, testSettings{Title: "a"})
	if got := notifier.count("popup.changed"); got != 1 {
		t.Errorf("notifications after save = %d; want 1", got)
	}

	remote.setDown(true)
	svc.Save(ctx, testSettings{Title: "b"})
	if got := notifier.count("popup.changed"); got != 2 {
		t.Errorf("notifications after mirror-only save = %d; want 2", got)
	}
}
