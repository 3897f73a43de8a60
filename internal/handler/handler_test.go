// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shaktiyoga/studio/internal/content"
	"github.com/shaktiyoga/studio/internal/media"
	"github.com/shaktiyoga/studio/internal/middleware"
	"github.com/shaktiyoga/studio/internal/mirror"
	"github.com/shaktiyoga/studio/internal/notify"
	"github.com/shaktiyoga/studio/internal/session"
	"github.com/shaktiyoga/studio/internal/store"
	"github.com/shaktiyoga/studio/internal/visits"
)

// testEnv bundles a running test server with its backing stores.
type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	db       *sql.DB
	queries  *store.Queries
	registry *content.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.NewDB(store.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if err := store.Seed(context.Background(), db); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	queries := store.New(db)
	registry := content.NewRegistry(queries, mirror.NewMemoryStore(), notify.NewBus(nil), logger)

	router := NewRouter(RouterConfig{
		DB:              db,
		Registry:        registry,
		SessionManager:  session.New(db, true),
		LoginProtection: middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()),
		Tracker:         visits.NewTracker(queries, logger),
		Media:           media.NewProcessor(t.TempDir()),
		UploadsDir:      t.TempDir(),
		CSRFKey:         []byte("0123456789abcdef0123456789abcdef"),
		IsDevelopment:   true,
		Logger:          logger,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New failed: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{
		server:   server,
		client:   client,
		db:       db,
		queries:  queries,
		registry: registry,
	}
}

// get performs a GET and decodes the JSON body.
func (e *testEnv) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()

	resp, err := e.client.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return decodeResponse(t, resp)
}

// send performs a request with a JSON body and decodes the JSON response.
func (e *testEnv) send(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return decodeResponse(t, resp)
}

func decodeResponse(t *testing.T, resp *http.Response) (int, map[string]any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}

	var out map[string]any
	if len(data) > 0 && json.Valid(data) {
		_ = json.Unmarshal(data, &out)
	}
	return resp.StatusCode, out
}

// loginAdmin authenticates the seeded superadmin on the env's client.
func (e *testEnv) loginAdmin(t *testing.T) {
	t.Helper()

	status, body := e.send(t, http.MethodPost, "/api/login", map[string]string{
		"username": store.DefaultAdminUsername,
		"password": store.DefaultAdminPassword,
	})
	if status != http.StatusOK {
		t.Fatalf("admin login status = %d, body = %v", status, body)
	}
}
