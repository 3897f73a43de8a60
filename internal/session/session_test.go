// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaktiyoga/studio/internal/model"
	"github.com/shaktiyoga/studio/internal/store"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(store.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_DevMode(t *testing.T) {
	db := setupTestDB(t)

	sm := New(db, true)

	if sm == nil {
		t.Fatal("expected session manager to be non-nil")
	}
	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if sm.Lifetime != 24*time.Hour {
		t.Errorf("Lifetime = %v, want 24h", sm.Lifetime)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}
}

func TestNew_ProductionMode(t *testing.T) {
	db := setupTestDB(t)

	sm := New(db, false)

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production mode")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", sm.Cookie.SameSite)
	}
}

func TestLoginLogout(t *testing.T) {
	db := setupTestDB(t)
	sm := New(db, true)

	user := model.User{ID: 7, Username: "maya", Role: model.RoleAdmin}

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if !IsAuthenticated(ctx, sm) {
			if Role(ctx, sm) != model.RoleGuest {
				t.Errorf("anonymous Role = %q, want guest", Role(ctx, sm))
			}
		}

		if err := Login(ctx, sm, user); err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		if !IsAuthenticated(ctx, sm) {
			t.Error("IsAuthenticated = false after Login")
		}
		if UserID(ctx, sm) != 7 {
			t.Errorf("UserID = %d, want 7", UserID(ctx, sm))
		}
		if Username(ctx, sm) != "maya" {
			t.Errorf("Username = %q, want maya", Username(ctx, sm))
		}
		if Role(ctx, sm) != model.RoleAdmin {
			t.Errorf("Role = %q, want admin", Role(ctx, sm))
		}

		if err := Logout(ctx, sm); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}
		if IsAuthenticated(ctx, sm) {
			t.Error("IsAuthenticated = true after Logout")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}
