// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"testing"

	"github.com/shaktiyoga/studio/internal/model"
)

func TestLoginLogoutFlow(t *testing.T) {
	env := newTestEnv(t)

	// Anonymous session
	status, body := env.get(t, "/api/me")
	if status != http.StatusOK {
		t.Fatalf("me status = %d; want 200", status)
	}
	if got := body["role"]; got != model.RoleGuest {
		t.Errorf("anonymous role = %v; want guest", got)
	}

	env.loginAdmin(t)

	status, body = env.get(t, "/api/me")
	if status != http.StatusOK {
		t.Fatalf("me status = %d; want 200", status)
	}
	if got := body["role"]; got != model.RoleSuperAdmin {
		t.Errorf("role after login = %v; want superadmin", got)
	}

	status, _ = env.send(t, http.MethodPost, "/api/logout", nil)
	if status != http.StatusOK {
		t.Fatalf("logout status = %d; want 200", status)
	}

	_, body = env.get(t, "/api/me")
	if got := body["role"]; got != model.RoleGuest {
		t.Errorf("role after logout = %v; want guest", got)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.send(t, http.MethodPost, "/api/login", map[string]string{
		"username": "admin",
		"password": "not-the-password",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", status)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.send(t, http.MethodPost, "/api/login", map[string]string{
		"username": "nobody",
		"password": "whatever123",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", status)
	}
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.send(t, http.MethodPost, "/api/signup", map[string]string{
		"username": "maya",
		"email":    "maya@example.com",
		"password": "sunrise-flow-9",
		"name":     "Maya",
	})
	if status != http.StatusCreated {
		t.Fatalf("status = %d, body = %v; want 201", status, body)
	}

	user, _ := body["user"].(map[string]any)
	if got := user["role"]; got != model.RoleUser {
		t.Errorf("new account role = %v; want user", got)
	}

	// The session is established immediately
	_, body = env.get(t, "/api/me")
	if got := body["role"]; got != model.RoleUser {
		t.Errorf("role after signup = %v; want user", got)
	}

	// Duplicate username is rejected
	status, _ = env.send(t, http.MethodPost, "/api/signup", map[string]string{
		"username": "maya",
		"email":    "other@example.com",
		"password": "sunrise-flow-9",
	})
	if status != http.StatusConflict {
		t.Errorf("duplicate signup status = %d; want 409", status)
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"short password", "maya", "short"},
		{"bad username", "M!", "sunrise-flow-9"},
		{"empty username", "", "sunrise-flow-9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.send(t, http.MethodPost, "/api/signup", map[string]string{
				"username": tt.username,
				"email":    "x@example.com",
				"password": tt.password,
			})
			if status != http.StatusBadRequest {
				t.Errorf("status = %d; want 400", status)
			}
		})
	}
}
