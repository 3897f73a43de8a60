// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"testing"
)

func TestHealthPublicIsMinimal(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.get(t, "/healthz")
	if status != http.StatusOK {
		t.Fatalf("status = %d; want 200", status)
	}
	if got := body["status"]; got != "healthy" {
		t.Errorf("status field = %v; want healthy", got)
	}
	if _, ok := body["checks"]; ok {
		t.Error("anonymous health response leaked check details")
	}
}

func TestHealthAdminSeesChecks(t *testing.T) {
	env := newTestEnv(t)
	env.loginAdmin(t)

	status, body := env.get(t, "/healthz")
	if status != http.StatusOK {
		t.Fatalf("status = %d; want 200", status)
	}

	checks, ok := body["checks"].(map[string]any)
	if !ok {
		t.Fatalf("checks = %v; want per-dependency results", body["checks"])
	}
	for _, name := range []string{"database", "disk", "sync"} {
		if _, ok := checks[name]; !ok {
			t.Errorf("missing %s check", name)
		}
	}
}

func TestLivenessAndReadiness(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.get(t, "/healthz/live")
	if status != http.StatusOK || body["status"] != "alive" {
		t.Errorf("liveness = (%d, %v); want (200, alive)", status, body["status"])
	}

	status, body = env.get(t, "/healthz/ready")
	if status != http.StatusOK || body["status"] != "ready" {
		t.Errorf("readiness = (%d, %v); want (200, ready)", status, body["status"])
	}
}
