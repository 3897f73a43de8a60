// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginProtection_AccountLockout(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	if locked, _ := lp.IsAccountLocked("maya"); locked {
		t.Fatal("fresh account reported locked")
	}

	lp.RecordFailedAttempt("maya")
	lp.RecordFailedAttempt("maya")
	if remaining := lp.GetRemainingAttempts("maya"); remaining != 1 {
		t.Errorf("remaining = %d after 2 failures; want 1", remaining)
	}

	locked, dur := lp.RecordFailedAttempt("maya")
	if !locked {
		t.Fatal("account not locked after reaching the limit")
	}
	if dur != time.Minute {
		t.Errorf("lock duration = %v; want 1m", dur)
	}

	if locked, remaining := lp.IsAccountLocked("maya"); !locked || remaining <= 0 {
		t.Errorf("IsAccountLocked = (%v, %v); want locked with time remaining", locked, remaining)
	}

	// Another account is unaffected
	if locked, _ := lp.IsAccountLocked("other"); locked {
		t.Error("unrelated account reported locked")
	}
}

func TestLoginProtection_SuccessClearsAttempts(t *testing.T) {
	lp := NewLoginProtection(DefaultLoginProtectionConfig())

	lp.RecordFailedAttempt("maya")
	lp.RecordFailedAttempt("maya")
	lp.RecordSuccessfulLogin("maya")

	if remaining := lp.GetRemainingAttempts("maya"); remaining != 5 {
		t.Errorf("remaining = %d after successful login; want 5", remaining)
	}
}

func TestLoginProtection_ExponentialBackoff(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 1,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	if locked, dur := lp.RecordFailedAttempt("maya"); !locked || dur != time.Minute {
		t.Fatalf("first lockout = (%v, %v); want (true, 1m)", locked, dur)
	}
	if locked, dur := lp.RecordFailedAttempt("maya"); !locked || dur != 2*time.Minute {
		t.Errorf("second lockout = (%v, %v); want (true, 2m)", locked, dur)
	}
}

func TestLoginProtection_Middleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit: 100, // High limit; burst controls the test
		IPBurst:     2,
	})

	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// GET requests are never rate limited
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %d: status = %d; want 200", i, rec.Code)
		}
	}

	// POST burst is allowed, then limited
	post := func() int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post(); code != http.StatusOK {
		t.Errorf("first POST status = %d; want 200", code)
	}
	if code := post(); code != http.StatusOK {
		t.Errorf("second POST status = %d; want 200", code)
	}

	limited := false
	for i := 0; i < 5; i++ {
		if post() == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("POST burst never rate limited")
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "192.168.1.10:4242"

	if ip := getClientIP(req); ip != "192.168.1.10:4242" {
		t.Errorf("getClientIP = %q; want RemoteAddr", ip)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	if ip := getClientIP(req); ip != "203.0.113.7" {
		t.Errorf("getClientIP = %q; want X-Forwarded-For value", ip)
	}

	req.Header.Set("X-Real-IP", "198.51.100.2")
	if ip := getClientIP(req); ip != "198.51.100.2" {
		t.Errorf("getClientIP = %q; want X-Real-IP value", ip)
	}
}
