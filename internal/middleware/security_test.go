// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveWithSecurityHeaders(t *testing.T, cfg SecurityHeadersConfig) http.Header {
	t.Helper()

	handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec.Header()
}

func TestSecurityHeaders_Production(t *testing.T) {
	headers := serveWithSecurityHeaders(t, DefaultSecurityHeadersConfig(false))

	if got := headers.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q; want nosniff", got)
	}
	if got := headers.Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Errorf("X-Frame-Options = %q; want SAMEORIGIN", got)
	}
	if got := headers.Get("Strict-Transport-Security"); !strings.Contains(got, "max-age=31536000") {
		t.Errorf("Strict-Transport-Security = %q; want 1 year max-age", got)
	}
	if got := headers.Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'self'") {
		t.Errorf("CSP = %q; want default-src 'self'", got)
	}
}

func TestSecurityHeaders_DevelopmentSkipsHSTS(t *testing.T) {
	headers := serveWithSecurityHeaders(t, DefaultSecurityHeadersConfig(true))

	if got := headers.Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Strict-Transport-Security = %q in development; want unset", got)
	}
	if got := headers.Get("Content-Security-Policy"); !strings.Contains(got, "'unsafe-eval'") {
		t.Errorf("dev CSP = %q; want 'unsafe-eval' in script-src", got)
	}
}

func TestBuildCSP_StableOrder(t *testing.T) {
	csp := buildCSP(map[string]string{
		"img-src":     "'self'",
		"default-src": "'self'",
	})
	if csp != "default-src 'self'; img-src 'self'" {
		t.Errorf("buildCSP = %q; want default-src first", csp)
	}
}
