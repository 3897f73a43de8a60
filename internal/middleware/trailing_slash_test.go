// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStripTrailingSlash(t *testing.T) {
	handler := StripTrailingSlash(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		path         string
		wantStatus   int
		wantLocation string
	}{
		{"/classes/", http.StatusMovedPermanently, "/classes"},
		{"/classes", http.StatusOK, ""},
		{"/", http.StatusOK, ""},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if rec.Code != tt.wantStatus {
			t.Errorf("%s: status = %d; want %d", tt.path, rec.Code, tt.wantStatus)
		}
		if tt.wantLocation != "" && rec.Header().Get("Location") != tt.wantLocation {
			t.Errorf("%s: Location = %q; want %q", tt.path, rec.Header().Get("Location"), tt.wantLocation)
		}
	}
}

func TestStripTrailingSlash_KeepsQuery(t *testing.T) {
	handler := StripTrailingSlash(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles/?page=2", nil))

	if got := rec.Header().Get("Location"); got != "/articles?page=2" {
		t.Errorf("Location = %q; want /articles?page=2", got)
	}
}
