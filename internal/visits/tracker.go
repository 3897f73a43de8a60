// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package visits records public pageviews with device and browser
// classification, and aggregates them for the admin dashboard.
package visits

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/shaktiyoga/studio/internal/store"
)

// ParsedUA is the classified user agent of one pageview.
type ParsedUA struct {
	Browser string
	OS      string
	Device  string
}

// ParseUserAgent extracts browser, OS, and device type from a user
// agent string.
func ParseUserAgent(uaString string) ParsedUA {
	ua := useragent.Parse(uaString)

	result := ParsedUA{
		Browser: ua.Name,
		OS:      ua.OS,
	}

	if result.Browser == "" {
		result.Browser = "Unknown"
	}
	if result.OS == "" {
		result.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		result.Device = "mobile"
	case ua.Tablet:
		result.Device = "tablet"
	case ua.Bot:
		result.Device = "bot"
	default:
		result.Device = "desktop"
	}

	return result
}

// Tracker records pageviews asynchronously so tracking never slows a
// response down.
type Tracker struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewTracker creates a pageview tracker.
func NewTracker(queries *store.Queries, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{queries: queries, logger: logger}
}

// Middleware records a visit for every successful page GET. Static
// assets, admin screens, and API calls are skipped.
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		if r.Method != http.MethodGet || !trackablePath(r.URL.Path) {
			return
		}

		ua := ParseUserAgent(r.UserAgent())
		go t.record(r.URL.Path, ua)
	})
}

// Record stores one pageview reported out of band, for client-side
// routed pages the middleware never sees.
func (t *Tracker) Record(path, userAgent string) {
	go t.record(path, ParseUserAgent(userAgent))
}

func (t *Tracker) record(path string, ua ParsedUA) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := t.queries.InsertVisit(ctx, store.InsertVisitParams{
		Path:      path,
		Browser:   ua.Browser,
		OS:        ua.OS,
		Device:    ua.Device,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.logger.Warn("recording visit failed", "path", path, "error", err)
	}
}

// trackablePath reports whether a path counts as a public pageview.
func trackablePath(path string) bool {
	for _, prefix := range []string{"/admin", "/api", "/static", "/uploads", "/healthz", "/favicon"} {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// Summary aggregates pageviews for the admin dashboard.
type Summary struct {
	Total    int64
	TopPages []store.VisitCount
	Devices  []store.VisitCount
	Browsers []store.VisitCount
}

// Summarize aggregates visits over the trailing window.
func (t *Tracker) Summarize(ctx context.Context, window time.Duration, limit int64) (*Summary, error) {
	cutoff := time.Now().Add(-window)

	total, err := t.queries.CountVisitsSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	pages, err := t.queries.TopPagesSince(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}
	devices, err := t.queries.DeviceBreakdownSince(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}
	browsers, err := t.queries.BrowserBreakdownSince(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Total:    total,
		TopPages: pages,
		Devices:  devices,
		Browsers: browsers,
	}, nil
}
