// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shaktiyoga/studio/internal/model"
)

func TestListClassesServesDefaults(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.get(t, "/api/classes")
	if status != http.StatusOK {
		t.Fatalf("status = %d; want 200", status)
	}

	classes, ok := body["classes"].([]any)
	if !ok || len(classes) == 0 {
		t.Fatalf("classes = %v; want the default schedule", body["classes"])
	}
}

func TestAboutDefaultHeroTitle(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.get(t, "/api/about")
	if status != http.StatusOK {
		t.Fatalf("status = %d; want 200", status)
	}

	about, _ := body["about"].(map[string]any)
	if got := about["hero_title"]; got != "About Shakti Yoga Raai" {
		t.Errorf("hero_title = %v; want About Shakti Yoga Raai", got)
	}
}

func TestGetContactIncludesWhatsAppLink(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.get(t, "/api/contact")
	if status != http.StatusOK {
		t.Fatalf("status = %d; want 200", status)
	}

	link, _ := body["whatsapp_link"].(string)
	if !strings.HasPrefix(link, "https://wa.me/") {
		t.Errorf("whatsapp_link = %q; want a wa.me deep link", link)
	}
}

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.send(t, http.MethodPost, "/api/bookings", map[string]string{
		"name":       "Maya",
		"phone":      "+62 812-000-1111",
		"class_name": "Hatha Yoga",
		"date":       "Monday",
	})
	if status != http.StatusCreated {
		t.Fatalf("status = %d, body = %v; want 201", status, body)
	}

	booking, _ := body["booking"].(map[string]any)
	if booking["id"] == "" || booking["id"] == nil {
		t.Error("booking has no id")
	}
	if got := booking["status"]; got != model.BookingStatusPending {
		t.Errorf("status = %v; want pending", got)
	}
	if got := booking["phone"]; got != "628120001111" {
		t.Errorf("phone = %v; want digits only", got)
	}

	link, _ := body["whatsapp_link"].(string)
	if !strings.Contains(link, "wa.me") || !strings.Contains(link, "Hatha") {
		t.Errorf("whatsapp_link = %q; want a prefilled wa.me link", link)
	}

	// The booking reached the remote store
	bookings := env.registry.Bookings.GetAll(context.Background())
	if len(bookings) != 1 || bookings[0].Name != "Maya" {
		t.Errorf("stored bookings = %+v; want the one just created", bookings)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.send(t, http.MethodPost, "/api/bookings", map[string]string{
		"name": "Maya",
	})
	if status != http.StatusBadRequest {
		t.Errorf("status = %d; want 400 when class is missing", status)
	}
}

func TestGetArticleRendersMarkdown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registry.Articles.Create(ctx, model.Article{
		Title:     "Morning Flow",
		Slug:      "morning-flow",
		Body:      "# Start Here\n\nBreathe **deeply**.",
		Published: true,
	})
	env.registry.Articles.Create(ctx, model.Article{
		Title: "Draft", Slug: "draft", Body: "wip", Published: false,
	})

	status, body := env.get(t, "/api/articles/morning-flow")
	if status != http.StatusOK {
		t.Fatalf("status = %d; want 200", status)
	}

	article, _ := body["article"].(map[string]any)
	html, _ := article["body_html"].(string)
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<strong>deeply</strong>") {
		t.Errorf("body_html = %q; want rendered markdown", html)
	}

	// Listing hides drafts and bodies
	status, body = env.get(t, "/api/articles")
	if status != http.StatusOK {
		t.Fatalf("list status = %d; want 200", status)
	}
	articles, _ := body["articles"].([]any)
	if len(articles) != 1 {
		t.Fatalf("published articles = %d; want 1", len(articles))
	}
	first, _ := articles[0].(map[string]any)
	if got, _ := first["body"].(string); got != "" {
		t.Errorf("listing body = %q; want empty", got)
	}

	status, _ = env.get(t, "/api/articles/draft")
	if status != http.StatusNotFound {
		t.Errorf("draft article status = %d; want 404", status)
	}
}

func TestTrackBeacon(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.send(t, http.MethodPost, "/api/track", map[string]string{
		"path": "/classes",
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d; want 200", status)
	}

	// The visit is recorded asynchronously
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		count, err := env.queries.CountVisitsSince(context.Background(), time.Now().Add(-time.Minute))
		if err == nil && count == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("beacon visit never recorded")
}

func TestTrackBeaconRejectsRelativePath(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.send(t, http.MethodPost, "/api/track", map[string]string{
		"path": "classes",
	})
	if status != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", status)
	}
}
