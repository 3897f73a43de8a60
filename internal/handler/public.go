// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP surface of the studio site: the
// public content API, authentication, and the admin CRUD endpoints.
// Every read goes through the entity services, so responses stay
// available when the remote store is down.
package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shaktiyoga/studio/internal/content"
	"github.com/shaktiyoga/studio/internal/model"
	"github.com/shaktiyoga/studio/internal/render"
	"github.com/shaktiyoga/studio/internal/util"
	"github.com/shaktiyoga/studio/internal/visits"
)

// PublicHandler serves the unauthenticated content API.
type PublicHandler struct {
	registry *content.Registry
	tracker  *visits.Tracker
	logger   *slog.Logger
}

// NewPublicHandler creates a new public content handler.
func NewPublicHandler(registry *content.Registry, tracker *visits.Tracker, logger *slog.Logger) *PublicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandler{registry: registry, tracker: tracker, logger: logger}
}

// ListGallery handles GET /api/gallery.
func (h *PublicHandler) ListGallery(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, map[string]any{
		"images": h.registry.Gallery.GetAll(r.Context()),
	})
}

// ArticleResponse is an article with its markdown body rendered.
type ArticleResponse struct {
	model.Article
	BodyHTML string `json:"body_html,omitempty"`
}

// ListArticles handles GET /api/articles. Only published articles are
// returned; bodies are omitted from the listing.
func (h *PublicHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	var out []ArticleResponse
	for _, a := range h.registry.Articles.GetAll(r.Context()) {
		if !a.Published {
			continue
		}
		if a.Excerpt == "" {
			a.Excerpt = render.Excerpt(a.Body, 200)
		}
		a.Body = ""
		out = append(out, ArticleResponse{Article: a})
	}
	writeJSONSuccess(w, map[string]any{"articles": out})
}

// GetArticle handles GET /api/articles/{slug}. The markdown body is
// rendered to sanitized HTML.
func (h *PublicHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	for _, a := range h.registry.Articles.GetAll(r.Context()) {
		if a.Slug != slug || !a.Published {
			continue
		}
		writeJSONSuccess(w, map[string]any{
			"article": ArticleResponse{
				Article:  a,
				BodyHTML: string(render.Markdown(a.Body)),
			},
		})
		return
	}
	writeJSONError(w, http.StatusNotFound, "Article not found")
}

// ListClasses handles GET /api/classes.
func (h *PublicHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, map[string]any{
		"classes": h.registry.Classes.GetAll(r.Context()),
	})
}

// ListEvents handles GET /api/events.
func (h *PublicHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, map[string]any{
		"events": h.registry.Events.GetAll(r.Context()),
	})
}

// ListInstructors handles GET /api/instructors.
func (h *PublicHandler) ListInstructors(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, map[string]any{
		"instructors": h.registry.Instructors.GetAll(r.Context()),
	})
}

// ListProducts handles GET /api/products.
func (h *PublicHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, map[string]any{
		"products": h.registry.Products.GetAll(r.Context()),
	})
}

// ListPrograms handles GET /api/programs.
func (h *PublicHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, map[string]any{
		"programs": h.registry.Programs.GetAll(r.Context()),
	})
}

// GetAbout handles GET /api/about.
func (h *PublicHandler) GetAbout(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, map[string]any{
		"about": h.registry.About.Get(r.Context()),
	})
}

// GetContact handles GET /api/contact.
func (h *PublicHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	c := h.registry.Contact.Get(r.Context())
	writeJSONSuccess(w, map[string]any{
		"contact":       c,
		"whatsapp_link": util.WhatsAppLink(c.WhatsApp, "Hi! I have a question about the studio."),
	})
}

// GetPopup handles GET /api/popup.
func (h *PublicHandler) GetPopup(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, map[string]any{
		"popup": h.registry.Popup.Get(r.Context()),
	})
}

// CreateBookingRequest is the body of POST /api/bookings.
type CreateBookingRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	ClassName string `json:"class_name"`
	Date      string `json:"date,omitempty"`
	Note      string `json:"note,omitempty"`
}

// CreateBooking handles POST /api/bookings. The booking is stored and
// a WhatsApp deep link to the studio is returned so the visitor can
// confirm over chat.
func (h *PublicHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.ClassName = strings.TrimSpace(req.ClassName)
	if req.Name == "" || req.ClassName == "" {
		writeJSONError(w, http.StatusBadRequest, "Name and class are required")
		return
	}

	booking := h.registry.Bookings.Create(r.Context(), model.Booking{
		Name:      req.Name,
		Phone:     util.NormalizePhone(req.Phone),
		ClassName: req.ClassName,
		Date:      strings.TrimSpace(req.Date),
		Note:      strings.TrimSpace(req.Note),
		Status:    model.BookingStatusPending,
	})

	contact := h.registry.Contact.Get(r.Context())
	link := util.WhatsAppLink(contact.WhatsApp,
		util.BookingMessage(booking.Name, booking.ClassName, booking.Date))

	h.logger.Info("booking created",
		"id", booking.ID, "class", booking.ClassName)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"booking":       booking,
		"whatsapp_link": link,
	})
}

// TrackRequest is the body of POST /api/track.
type TrackRequest struct {
	Path string `json:"path"`
}

// Track handles POST /api/track - the pageview beacon sent by the
// client-side router. Middleware cannot see SPA route changes, so the
// frontend reports them here.
func (h *PublicHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Path == "" || !strings.HasPrefix(req.Path, "/") {
		writeJSONError(w, http.StatusBadRequest, "Path must be absolute")
		return
	}

	h.tracker.Record(req.Path, r.UserAgent())
	writeJSONSuccess(w, nil)
}
