// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shaktiyoga/studio/internal/content"
	"github.com/shaktiyoga/studio/internal/media"
	"github.com/shaktiyoga/studio/internal/middleware"
	"github.com/shaktiyoga/studio/internal/store"
	"github.com/shaktiyoga/studio/internal/visits"
)

// RouterConfig holds everything the HTTP surface depends on.
type RouterConfig struct {
	DB              *sql.DB
	Registry        *content.Registry
	SessionManager  *scs.SessionManager
	LoginProtection *middleware.LoginProtection
	Tracker         *visits.Tracker
	Media           *media.Processor
	UploadsDir      string
	CSRFKey         []byte
	IsDevelopment   bool
	Logger          *slog.Logger
}

// NewRouter builds the full route tree: health checks, the public
// content API, authentication, uploads, and the admin API.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment)))
	r.Use(cfg.SessionManager.LoadAndSave)
	r.Use(cfg.Tracker.Middleware)

	// Public write endpoints are guarded by rate limits and Lax
	// session cookies instead of CSRF tokens; the token dance only
	// applies to the admin surface.
	r.Use(middleware.SkipCSRF("/api/login", "/api/signup", "/api/logout", "/api/bookings", "/api/track"))
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(cfg.CSRFKey, cfg.IsDevelopment)))

	health := NewHealthHandler(cfg.DB, cfg.SessionManager, cfg.Registry.Outbox, cfg.UploadsDir)
	public := NewPublicHandler(cfg.Registry, cfg.Tracker, cfg.Logger)
	authH := NewAuthHandler(cfg.DB, cfg.SessionManager, cfg.LoginProtection, cfg.Logger)
	admin := NewAdminHandler(cfg.Registry, store.New(cfg.DB), cfg.Media, cfg.Tracker, cfg.Logger)

	r.Get("/healthz", health.Health)
	r.Get("/healthz/live", health.Liveness)
	r.Get("/healthz/ready", health.Readiness)

	r.Route("/api", func(r chi.Router) {
		r.Get("/gallery", public.ListGallery)
		r.Get("/articles", public.ListArticles)
		r.Get("/articles/{slug}", public.GetArticle)
		r.Get("/classes", public.ListClasses)
		r.Get("/events", public.ListEvents)
		r.Get("/instructors", public.ListInstructors)
		r.Get("/products", public.ListProducts)
		r.Get("/programs", public.ListPrograms)
		r.Get("/about", public.GetAbout)
		r.Get("/contact", public.GetContact)
		r.Get("/popup", public.GetPopup)
		r.Post("/bookings", public.CreateBooking)
		r.Post("/track", public.Track)

		r.Group(func(r chi.Router) {
			if cfg.LoginProtection != nil {
				r.Use(cfg.LoginProtection.Middleware())
			}
			r.Post("/login", authH.Login)
			r.Post("/signup", authH.Signup)
		})
		r.Post("/logout", authH.Logout)
		r.Get("/me", authH.Me)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.SessionManager))
		r.Use(middleware.LoadUser(cfg.SessionManager, cfg.DB))
		r.Use(middleware.RequireAdmin())
		r.Mount("/", admin.Routes())
	})

	// Processed gallery files
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
	r.Get("/uploads/*", func(w http.ResponseWriter, req *http.Request) {
		fileServer.ServeHTTP(w, req)
	})

	return r
}
