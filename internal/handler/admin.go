// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shaktiyoga/studio/internal/content"
	"github.com/shaktiyoga/studio/internal/entity"
	"github.com/shaktiyoga/studio/internal/media"
	"github.com/shaktiyoga/studio/internal/middleware"
	"github.com/shaktiyoga/studio/internal/model"
	"github.com/shaktiyoga/studio/internal/store"
	"github.com/shaktiyoga/studio/internal/transfer"
	"github.com/shaktiyoga/studio/internal/util"
	"github.com/shaktiyoga/studio/internal/visits"
)

// maxUploadBytes caps multipart gallery uploads.
const maxUploadBytes = 32 << 20 // 32MB

// AdminHandler serves the authenticated admin API.
type AdminHandler struct {
	registry *content.Registry
	queries  *store.Queries
	media    *media.Processor
	tracker  *visits.Tracker
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(registry *content.Registry, queries *store.Queries, proc *media.Processor, tracker *visits.Tracker, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		registry: registry,
		queries:  queries,
		media:    proc,
		tracker:  tracker,
		logger:   logger,
	}
}

// Routes mounts every admin endpoint. Callers wrap the returned router
// with authentication and role middleware.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	mountCollection(r, "/gallery", h.registry.Gallery, nil)
	mountCollection(r, "/articles", h.registry.Articles, func(a *model.Article) {
		if a.Slug == "" {
			a.Slug = util.Slugify(a.Title)
		}
	})
	mountCollection(r, "/bookings", h.registry.Bookings, func(b *model.Booking) {
		if b.Status == "" {
			b.Status = model.BookingStatusPending
		}
		b.Phone = util.NormalizePhone(b.Phone)
	})
	mountCollection(r, "/classes", h.registry.Classes, func(c *model.Class) {
		if c.Slug == "" {
			c.Slug = util.Slugify(c.Name)
		}
	})
	mountCollection(r, "/events", h.registry.Events, nil)
	mountCollection(r, "/instructors", h.registry.Instructors, nil)
	mountCollection(r, "/products", h.registry.Products, nil)
	mountCollection(r, "/programs", h.registry.Programs, nil)

	r.Post("/gallery/upload", h.UploadGalleryImage)
	r.Delete("/gallery/{id}/files", h.DeleteGalleryFiles)

	mountSingleton(r, "/about", h.registry.About)
	mountSingleton(r, "/contact", h.registry.Contact)
	mountSingleton(r, "/popup", h.registry.Popup)

	r.Get("/export", h.ExportContent)
	r.Post("/import", h.ImportContent)

	r.Get("/sync", h.SyncStatus)
	r.Post("/sync/replay", h.ReplayOutbox)
	r.Get("/visits", h.VisitsSummary)
	r.Get("/audit", h.AuditLog)

	r.Get("/users", h.ListUsers)
	r.Route("/users/{id}", func(r chi.Router) {
		r.Use(middleware.RequireRole(model.RoleSuperAdmin))
		r.Patch("/role", h.UpdateUserRole)
		r.Delete("/", h.DeleteUser)
	})

	return r
}

// mountCollection registers uniform CRUD routes for one collection
// entity. prepare runs before Create to fill derived fields.
func mountCollection[T any](r chi.Router, pattern string, svc *entity.Service[T], prepare func(*T)) {
	r.Route(pattern, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			writeJSONSuccess(w, map[string]any{
				"records": svc.GetAll(req.Context()),
			})
		})

		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var rec T
			if err := decodeJSON(req, &rec); err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			if prepare != nil {
				prepare(&rec)
			}
			created := svc.Create(req.Context(), rec)
			writeJSON(w, http.StatusCreated, map[string]any{
				"success": true,
				"record":  created,
			})
		})

		r.Patch("/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			if _, ok := svc.Get(req.Context(), id); !ok {
				writeJSONError(w, http.StatusNotFound, "Record not found")
				return
			}

			var fields map[string]any
			if err := decodeJSON(req, &fields); err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			delete(fields, "id") // identifiers are immutable

			svc.Update(req.Context(), id, fields)
			record, _ := svc.Get(req.Context(), id)
			writeJSONSuccess(w, map[string]any{"record": record})
		})

		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			svc.Delete(req.Context(), chi.URLParam(req, "id"))
			writeJSONSuccess(w, nil)
		})
	})
}

// mountSingleton registers Get/Save routes for one singleton entity.
func mountSingleton[T any](r chi.Router, pattern string, svc *entity.Singleton[T]) {
	r.Route(pattern, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			writeJSONSuccess(w, map[string]any{
				"record": svc.Get(req.Context()),
			})
		})

		r.Put("/", func(w http.ResponseWriter, req *http.Request) {
			var value T
			if err := decodeJSON(req, &value); err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			svc.Save(req.Context(), value)
			writeJSONSuccess(w, map[string]any{"record": value})
		})
	})
}

// UploadGalleryImage handles POST /api/admin/gallery/upload. The image
// is normalized, thumbnailed, and registered as a gallery record.
func (h *AdminHandler) UploadGalleryImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer func() { _ = file.Close() }()

	id := entity.NewID()
	result, err := h.media.Process(file, id, header.Filename)
	if err != nil {
		h.logger.Warn("gallery upload rejected", "filename", header.Filename, "error", err)
		writeJSONError(w, http.StatusUnprocessableEntity, "Could not process image: "+err.Error())
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = util.TitleFromSlug(util.Slugify(strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))))
	}

	image := h.registry.Gallery.Create(r.Context(), model.GalleryImage{
		ID:       id,
		Title:    title,
		URL:      uploadURL("originals", id, result.FilePath),
		ThumbURL: uploadURL("thumbs", id, result.ThumbPath),
		TakenAt:  result.TakenAt,
	})

	h.logger.Info("gallery image uploaded", "category", "content",
		"id", id, "size", result.Size, "width", result.Width, "height", result.Height)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"record":  image,
	})
}

// DeleteGalleryFiles handles DELETE /api/admin/gallery/{id}/files -
// removes the stored original and thumbnail after the record is gone.
func (h *AdminHandler) DeleteGalleryFiles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.media.Delete(id); err != nil {
		h.logger.Warn("deleting gallery files failed", "id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Could not delete image files")
		return
	}
	writeJSONSuccess(w, nil)
}

// uploadURL maps a stored file to its public /uploads path.
func uploadURL(part, id, filePath string) string {
	return path.Join("/uploads", part, id, filepath.Base(filePath))
}

// ExportContent handles GET /api/admin/export?bookings=true - streams
// a JSON backup of all site content.
func (h *AdminHandler) ExportContent(w http.ResponseWriter, r *http.Request) {
	opts := transfer.ExportOptions{
		IncludeBookings: r.URL.Query().Get("bookings") == "true",
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		`attachment; filename="studio-export-`+time.Now().UTC().Format("2006-01-02")+`.json"`)

	exporter := transfer.NewExporter(h.registry, h.logger)
	if err := exporter.WriteJSON(r.Context(), w, opts); err != nil {
		h.logger.Error("export failed", "error", err)
	}
}

// ImportContent handles POST /api/admin/import?skip_existing=true -
// loads a JSON backup back into the site.
func (h *AdminHandler) ImportContent(w http.ResponseWriter, r *http.Request) {
	opts := transfer.ImportOptions{
		SkipExisting: r.URL.Query().Get("skip_existing") == "true",
	}

	importer := transfer.NewImporter(h.registry, h.logger)
	stats, err := importer.ReadJSON(r.Context(), r.Body, opts)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Warn("content import applied", "category", "content",
		"created", stats.Created, "updated", stats.Updated, "skipped", stats.Skipped)
	writeJSONSuccess(w, map[string]any{"stats": stats})
}

// SyncStatus handles GET /api/admin/sync - the backlog of writes that
// only reached the local mirror. A non-zero count drives the
// "saved locally only" indicator in the admin UI.
func (h *AdminHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	pending := h.registry.Outbox.Pending(r.Context())

	type pendingWrite struct {
		Entity   string    `json:"entity"`
		Op       string    `json:"op"`
		RecordID string    `json:"record_id,omitempty"`
		QueuedAt time.Time `json:"queued_at"`
	}
	out := make([]pendingWrite, len(pending))
	for i, p := range pending {
		out[i] = pendingWrite{
			Entity:   p.Entity,
			Op:       p.Op,
			RecordID: p.RecordID,
			QueuedAt: p.QueuedAt,
		}
	}

	writeJSONSuccess(w, map[string]any{
		"pending": len(out),
		"writes":  out,
	})
}

// ReplayOutbox handles POST /api/admin/sync/replay - pushes the queued
// writes to the remote store without waiting for the scheduled job.
func (h *AdminHandler) ReplayOutbox(w http.ResponseWriter, r *http.Request) {
	replayed := h.registry.Outbox.Replay(r.Context())
	writeJSONSuccess(w, map[string]any{
		"replayed":  replayed,
		"remaining": h.registry.Outbox.Count(r.Context()),
	})
}

// VisitsSummary handles GET /api/admin/visits?hours=24.
func (h *AdminHandler) VisitsSummary(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 24*365 {
			writeJSONError(w, http.StatusBadRequest, "Invalid hours parameter")
			return
		}
		hours = parsed
	}

	summary, err := h.tracker.Summarize(r.Context(), time.Duration(hours)*time.Hour, 10)
	if err != nil {
		h.logger.Error("summarizing visits failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Could not load visit summary")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"total":     summary.Total,
		"top_pages": summary.TopPages,
		"devices":   summary.Devices,
		"browsers":  summary.Browsers,
	})
}

// AuditLog handles GET /api/admin/audit?limit=50.
func (h *AdminHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed <= 0 || parsed > 500 {
			writeJSONError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	entries, err := h.queries.ListRecentAuditEntries(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing audit entries failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Could not load audit log")
		return
	}

	writeJSONSuccess(w, map[string]any{"entries": entries})
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.queries.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("listing users failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Could not load users")
		return
	}

	out := make([]map[string]any, len(users))
	for i, u := range users {
		out[i] = userResponse(u)
	}
	writeJSONSuccess(w, map[string]any{"users": out})
}

// UpdateUserRoleRequest is the body of PATCH /api/admin/users/{id}/role.
type UpdateUserRoleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole handles PATCH /api/admin/users/{id}/role.
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req UpdateUserRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Role {
	case model.RoleUser, model.RoleAdmin, model.RoleSuperAdmin:
	default:
		writeJSONError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	if actor := middleware.GetUser(r); actor != nil && actor.ID == id {
		writeJSONError(w, http.StatusBadRequest, "Cannot change your own role")
		return
	}

	if err := h.queries.UpdateUserRole(r.Context(), id, req.Role); err != nil {
		h.logger.Error("updating user role failed", "user_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Could not update role")
		return
	}

	h.logger.Warn("user role changed", "category", "user",
		"user_id", id, "role", req.Role)
	writeJSONSuccess(w, nil)
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if actor := middleware.GetUser(r); actor != nil && actor.ID == id {
		writeJSONError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if err := h.queries.DeleteUser(r.Context(), id); err != nil {
		h.logger.Error("deleting user failed", "user_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Could not delete user")
		return
	}

	h.logger.Warn("user deleted", "category", "user", "user_id", id)
	writeJSONSuccess(w, nil)
}
