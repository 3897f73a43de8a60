// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/shaktiyoga/studio/internal/entity"
	"github.com/shaktiyoga/studio/internal/model"
	"github.com/shaktiyoga/studio/internal/session"
	"github.com/shaktiyoga/studio/internal/store"
	"github.com/shaktiyoga/studio/internal/version"
)

// Health check states. A reachable server with an unreachable remote
// store is degraded, not down: reads keep serving from the mirror and
// writes queue for replay.
const (
	stateHealthy   = "healthy"
	stateDegraded  = "degraded"
	stateUnhealthy = "unhealthy"
)

// minUploadSpace is the free-space floor below which the disk check
// degrades.
const minUploadSpace = 100 << 20 // 100MB

// HealthHandler serves /healthz and its liveness/readiness variants.
type HealthHandler struct {
	db         *sql.DB
	queries    *store.Queries
	sm         *scs.SessionManager
	outbox     *entity.Outbox
	uploadsDir string
	startTime  time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB, sm *scs.SessionManager, outbox *entity.Outbox, uploadsDir string) *HealthHandler {
	return &HealthHandler{
		db:         db,
		queries:    store.New(db),
		sm:         sm,
		outbox:     outbox,
		uploadsDir: uploadsDir,
		startTime:  time.Now(),
	}
}

// HealthStatusPublic is all an unauthenticated caller learns.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the full report, served to admins only.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check is one component's result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo is appended for admins asking ?verbose=true.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /healthz. Anonymous callers get the overall
// status word only; admins get per-component checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(r),
		"disk":     h.checkDiskSpace(),
		"sync":     h.checkSyncBacklog(r),
	}

	overall := stateHealthy
	for _, c := range checks {
		if c.Status != stateHealthy {
			overall = stateDegraded
			break
		}
	}

	// Only a dead remote store turns the status code; everything else
	// is survivable.
	code := http.StatusOK
	if checks["database"].Status == stateUnhealthy {
		code = http.StatusServiceUnavailable
	}

	if !h.isAdmin(r) {
		writeJSON(w, code, HealthStatusPublic{Status: overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   version.Version,
		Checks:    checks,
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = collectSystemInfo()
	}

	writeJSON(w, code, status)
}

// Liveness handles GET /healthz/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /healthz/ready. The mirror keeps reads
// serviceable with the database down, so readiness never returns 503;
// the body distinguishes ready from ready_degraded for operators.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ready"}
	if db := h.checkDatabase(r); db.Status != stateHealthy {
		resp["status"] = "ready_degraded"
		if h.isAdmin(r) {
			resp["message"] = db.Message
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// isAdmin reports whether the request carries an admin session. It
// must not panic when session data is absent from the context, hence
// the recover guard.
func (h *HealthHandler) isAdmin(r *http.Request) (admin bool) {
	if h.sm == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			admin = false
		}
	}()

	userID := session.UserID(r.Context(), h.sm)
	if userID <= 0 {
		return false
	}
	user, err := h.queries.GetUserByID(r.Context(), userID)
	return err == nil && model.RoleAtLeast(user.Role, model.RoleAdmin)
}

func (h *HealthHandler) checkDatabase(r *http.Request) Check {
	start := time.Now()
	err := h.db.PingContext(r.Context())
	latency := time.Since(start).String()

	if err != nil {
		return Check{Status: stateUnhealthy, Message: err.Error(), Latency: latency}
	}
	return Check{Status: stateHealthy, Message: "connected", Latency: latency}
}

func (h *HealthHandler) checkSyncBacklog(r *http.Request) Check {
	if h.outbox == nil {
		return Check{Status: stateHealthy, Message: "no outbox configured"}
	}
	if pending := h.outbox.Count(r.Context()); pending > 0 {
		return Check{
			Status:  stateDegraded,
			Message: fmt.Sprintf("%d writes pending replay", pending),
		}
	}
	return Check{Status: stateHealthy, Message: "no pending writes"}
}

func (h *HealthHandler) checkDiskSpace() Check {
	if _, err := os.Stat(h.uploadsDir); os.IsNotExist(err) {
		// Created lazily on first upload.
		return Check{Status: stateHealthy, Message: "uploads directory not created yet"}
	}

	var fs syscall.Statfs_t
	if err := syscall.Statfs(h.uploadsDir, &fs); err != nil {
		return Check{Status: stateUnhealthy, Message: "statfs failed: " + err.Error()}
	}

	free := fs.Bavail * uint64(fs.Bsize)
	if free < minUploadSpace {
		return Check{Status: stateDegraded, Message: "low disk space: " + formatBytes(free) + " available"}
	}
	return Check{Status: stateHealthy, Message: formatBytes(free) + " available"}
}

func collectSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n uint64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	val := float64(n)
	for _, unit := range []string{"KB", "MB", "GB", "TB"} {
		val /= 1024
		if val < 1024 || unit == "TB" {
			return fmt.Sprintf("%.2f %s", val, unit)
		}
	}
	return ""
}
