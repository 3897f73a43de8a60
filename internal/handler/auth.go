// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/shaktiyoga/studio/internal/auth"
	"github.com/shaktiyoga/studio/internal/middleware"
	"github.com/shaktiyoga/studio/internal/model"
	"github.com/shaktiyoga/studio/internal/session"
	"github.com/shaktiyoga/studio/internal/store"
)

// AuthHandler handles authentication routes.
type AuthHandler struct {
	queries         *store.Queries
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
	logger          *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, sm *scs.SessionManager, lp *middleware.LoginProtection, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		queries:         store.New(db),
		sessionManager:  sm,
		loginProtection: lp,
		logger:          logger,
	}
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userResponse strips a user down to its public fields.
func userResponse(u model.User) map[string]any {
	return map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"role":     u.Role,
		"name":     u.Name,
	}
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
			h.logger.Warn("login attempt on locked account", "username", username)
			writeJSONError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Account locked. Try again in %s", formatDuration(remaining)))
			return
		}
	}

	user, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.logger.Warn("login failed: user not found", "username", username)
		} else {
			h.logger.Error("database error during login", "error", err)
		}
		// Record the failure even for unknown usernames to prevent
		// account enumeration via lockout behavior.
		h.recordFailure(w, username)
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		h.logger.Warn("login failed: bad credentials", "username", username)
		h.recordFailure(w, username)
		return
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, hashErr := auth.HashPassword(req.Password); hashErr == nil {
			if updErr := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash); updErr != nil {
				h.logger.Warn("password rehash failed", "user_id", user.ID, "error", updErr)
			}
		}
	}

	if err := session.Login(r.Context(), h.sessionManager, user); err != nil {
		h.logger.Error("session login failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(username)
	}
	if err := h.queries.TouchLastLogin(r.Context(), user.ID); err != nil {
		h.logger.Warn("updating last login failed", "user_id", user.ID, "error", err)
	}

	h.logger.Info("user logged in", "category", "auth", "username", username)
	writeJSONSuccess(w, map[string]any{"user": userResponse(user)})
}

// recordFailure records a failed attempt and writes the matching error.
func (h *AuthHandler) recordFailure(w http.ResponseWriter, username string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(username); locked {
			writeJSONError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Too many failed attempts. Try again in %s", formatDuration(lockDuration)))
			return
		}
	}
	writeJSONError(w, http.StatusUnauthorized, "Invalid username or password")
}

// SignupRequest is the body of POST /api/signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Signup handles POST /api/signup. New accounts always get the user
// role; admins are promoted from the user management screen.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if err := auth.ValidateUsername(username); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Signup failed")
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         model.RoleUser,
		Name:         strings.TrimSpace(req.Name),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		h.logger.Warn("signup failed", "username", username, "error", err)
		writeJSONError(w, http.StatusConflict, "Username or email already taken")
		return
	}

	if err := session.Login(r.Context(), h.sessionManager, user); err != nil {
		h.logger.Error("session login failed after signup", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Signup failed")
		return
	}

	h.logger.Info("user signed up", "category", "auth", "username", username)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    userResponse(user),
	})
}

// Logout handles POST /api/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	username := session.Username(r.Context(), h.sessionManager)
	if err := session.Logout(r.Context(), h.sessionManager); err != nil {
		h.logger.Error("logout failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	if username != "" {
		h.logger.Info("user logged out", "category", "auth", "username", username)
	}
	writeJSONSuccess(w, nil)
}

// Me handles GET /api/me - the current session's user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := session.UserID(r.Context(), h.sessionManager)
	if userID == 0 {
		writeJSONSuccess(w, map[string]any{
			"user": nil,
			"role": model.RoleGuest,
		})
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), userID)
	if err != nil {
		writeJSONSuccess(w, map[string]any{
			"user": nil,
			"role": model.RoleGuest,
		})
		return
	}

	writeJSONSuccess(w, map[string]any{
		"user": userResponse(user),
		"role": user.Role,
	})
}

// formatDuration renders a lockout duration for user-facing messages.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	return fmt.Sprintf("%.1f hours", d.Hours())
}
