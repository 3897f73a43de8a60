// Package middleware provides HTTP middleware for the studio API.
package middleware

import (
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"
)

// CSRFConfig configures the cross-site request forgery guard. The
// underlying check is based on Fetch metadata and Origin headers, so
// no token cookie is issued and non-browser clients pass untouched.
type CSRFConfig struct {
	// AuthKey is a 32-byte key; sharing the session secret is fine.
	AuthKey []byte

	// TrustedOrigins lists host[:port] values allowed to make
	// cross-origin requests.
	TrustedOrigins []string

	// ErrorHandler overrides the default JSON 403 response.
	ErrorHandler http.Handler
}

// DefaultCSRFConfig returns the guard configuration used by the
// server. Development mode trusts localhost so a separately-served
// frontend can talk to the API.
func DefaultCSRFConfig(authKey []byte, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if isDev {
		cfg.TrustedOrigins = []string{"localhost:8080", "127.0.0.1:8080"}
	}
	return cfg
}

// CSRF returns the request-forgery guard middleware.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	errh := cfg.ErrorHandler
	if errh == nil {
		errh = http.HandlerFunc(rejectCSRF)
	}

	opts := []csrf.Option{csrf.ErrorHandler(errh)}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

func rejectCSRF(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-origin request rejected",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"success":false,"error":"cross-origin request rejected"}`))
}

// SkipCSRF exempts exact request paths from the guard. The exempt
// endpoints carry their own protection: rate limits and Lax cookies.
func SkipCSRF(paths ...string) func(http.Handler) http.Handler {
	exempt := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		exempt[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exempt[r.URL.Path]; ok {
				r = csrf.UnsafeSkipCheck(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}
