// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import "net/http"

// StripTrailingSlash canonicalizes paths by redirecting "/classes/"
// to "/classes" with a 301. The root path is left alone and the query
// string survives the redirect.
func StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if len(p) < 2 || p[len(p)-1] != '/' {
			next.ServeHTTP(w, r)
			return
		}
		u := *r.URL
		u.Path = p[:len(p)-1]
		http.Redirect(w, r, u.String(), http.StatusMovedPermanently)
	})
}
