package middleware

import (
	"net/http"
)

func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent site from being embedded in frames (Clickjacking protection)
		w.Header().Set("X-Frame-Options", "DENY")

		// Prevent browsers from sniffing MIME types away from the declared Content-Type
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// JSON API only: nothing to load, nothing to embed
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none';")

		// Referrer policy: do not leak information to other sites
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Live positions go stale within a minute; never let intermediaries keep them
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}
