package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl sets a Cache-Control header on GET responses. Responses for
// signed-in callers are marked private so shared caches never store them.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				scope := "public"
				if UserIDFromContext(r.Context()) != "" {
					scope = "private"
				}
				w.Header().Set("Cache-Control", fmt.Sprintf("%s, max-age=%d", scope, maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore marks responses as uncacheable. Used for cart and session routes.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
