// Package middleware provides HTTP middleware for the chat API.
package middleware

import "net/http"

// defaultOrigins are always allowed: local frontend dev servers and the
// production site.
var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"https://rids.cl",
	"https://www.rids.cl",
}

// AllowedOrigins returns the CORS allow-list, with extra appended when
// non-empty and not already present.
func AllowedOrigins(extra string) []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)
	if extra == "" {
		return origins
	}
	for _, o := range origins {
		if o == extra {
			return origins
		}
	}
	return append(origins, extra)
}

// CORS returns middleware that handles CORS headers for the allow-list.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
