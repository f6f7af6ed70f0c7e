package middleware

import (
	"net/http"
	"strings"
)

// StripAPIPrefix makes every route reachable both with and without the /api
// prefix. Mobile client builds in the field call a mix of /sync and
// /api/sync, so both must keep working.
func StripAPIPrefix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" {
			r.URL.Path = "/"
		} else if strings.HasPrefix(r.URL.Path, "/api/") {
			r.URL.Path = strings.TrimPrefix(r.URL.Path, "/api")
		}
		next.ServeHTTP(w, r)
	})
}
