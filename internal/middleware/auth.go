package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/indureport/indureportgo/internal/models"
	"github.com/indureport/indureportgo/internal/utils"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Auth verifies the Bearer JWT and stores the authenticated principal in the
// request context. Requests without a valid identity never reach any sync or
// report logic.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			// Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(parts[1], jwtSecret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			p := utils.PrincipalFromClaims(claims)
			if p.UserID == "" {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom extracts the authenticated principal from the context.
// The second return is false when the request was not authenticated.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(models.Principal)
	return p, ok
}

// WithPrincipal returns a context carrying the given principal. Used by
// tests and internal callers that bypass the HTTP layer.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// RequireRole rejects authenticated requests whose role ranks below the
// minimum. Admin passes every check.
func RequireRole(minimum models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}
			if !p.Role.AtLeast(minimum) {
				http.Error(w, "Insufficient role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
