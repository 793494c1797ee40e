package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"nublack-orders/internal/auth"
	"nublack-orders/internal/metrics"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// extractToken reads the bearer token from a cookie or the Authorization
// header.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// Authenticate validates the JWT and stores the claims in the context.
func Authenticate(jwtSvc *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Message: "unauthorized"})
				return
			}
			claims, err := jwtSvc.ValidateToken(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Message: "invalid token"})
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards the privileged operations.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody{Message: "unauthorized"})
				return
			}
			if claims.Role != auth.RoleAdmin {
				writeJSON(w, http.StatusForbidden, errorBody{Message: "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Instrument records request latency per handler.
func Instrument(m *metrics.OrderMetrics, name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		m.HTTPDuration.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}
