package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/AchAffand/SuratJalan-sub001/internal/auth"
	"github.com/AchAffand/SuratJalan-sub001/internal/metrics"
	"github.com/AchAffand/SuratJalan-sub001/internal/permissions"
)

const claimsKey contextKey = "claims"

// ClaimsFromContext returns the authenticated user's claims, if any
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// Authenticate validates the bearer token and stores its claims in the
// request context
func (m *Middleware) Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				WriteError(w, ErrUnauthorized)
				return
			}

			claims, err := auth.ParseToken(jwtSecret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				m.logger.WithError(err).Debug("Token validation failed")
				WriteError(w, ErrUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability rejects requests whose role lacks the capability.
// Route gating is role-based only, menu overrides never grant or revoke
// capabilities.
func (m *Middleware) RequireCapability(cap permissions.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				WriteError(w, ErrUnauthorized)
				return
			}

			if !permissions.HasPermission(claims.Role, cap) {
				metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeHTTP)
				m.logger.WithFields(logrus.Fields{
					"username":   claims.Username,
					"role":       claims.Role,
					"capability": cap,
					"path":       r.URL.Path,
				}).Warn("Permission denied")
				WriteError(w, ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
