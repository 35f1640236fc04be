// Package middleware provides HTTP middleware for the context API.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jharjadi/pro-rag/context-api-go/internal/service"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	// ContextKeyTenantID is the context key for the authenticated tenant ID.
	ContextKeyTenantID contextKey = "tenant_id"
	// ContextKeyUserID is the context key for the authenticated user ID.
	ContextKeyUserID contextKey = "user_id"
	// ContextKeyRole is the context key for the authenticated user role.
	ContextKeyRole contextKey = "role"
)

// TenantHeader carries the tenant in dev mode.
const TenantHeader = "X-Tenant-ID"

// TenantIDFromContext extracts the tenant_id from the request context.
// Returns empty string if not present.
func TenantIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyTenantID).(string)
	return v
}

// UserIDFromContext extracts the user_id from the request context.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyUserID).(string)
	return v
}

// RoleFromContext extracts the role from the request context.
func RoleFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyRole).(string)
	return v
}

func withIdentity(ctx context.Context, tenantID, userID, role string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyTenantID, tenantID)
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	return context.WithValue(ctx, ContextKeyRole, role)
}

// AuthMiddleware validates JWT tokens and injects claims into the request context.
//
// When authEnabled=true a valid "Bearer <token>" Authorization header is
// required. When false (dev mode) the tenant comes from the X-Tenant-ID
// header or the tenant_id query parameter and the caller is treated as
// an admin.
func AuthMiddleware(authSvc *service.AuthService, authEnabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authEnabled {
				tenantID := r.Header.Get(TenantHeader)
				if tenantID == "" {
					tenantID = r.URL.Query().Get("tenant_id")
				}
				if tenantID == "" {
					writeAuthError(w, http.StatusBadRequest, "tenant_id is required (auth disabled mode)")
					return
				}
				next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), tenantID, "dev-user", "admin")))
				return
			}

			tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			switch {
			case r.Header.Get("Authorization") == "":
				writeAuthError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			case !ok:
				writeAuthError(w, http.StatusUnauthorized, "invalid Authorization header format (expected: Bearer <token>)")
				return
			case tokenStr == "":
				writeAuthError(w, http.StatusUnauthorized, "empty bearer token")
				return
			}

			claims, err := authSvc.VerifyToken(tokenStr)
			if err != nil {
				slog.Debug("JWT verification failed", "error", err)
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), claims.TenantID, claims.UserID, claims.Role)))
		})
	}
}

// RequireRole returns middleware that checks the user has one of the allowed roles.
// Must be used after AuthMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[RoleFromContext(r.Context())] {
				writeAuthError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	}); err != nil {
		slog.Error("failed to write auth error", "error", err)
	}
}
