package middleware

import (
	"context"
	"net/http"
)

type contextKeyType string

const (
	userIDKey    contextKeyType = "user_id"
	roleKey      contextKeyType = "role"
	sessionIDKey contextKeyType = "session_id"
)

// Identity is what the session resolver knows about the caller.
type Identity struct {
	SessionID string
	UserID    string
	Role      string
}

// WithIdentity stores the caller identity in ctx. Empty fields are skipped.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if id.SessionID != "" {
		ctx = context.WithValue(ctx, sessionIDKey, id.SessionID)
	}
	if id.UserID != "" {
		ctx = context.WithValue(ctx, userIDKey, id.UserID)
	}
	if id.Role != "" {
		ctx = context.WithValue(ctx, roleKey, id.Role)
	}
	return ctx
}

// RequireUser rejects requests that carry no signed-in user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) == "" {
			writeJSONError(w, http.StatusUnauthorized, "SIGN_IN_REQUIRED", "sign in to continue")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole checks that the signed-in user has one of the given roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				writeJSONError(w, http.StatusUnauthorized, "SIGN_IN_REQUIRED", "sign in to continue")
				return
			}
			if _, ok := roleSet[RoleFromContext(r.Context())]; !ok {
				writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the user role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

// SessionIDFromContext extracts the session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}
