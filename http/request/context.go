package request

import (
	"context"
	"net/http"

	"github.com/yomuhub/yomu/model"
)

type ContextKey int

const (
	ClientIPContextKey ContextKey = iota
	UserIDContextKey
	UserRoleContextKey
)

// WithClientIP stores the resolved client address on the request context.
func WithClientIP(r *http.Request, ip string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ClientIPContextKey, ip))
}

// WithUser stores the authenticated identity on the request context.
func WithUser(r *http.Request, userID int32, role model.Role) *http.Request {
	ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
	ctx = context.WithValue(ctx, UserRoleContextKey, role)
	return r.WithContext(ctx)
}

// ClientIP returns the client IP address stored in the context.
func ClientIP(r *http.Request) string {
	if v, ok := r.Context().Value(ClientIPContextKey).(string); ok {
		return v
	}
	return ""
}

// UserID returns the authenticated user ID, 0 for anonymous requests.
func UserID(r *http.Request) int32 {
	if v, ok := r.Context().Value(UserIDContextKey).(int32); ok {
		return v
	}
	return 0
}

// UserRole returns the authenticated role, defaulting to USER.
func UserRole(r *http.Request) model.Role {
	if v, ok := r.Context().Value(UserRoleContextKey).(model.Role); ok {
		return v
	}
	return model.RoleUser
}

// IsAuthenticated reports whether the request carries a signed-in user.
func IsAuthenticated(r *http.Request) bool {
	return UserID(r) != 0
}
