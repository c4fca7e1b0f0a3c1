package utils

import (
	"context"
	"net/http"

	"babumoshai/globals"
)

// WithUser stores the authenticated user's id and role on ctx.
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, globals.UserIDKey, userID)
	return context.WithValue(ctx, globals.RoleKey, role)
}

func GetUserIDFromRequest(r *http.Request) string {
	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

func GetRoleFromRequest(r *http.Request) string {
	role, _ := r.Context().Value(globals.RoleKey).(string)
	return role
}

func IsAdminRequest(r *http.Request) bool {
	return GetRoleFromRequest(r) == globals.RoleAdmin
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(globals.RequestIDKey).(string)
	return id
}
