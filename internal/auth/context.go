package auth

import (
	"context"

	"github.com/ayush/megaqc-web/internal/models"
)

type contextKey string

const (
	userKey    contextKey = "megaqc-current-user"
	sessionKey contextKey = "megaqc-session-id"
)

// WithUser attaches the authenticated user and its session id to ctx.
func WithUser(ctx context.Context, user *models.User, sid string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionKey, sid)
}

// UserFromContext returns the current user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// SessionFromContext returns the session id of the current user, if any.
func SessionFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey).(string)
	return sid
}
