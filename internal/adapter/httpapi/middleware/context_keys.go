package middleware

import (
	"context"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
)

// ContextKey is a private type for request context keys.
type ContextKey string

const UserIDCtxKey = ContextKey("user_id")

// UserID returns the authenticated caller, if any.
func UserID(ctx context.Context) (domain.ID, bool) {
	id, ok := ctx.Value(UserIDCtxKey).(domain.ID)
	return id, ok && !id.IsZero()
}

func WithUserID(ctx context.Context, id domain.ID) context.Context {
	return context.WithValue(ctx, UserIDCtxKey, id)
}
