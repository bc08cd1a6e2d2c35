// ABOUTME: Authentication context for tracking identity through request handlers
// ABOUTME: Provides WithUser/UserFromContext for propagating the user ID via context

package auth

import (
	"context"
)

// userContextKey is the key type for storing the user ID in context.Context.
type userContextKey struct{}

// WithUser returns a new context carrying the authenticated user ID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey{}, userID)
}

// UserFromContext returns the authenticated user ID, or "" if none.
func UserFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userContextKey{}).(string)
	return id
}
