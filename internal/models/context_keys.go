package models

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	// UserContextKey holds the authenticated user's ID in the request context.
	UserContextKey contextKey = "userID"
	// UsernameContextKey holds the authenticated user's username.
	UsernameContextKey contextKey = "username"
)

// GetUserIDFromContext extracts the user ID from the context. The second
// return value is false for anonymous requests.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserContextKey).(uuid.UUID)
	return userID, ok
}

// GetUsernameFromContext extracts the username from the context.
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameContextKey).(string)
	return username, ok
}
