package auth

import "context"

type contextKey string

const userIDKey contextKey = "user_id"

// ContextWithUser attaches the authenticated account address to the context.
func ContextWithUser(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, userIDKey, address)
}

// UserIDFromContext returns the authenticated account address, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}
