package internal

import "context"

type ctxKey string

const ContextPrincipalIDKey ctxKey = "principalID"

// PrincipalIDFromContext returns the id of the signed-in principal, or "" for anonymous requests.
func PrincipalIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ContextPrincipalIDKey).(string); ok {
		return id
	}
	return ""
}

func ContextWithPrincipalID(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, ContextPrincipalIDKey, principalID)
}
