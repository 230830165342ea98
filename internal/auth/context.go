package auth

import (
	"context"

	errs "github.com/frahmantamala/storefront/internal"
)

type ctxKey string

const (
	ContextUserKey         ctxKey = "principal"
	contextSessionErrorKey ctxKey = "sessionError"
)

// ContextWithUser stores the resolved principal for downstream handlers and services.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	ctx = context.WithValue(ctx, ContextUserKey, user)
	return errs.ContextWithPrincipalID(ctx, user.ID)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok && u != nil
}

// contextWithSessionError records why a presented credential was rejected, so gated
// operations can report it instead of a bare Unauthenticated.
func contextWithSessionError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, contextSessionErrorKey, err)
}

func sessionErrorFromContext(ctx context.Context) error {
	if err, ok := ctx.Value(contextSessionErrorKey).(error); ok {
		return err
	}
	return nil
}
