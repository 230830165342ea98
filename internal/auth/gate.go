package auth

import (
	"context"
	"log/slog"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/core/permission"
)

// OwnerFunc looks up the principal id that owns the resource an operation targets.
// Errors (for example NotFound) abort the operation unchanged.
type OwnerFunc func(ctx context.Context) (ownerID string, err error)

// Requirement parameterizes an access-gated operation.
//
// With no Owner, the principal needs one of AnyOf (or nothing beyond being signed in
// when AnyOf is empty). With an Owner, the principal passes when it owns the resource
// OR holds one of AnyOf; an empty AnyOf then means owner only.
type Requirement struct {
	Action string
	AnyOf  []permission.Permission
	Owner  OwnerFunc
}

type Gate struct {
	logger *slog.Logger
}

func NewGate(logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{logger: logger}
}

// Authorize runs every check of req and returns the principal when they all pass.
func (g *Gate) Authorize(ctx context.Context, req Requirement) (*User, error) {
	principal, ok := UserFromContext(ctx)
	if !ok {
		if sessionErr := sessionErrorFromContext(ctx); sessionErr != nil {
			return nil, sessionErr
		}
		g.logger.InfoContext(ctx, "access denied: not signed in", "action", req.Action)
		return nil, errs.ErrUnauthenticated
	}

	if req.Owner == nil {
		if err := HasPermission(principal, req.AnyOf...); err != nil {
			g.logger.WarnContext(ctx, "access denied: insufficient permissions",
				"action", req.Action,
				"user_id", principal.ID,
				"required_any_of", permission.Strings(req.AnyOf))
			return nil, err
		}
		return principal, nil
	}

	ownerID, err := req.Owner(ctx)
	if err != nil {
		return nil, err
	}
	if ownerID == principal.ID {
		return principal, nil
	}
	if len(req.AnyOf) > 0 && HasPermission(principal, req.AnyOf...) == nil {
		return principal, nil
	}

	g.logger.WarnContext(ctx, "access denied: not owner",
		"action", req.Action,
		"user_id", principal.ID,
		"override_any_of", permission.Strings(req.AnyOf))
	return nil, errs.ErrNotOwner
}

// Guarded runs fn only after every check of req has passed, so a denied call never
// reaches a mutation.
func Guarded[T any](ctx context.Context, g *Gate, req Requirement, fn func(ctx context.Context, principal *User) (T, error)) (T, error) {
	principal, err := g.Authorize(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return fn(ctx, principal)
}
