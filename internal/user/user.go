package user

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/storefront/internal/core/permission"
)

var ErrNotFound = errors.New("user not found")

// User is the administrative view of a principal.
type User struct {
	ID          string                  `json:"id" db:"id"`
	Email       string                  `json:"email" db:"email"`
	Name        string                  `json:"name" db:"name"`
	Permissions []permission.Permission `json:"permissions" db:"-"`
	CreatedAt   time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at" db:"updated_at"`
}

type Repository interface {
	List(ctx context.Context) ([]*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// ReplacePermissions swaps the whole permission set of a user in one transaction.
	ReplacePermissions(ctx context.Context, id string, perms []permission.Permission) error
}
