package auth

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/storefront/internal/core/permission"
)

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("auth: not found")
	// ErrDuplicateEmail is returned by repositories on a unique violation of users.email.
	ErrDuplicateEmail = errors.New("auth: duplicate email")
)

// User is the principal: an identity that can hold a session and permissions.
type User struct {
	ID               string                  `json:"id"`
	Email            string                  `json:"email"`
	Name             string                  `json:"name"`
	PasswordHash     string                  `json:"-"`
	Permissions      []permission.Permission `json:"permissions"`
	ResetToken       *string                 `json:"-"`
	ResetTokenExpiry *time.Time              `json:"-"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

func (u *User) HasPermission(p permission.Permission) bool {
	if u == nil {
		return false
	}
	for _, held := range u.Permissions {
		if held == p {
			return true
		}
	}
	return false
}

// UserRepository is the persistence contract the session manager and reset flow consume.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	// ConsumeResetToken atomically replaces the password hash and clears both reset
	// fields of the user holding token, provided its expiry is not before cutoff.
	// It returns ErrNotFound when no row qualifies.
	ConsumeResetToken(ctx context.Context, token string, cutoff time.Time, passwordHash string) (*User, error)
	// FindByResetToken is a read-only lookup of a live token; ErrNotFound when none matches.
	FindByResetToken(ctx context.Context, token string, cutoff time.Time) (*User, error)
}
