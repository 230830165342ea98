package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/storefront/internal/auth"
	"github.com/frahmantamala/storefront/internal/core/common/dberr"
	userDatamodel "github.com/frahmantamala/storefront/internal/core/datamodel/user"
	"github.com/frahmantamala/storefront/internal/core/permission"
	"github.com/google/uuid"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ auth.UserRepository = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, user *auth.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	row := toRow(user)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Permissions").Create(row).Error; err != nil {
			return err
		}
		if len(row.Permissions) == 0 {
			return nil
		}
		return tx.Create(&row.Permissions).Error
	})
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return auth.ErrDuplicateEmail
		}
		return oops.Code("USER_CREATE_FAILED").With("email", user.Email).Wrap(err)
	}

	*user = *toDomain(row)
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*auth.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *Repository) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_token":        token,
			"reset_token_expiry": expiresAt.UTC(),
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return oops.Code("RESET_TOKEN_STORE_FAILED").With("user_id", userID).Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// ConsumeResetToken matches and clears the token in one conditional update, so two
// concurrent completions with the same token cannot both succeed.
func (r *Repository) ConsumeResetToken(ctx context.Context, token string, cutoff time.Time, passwordHash string) (*auth.User, error) {
	var consumed, updated userDatamodel.User

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reset_token = ? AND reset_token_expiry >= ?", token, cutoff.UTC()).
			First(&consumed).Error; err != nil {
			if dberr.IsNotFound(err) {
				return auth.ErrNotFound
			}
			return err
		}

		res := tx.Model(&userDatamodel.User{}).
			Where("id = ? AND reset_token = ?", consumed.ID, token).
			Updates(map[string]interface{}{
				"password_hash":      passwordHash,
				"reset_token":        nil,
				"reset_token_expiry": nil,
				"updated_at":         time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return auth.ErrNotFound
		}

		// reload into a fresh row: gorm leaves non-nil pointer fields alone when the column is NULL
		return tx.Preload("Permissions").Where("id = ?", consumed.ID).First(&updated).Error
	})
	if err != nil {
		if err == auth.ErrNotFound {
			return nil, err
		}
		return nil, oops.Code("RESET_TOKEN_CONSUME_FAILED").Wrap(err)
	}

	return toDomain(&updated), nil
}

// FindByResetToken returns the user holding token when its expiry is not before cutoff.
// It does not consume the token.
func (r *Repository) FindByResetToken(ctx context.Context, token string, cutoff time.Time) (*auth.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("reset_token = ? AND reset_token_expiry >= ?", token, cutoff.UTC()).
		First(&row).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, auth.ErrNotFound
		}
		return nil, oops.Code("RESET_TOKEN_LOOKUP_FAILED").Wrap(err)
	}
	return toDomain(&row), nil
}

func (r *Repository) first(ctx context.Context, query string, arg interface{}) (*auth.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Preload("Permissions").Where(query, arg).First(&row).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, auth.ErrNotFound
		}
		return nil, oops.Code("USER_LOAD_FAILED").With("query", query).Wrap(err)
	}
	return toDomain(&row), nil
}

func toRow(u *auth.User) *userDatamodel.User {
	row := &userDatamodel.User{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		PasswordHash:     u.PasswordHash,
		ResetToken:       u.ResetToken,
		ResetTokenExpiry: u.ResetTokenExpiry,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	for _, p := range permission.Dedupe(u.Permissions) {
		row.Permissions = append(row.Permissions, userDatamodel.UserPermission{
			UserID:     u.ID,
			Permission: p.String(),
		})
	}
	return row
}

func toDomain(row *userDatamodel.User) *auth.User {
	u := &auth.User{
		ID:               row.ID,
		Email:            row.Email,
		Name:             row.Name,
		PasswordHash:     row.PasswordHash,
		ResetToken:       row.ResetToken,
		ResetTokenExpiry: row.ResetTokenExpiry,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
		Permissions:      make([]permission.Permission, 0, len(row.Permissions)),
	}
	for _, p := range row.Permissions {
		u.Permissions = append(u.Permissions, permission.Permission(p.Permission))
	}
	return u
}
