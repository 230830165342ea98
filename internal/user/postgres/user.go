package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/frahmantamala/storefront/internal/core/permission"
	"github.com/frahmantamala/storefront/internal/user"
	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"
)

// Queries are written with ? placeholders and rebound for the driver in use.
const (
	listUsersQuery   = `SELECT id, email, name, created_at, updated_at FROM users ORDER BY created_at ASC, id ASC`
	getUserQuery     = `SELECT id, email, name, created_at, updated_at FROM users WHERE id = ?`
	userExistsQuery  = `SELECT COUNT(1) FROM users WHERE id = ?`
	permsForQuery    = `SELECT user_id, permission FROM user_permissions WHERE user_id IN (?) ORDER BY permission`
	deletePermsQuery = `DELETE FROM user_permissions WHERE user_id = ?`
	insertPermQuery  = `INSERT INTO user_permissions (user_id, permission, created_at) VALUES (:user_id, :permission, :created_at)`
	touchUserQuery   = `UPDATE users SET updated_at = ? WHERE id = ?`
)

type permissionRow struct {
	UserID     string    `db:"user_id"`
	Permission string    `db:"permission"`
	CreatedAt  time.Time `db:"created_at"`
}

type Repository struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) user.Repository {
	return &Repository{db: db}
}

func (p *Repository) List(ctx context.Context) ([]*user.User, error) {
	var users []*user.User
	if err := p.db.SelectContext(ctx, &users, p.db.Rebind(listUsersQuery)); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").Wrap(err)
	}
	if err := p.attachPermissions(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (p *Repository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	if err := p.db.GetContext(ctx, &u, p.db.Rebind(getUserQuery), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, oops.Code("USER_LOAD_FAILED").With("user_id", id).Wrap(err)
	}
	if err := p.attachPermissions(ctx, []*user.User{&u}); err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *Repository) ReplacePermissions(ctx context.Context, id string, perms []permission.Permission) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return oops.Code("PERMISSION_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, tx.Rebind(userExistsQuery), id); err != nil {
		return oops.Code("PERMISSION_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}
	if count == 0 {
		return user.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(deletePermsQuery), id); err != nil {
		return oops.Code("PERMISSION_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}

	now := time.Now().UTC()
	if len(perms) > 0 {
		rows := make([]permissionRow, len(perms))
		for i, perm := range perms {
			rows[i] = permissionRow{UserID: id, Permission: perm.String(), CreatedAt: now}
		}
		if _, err := tx.NamedExecContext(ctx, insertPermQuery, rows); err != nil {
			return oops.Code("PERMISSION_UPDATE_FAILED").With("user_id", id).Wrap(err)
		}
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(touchUserQuery), now, id); err != nil {
		return oops.Code("PERMISSION_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return oops.Code("PERMISSION_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}
	return nil
}

func (p *Repository) attachPermissions(ctx context.Context, users []*user.User) error {
	if len(users) == 0 {
		return nil
	}

	ids := make([]string, len(users))
	byID := make(map[string]*user.User, len(users))
	for i, u := range users {
		ids[i] = u.ID
		u.Permissions = []permission.Permission{}
		byID[u.ID] = u
	}

	query, args, err := sqlx.In(permsForQuery, ids)
	if err != nil {
		return oops.Code("USER_PERMISSIONS_FAILED").Wrap(err)
	}

	var rows []permissionRow
	if err := p.db.SelectContext(ctx, &rows, p.db.Rebind(query), args...); err != nil {
		return oops.Code("USER_PERMISSIONS_FAILED").Wrap(err)
	}
	for _, row := range rows {
		if u, ok := byID[row.UserID]; ok {
			u.Permissions = append(u.Permissions, permission.Permission(row.Permission))
		}
	}
	return nil
}
