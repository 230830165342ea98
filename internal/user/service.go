package user

import (
	"context"
	"errors"
	"log/slog"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/auth"
	"github.com/frahmantamala/storefront/internal/core/events"
	"github.com/frahmantamala/storefront/internal/core/permission"
	"github.com/frahmantamala/storefront/pkg/logger"
)

type ServiceAPI interface {
	ListUsers(ctx context.Context) (*UsersResponse, error)
	UpdatePermissions(ctx context.Context, id string, dto UpdatePermissionsDTO) (*User, error)
}

// adminPermissions may read the user list and change grants.
var adminPermissions = []permission.Permission{permission.Admin, permission.PermissionUpdate}

type Service struct {
	repo      Repository
	gate      *auth.Gate
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, gate *auth.Gate, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		gate:      gate,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) ListUsers(ctx context.Context) (*UsersResponse, error) {
	return auth.Guarded(ctx, s.gate, auth.Requirement{Action: "listUsers", AnyOf: adminPermissions},
		func(ctx context.Context, _ *auth.User) (*UsersResponse, error) {
			users, err := s.repo.List(ctx)
			if err != nil {
				return nil, s.upstream("failed to list users", err)
			}
			return &UsersResponse{Users: users}, nil
		})
}

// UpdatePermissions replaces the grants of user id with the requested set.
func (s *Service) UpdatePermissions(ctx context.Context, id string, dto UpdatePermissionsDTO) (*User, error) {
	return auth.Guarded(ctx, s.gate, auth.Requirement{Action: "updatePermissions", AnyOf: adminPermissions},
		func(ctx context.Context, principal *auth.User) (*User, error) {
			perms, err := dto.Parse()
			if err != nil {
				return nil, err
			}

			if err := s.repo.ReplacePermissions(ctx, id, perms); err != nil {
				if errors.Is(err, ErrNotFound) {
					return nil, errs.ErrUserNotFound
				}
				return nil, s.upstream("failed to update permissions", err)
			}

			updated, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return nil, s.upstream("failed to reload user", err)
			}

			s.logger.InfoContext(ctx, "permissions updated",
				"user_id", id,
				"granted_by", principal.ID,
				"permissions", permission.Strings(perms))
			if s.publisher != nil {
				event := events.NewUserEvent(events.EventTypePermissionsUpdated, id, map[string]interface{}{
					"granted_by":  principal.ID,
					"permissions": permission.Strings(perms),
				})
				if err := s.publisher.Publish(ctx, event); err != nil {
					s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
				}
			}
			return updated, nil
		})
}

func (s *Service) upstream(msg string, err error) error {
	logger.LogError(s.logger, msg, err)
	return errs.NewUpstreamError("The service is temporarily unavailable", err)
}
