package item

import (
	"context"
	"errors"
	"log/slog"
	"time"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/auth"
	"github.com/frahmantamala/storefront/internal/core/permission"
	"github.com/frahmantamala/storefront/pkg/logger"
	"github.com/google/uuid"
)

type ServiceAPI interface {
	ListItems(ctx context.Context, limit, offset int) (*ItemsResponse, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	CreateItem(ctx context.Context, dto CreateItemDTO) (*Item, error)
	UpdateItem(ctx context.Context, id string, dto UpdateItemDTO) (*Item, error)
	DeleteItem(ctx context.Context, id string) (*Item, error)
}

type Service struct {
	repo   Repository
	gate   *auth.Gate
	logger *slog.Logger
}

func NewService(repo Repository, gate *auth.Gate, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		gate:   gate,
		logger: logger,
	}
}

func (s *Service) ListItems(ctx context.Context, limit, offset int) (*ItemsResponse, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	rows, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, s.upstream("failed to list items", err)
	}

	return &ItemsResponse{
		Items:  FromDataModelSlice(rows),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (s *Service) GetItem(ctx context.Context, id string) (*Item, error) {
	return s.load(ctx, id)
}

// CreateItem requires a signed-in principal, who becomes the owner.
func (s *Service) CreateItem(ctx context.Context, dto CreateItemDTO) (*Item, error) {
	return auth.Guarded(ctx, s.gate, auth.Requirement{Action: "createItem"},
		func(ctx context.Context, principal *auth.User) (*Item, error) {
			if err := dto.Validate(); err != nil {
				return nil, err
			}

			it := NewItem(principal.ID, dto)
			it.ID = uuid.NewString()
			row := ToDataModel(it)
			if err := s.repo.Create(ctx, row); err != nil {
				return nil, s.upstream("failed to create item", err)
			}

			s.logger.InfoContext(ctx, "item created", "item_id", row.ID, "user_id", principal.ID, "price", row.Price)
			return FromDataModel(row), nil
		})
}

// UpdateItem is open to the owner and to holders of ADMIN or ITEMUPDATE.
func (s *Service) UpdateItem(ctx context.Context, id string, dto UpdateItemDTO) (*Item, error) {
	var current *Item
	req := auth.Requirement{
		Action: "updateItem",
		AnyOf:  []permission.Permission{permission.Admin, permission.ItemUpdate},
		Owner:  s.ownerOf(id, &current),
	}

	return auth.Guarded(ctx, s.gate, req, func(ctx context.Context, principal *auth.User) (*Item, error) {
		if err := dto.Validate(); err != nil {
			return nil, err
		}

		dto.Apply(current)
		current.UpdatedAt = time.Now()
		row := ToDataModel(current)
		if err := s.repo.Update(ctx, row); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, errs.ErrItemNotFound
			}
			return nil, s.upstream("failed to update item", err)
		}

		s.logger.InfoContext(ctx, "item updated", "item_id", id, "user_id", principal.ID)
		return FromDataModel(row), nil
	})
}

// DeleteItem is open to the owner and to holders of ADMIN or ITEMDELETE.
func (s *Service) DeleteItem(ctx context.Context, id string) (*Item, error) {
	var current *Item
	req := auth.Requirement{
		Action: "deleteItem",
		AnyOf:  []permission.Permission{permission.Admin, permission.ItemDelete},
		Owner:  s.ownerOf(id, &current),
	}

	return auth.Guarded(ctx, s.gate, req, func(ctx context.Context, principal *auth.User) (*Item, error) {
		if err := s.repo.Delete(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, errs.ErrItemNotFound
			}
			return nil, s.upstream("failed to delete item", err)
		}

		s.logger.InfoContext(ctx, "item deleted", "item_id", id, "user_id", principal.ID)
		return current, nil
	})
}

// ownerOf loads the item for the gate and keeps it in dst for the guarded body.
func (s *Service) ownerOf(id string, dst **Item) auth.OwnerFunc {
	return func(ctx context.Context) (string, error) {
		it, err := s.load(ctx, id)
		if err != nil {
			return "", err
		}
		*dst = it
		return it.UserID, nil
	}
}

func (s *Service) load(ctx context.Context, id string) (*Item, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errs.ErrItemNotFound
		}
		return nil, s.upstream("failed to load item", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) upstream(msg string, err error) error {
	logger.LogError(s.logger, msg, err)
	return errs.NewUpstreamError("The service is temporarily unavailable", err)
}
