package cart

import (
	"context"
	"errors"
	"log/slog"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/auth"
	"github.com/frahmantamala/storefront/pkg/logger"
)

type ServiceAPI interface {
	GetCart(ctx context.Context) (*CartResponse, error)
	AddToCart(ctx context.Context, dto AddToCartDTO) (*CartItem, error)
	RemoveFromCart(ctx context.Context, id string) (*CartItem, error)
}

type Service struct {
	repo   Repository
	items  ItemLookup
	gate   *auth.Gate
	logger *slog.Logger
}

func NewService(repo Repository, items ItemLookup, gate *auth.Gate, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		items:  items,
		gate:   gate,
		logger: logger,
	}
}

func (s *Service) GetCart(ctx context.Context) (*CartResponse, error) {
	return auth.Guarded(ctx, s.gate, auth.Requirement{Action: "getCart"},
		func(ctx context.Context, principal *auth.User) (*CartResponse, error) {
			lines, err := s.repo.ListByUser(ctx, principal.ID)
			if err != nil {
				return nil, s.upstream("failed to load cart", err)
			}
			return NewCartResponse(FromDataModelSlice(lines)), nil
		})
}

// AddToCart puts one unit of an existing item into the caller's cart.
func (s *Service) AddToCart(ctx context.Context, dto AddToCartDTO) (*CartItem, error) {
	return auth.Guarded(ctx, s.gate, auth.Requirement{Action: "addToCart"},
		func(ctx context.Context, principal *auth.User) (*CartItem, error) {
			if err := dto.Validate(); err != nil {
				return nil, err
			}
			it, err := s.items.GetItem(ctx, dto.ItemID)
			if err != nil {
				return nil, err
			}

			line, err := s.repo.AddOrIncrement(ctx, principal.ID, it.ID)
			if err != nil {
				return nil, s.upstream("failed to add to cart", err)
			}

			s.logger.InfoContext(ctx, "cart updated", "user_id", principal.ID, "item_id", it.ID, "quantity", line.Quantity)
			out := FromDataModel(line)
			out.Item = it
			return out, nil
		})
}

// RemoveFromCart deletes a cart line. Only the line's owner may remove it.
func (s *Service) RemoveFromCart(ctx context.Context, id string) (*CartItem, error) {
	var current *CartItem
	req := auth.Requirement{
		Action: "removeFromCart",
		Owner: func(ctx context.Context) (string, error) {
			line, err := s.repo.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return "", errs.ErrCartItemNotFound
				}
				return "", s.upstream("failed to load cart line", err)
			}
			current = FromDataModel(line)
			return line.UserID, nil
		},
	}

	return auth.Guarded(ctx, s.gate, req, func(ctx context.Context, principal *auth.User) (*CartItem, error) {
		if err := s.repo.Delete(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, errs.ErrCartItemNotFound
			}
			return nil, s.upstream("failed to remove cart line", err)
		}
		s.logger.InfoContext(ctx, "cart line removed", "user_id", principal.ID, "cart_item_id", id)
		return current, nil
	})
}

func (s *Service) upstream(msg string, err error) error {
	logger.LogError(s.logger, msg, err)
	return errs.NewUpstreamError("The service is temporarily unavailable", err)
}
