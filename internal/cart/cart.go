package cart

import (
	"context"
	"errors"
	"time"

	cartDatamodel "github.com/frahmantamala/storefront/internal/core/datamodel/cart"
	"github.com/frahmantamala/storefront/internal/item"
)

// ErrNotFound is returned by repositories when no cart line matches.
var ErrNotFound = errors.New("cart: not found")

type CartItem struct {
	ID        string     `json:"id"`
	Quantity  int        `json:"quantity"`
	ItemID    string     `json:"itemId"`
	UserID    string     `json:"userId"`
	Item      *item.Item `json:"item,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Repository is the data access contract for cart lines.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]*cartDatamodel.CartItem, error)
	GetByID(ctx context.Context, id string) (*cartDatamodel.CartItem, error)
	// AddOrIncrement creates the (user, item) line with quantity 1, or bumps its quantity.
	AddOrIncrement(ctx context.Context, userID, itemID string) (*cartDatamodel.CartItem, error)
	Delete(ctx context.Context, id string) error
}

// ItemLookup is the part of the catalog the cart depends on.
type ItemLookup interface {
	GetItem(ctx context.Context, id string) (*item.Item, error)
}

func FromDataModel(c *cartDatamodel.CartItem) *CartItem {
	out := &CartItem{
		ID:        c.ID,
		Quantity:  c.Quantity,
		ItemID:    c.ItemID,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Item != nil {
		out.Item = item.FromDataModel(c.Item)
	}
	return out
}

func FromDataModelSlice(lines []*cartDatamodel.CartItem) []*CartItem {
	result := make([]*CartItem, len(lines))
	for i, c := range lines {
		result[i] = FromDataModel(c)
	}
	return result
}
