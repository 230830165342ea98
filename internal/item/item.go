package item

import (
	"context"
	"errors"
	"time"

	itemDatamodel "github.com/frahmantamala/storefront/internal/core/datamodel/item"
)

// ErrNotFound is returned by repositories when no item matches.
var ErrNotFound = errors.New("item: not found")

type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	LargeImage  string    `json:"largeImage,omitempty"`
	Price       int64     `json:"price"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository is the data access contract for catalog items.
type Repository interface {
	Create(ctx context.Context, item *itemDatamodel.Item) error
	GetByID(ctx context.Context, id string) (*itemDatamodel.Item, error)
	List(ctx context.Context, limit, offset int) ([]*itemDatamodel.Item, int64, error)
	Update(ctx context.Context, item *itemDatamodel.Item) error
	// Delete removes the item and every cart line referencing it.
	Delete(ctx context.Context, id string) error
}

func NewItem(ownerID string, dto CreateItemDTO) *Item {
	now := time.Now()
	return &Item{
		Title:       dto.Title,
		Description: dto.Description,
		Image:       dto.Image,
		LargeImage:  dto.LargeImage,
		Price:       dto.Price,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func ToDataModel(i *Item) *itemDatamodel.Item {
	return &itemDatamodel.Item{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Image:       i.Image,
		LargeImage:  i.LargeImage,
		Price:       i.Price,
		UserID:      i.UserID,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func FromDataModel(i *itemDatamodel.Item) *Item {
	return &Item{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Image:       i.Image,
		LargeImage:  i.LargeImage,
		Price:       i.Price,
		UserID:      i.UserID,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func FromDataModelSlice(items []*itemDatamodel.Item) []*Item {
	result := make([]*Item, len(items))
	for i, it := range items {
		result[i] = FromDataModel(it)
	}
	return result
}
