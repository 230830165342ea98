package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/storefront/internal/core/common/dberr"
	cartDatamodel "github.com/frahmantamala/storefront/internal/core/datamodel/cart"
	itemDatamodel "github.com/frahmantamala/storefront/internal/core/datamodel/item"
	"github.com/frahmantamala/storefront/internal/item"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

// ItemRepository implements the item.Repository interface using GORM
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) item.Repository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(ctx context.Context, it *itemDatamodel.Item) error {
	if err := r.db.WithContext(ctx).Create(it).Error; err != nil {
		return oops.Code("ITEM_CREATE_FAILED").With("user_id", it.UserID).Wrap(err)
	}
	return nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*itemDatamodel.Item, error) {
	var it itemDatamodel.Item
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&it).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, item.ErrNotFound
		}
		return nil, oops.Code("ITEM_LOAD_FAILED").With("item_id", id).Wrap(err)
	}
	return &it, nil
}

// List returns one page, newest first, with the total row count.
func (r *ItemRepository) List(ctx context.Context, limit, offset int) ([]*itemDatamodel.Item, int64, error) {
	var (
		items []*itemDatamodel.Item
		total int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Model(&itemDatamodel.Item{}).Count(&total).Error; err != nil {
		return nil, 0, oops.Code("ITEM_LIST_FAILED").Wrap(err)
	}
	err := db.Order("created_at DESC").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, oops.Code("ITEM_LIST_FAILED").Wrap(err)
	}
	return items, total, nil
}

func (r *ItemRepository) Update(ctx context.Context, it *itemDatamodel.Item) error {
	res := r.db.WithContext(ctx).
		Model(&itemDatamodel.Item{}).
		Where("id = ?", it.ID).
		Updates(map[string]interface{}{
			"title":       it.Title,
			"description": it.Description,
			"price":       it.Price,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return oops.Code("ITEM_UPDATE_FAILED").With("item_id", it.ID).Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return item.ErrNotFound
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&cartDatamodel.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&itemDatamodel.Item{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return item.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if err == item.ErrNotFound {
			return err
		}
		return oops.Code("ITEM_DELETE_FAILED").With("item_id", id).Wrap(err)
	}
	return nil
}
