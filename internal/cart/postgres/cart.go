package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/storefront/internal/cart"
	"github.com/frahmantamala/storefront/internal/core/common/dberr"
	cartDatamodel "github.com/frahmantamala/storefront/internal/core/datamodel/cart"
	"github.com/google/uuid"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) cart.Repository {
	return &CartRepository{db: db}
}

func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]*cartDatamodel.CartItem, error) {
	var lines []*cartDatamodel.CartItem
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, oops.Code("CART_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	return lines, nil
}

func (r *CartRepository) GetByID(ctx context.Context, id string) (*cartDatamodel.CartItem, error) {
	var line cartDatamodel.CartItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&line).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, cart.ErrNotFound
		}
		return nil, oops.Code("CART_LOAD_FAILED").With("cart_item_id", id).Wrap(err)
	}
	return &line, nil
}

// AddOrIncrement retries once on a unique violation, which means a concurrent
// request created the same line first.
func (r *CartRepository) AddOrIncrement(ctx context.Context, userID, itemID string) (*cartDatamodel.CartItem, error) {
	line, err := r.addOrIncrement(ctx, userID, itemID)
	if err != nil && dberr.IsUniqueViolation(err) {
		line, err = r.addOrIncrement(ctx, userID, itemID)
	}
	if err != nil {
		return nil, oops.Code("CART_ADD_FAILED").With("user_id", userID).With("item_id", itemID).Wrap(err)
	}
	return line, nil
}

func (r *CartRepository) addOrIncrement(ctx context.Context, userID, itemID string) (*cartDatamodel.CartItem, error) {
	var line cartDatamodel.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND item_id = ?", userID, itemID).First(&line).Error
		switch {
		case err == nil:
			if err := tx.Model(&line).Update("quantity", gorm.Expr("quantity + ?", 1)).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", line.ID).First(&line).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = cartDatamodel.CartItem{
				ID:       uuid.NewString(),
				Quantity: 1,
				ItemID:   itemID,
				UserID:   userID,
			}
			return tx.Create(&line).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *CartRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&cartDatamodel.CartItem{})
	if res.Error != nil {
		return oops.Code("CART_DELETE_FAILED").With("cart_item_id", id).Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return cart.ErrNotFound
	}
	return nil
}
