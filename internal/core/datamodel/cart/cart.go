package cart

import (
	"time"

	itemDatamodel "github.com/frahmantamala/storefront/internal/core/datamodel/item"
)

type CartItem struct {
	ID        string              `gorm:"column:id;primaryKey;type:varchar(36)"`
	Quantity  int                 `gorm:"column:quantity;not null;default:1"`
	ItemID    string              `gorm:"column:item_id;not null;uniqueIndex:idx_cart_items_user_item"`
	UserID    string              `gorm:"column:user_id;not null;uniqueIndex:idx_cart_items_user_item"`
	Item      *itemDatamodel.Item `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
