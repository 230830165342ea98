package item

import "time"

type Item struct {
	ID          string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description;not null"`
	Image       string    `gorm:"column:image"`
	LargeImage  string    `gorm:"column:large_image"`
	Price       int64     `gorm:"column:price;not null"`
	UserID      string    `gorm:"column:user_id;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Item) TableName() string {
	return "items"
}
