package user

import "time"

type User struct {
	ID               string           `gorm:"column:id;primaryKey;type:varchar(36)"`
	Email            string           `gorm:"column:email;uniqueIndex;not null"`
	Name             string           `gorm:"column:name;not null"`
	PasswordHash     string           `gorm:"column:password_hash;not null"`
	ResetToken       *string          `gorm:"column:reset_token;uniqueIndex"`
	ResetTokenExpiry *time.Time       `gorm:"column:reset_token_expiry"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	Permissions      []UserPermission `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

type UserPermission struct {
	UserID     string    `gorm:"column:user_id;primaryKey;type:varchar(36)"`
	Permission string    `gorm:"column:permission;primaryKey;type:varchar(32)"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}
