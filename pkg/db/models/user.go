package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// User is the account read model owned by the identity service.
type User struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Email     string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Role      enums.UserRole `gorm:"column:role;type:user_role;not null;default:'customer'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
