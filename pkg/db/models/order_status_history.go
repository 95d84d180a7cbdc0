package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderStatusHistory is an append-only entry written for every status change.
type OrderStatusHistory struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64             `gorm:"column:order_id;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	Notes     string            `gorm:"column:notes;type:text;not null;default:''"`
	ChangedBy *int64            `gorm:"column:changed_by"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
