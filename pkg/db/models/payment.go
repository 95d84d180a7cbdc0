package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Payment records a customer's attempt to settle an order. UserID mirrors the
// order owner so idempotency keys can be unique per user.
type Payment struct {
	ID             int64               `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID        int64               `gorm:"column:order_id;not null;index"`
	UserID         int64               `gorm:"column:user_id;not null;uniqueIndex:ux_payments_user_idempotency,priority:1"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	TransactionID  string              `gorm:"column:transaction_id;not null;uniqueIndex"`
	Amount         decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Status         enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	IdempotencyKey *string             `gorm:"column:idempotency_key;size:255;uniqueIndex:ux_payments_user_idempotency,priority:2"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
