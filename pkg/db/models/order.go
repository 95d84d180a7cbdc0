package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is the immutable record produced by checkout. Only Status changes after creation.
type Order struct {
	ID                int64                `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber       string               `gorm:"column:order_number;not null;uniqueIndex"`
	UserID            int64                `gorm:"column:user_id;not null;index;uniqueIndex:ux_orders_user_idempotency,priority:1"`
	ShippingAddressID int64                `gorm:"column:shipping_address_id;not null"`
	BillingAddressID  int64                `gorm:"column:billing_address_id;not null"`
	Status            enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Subtotal          decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingCost      decimal.Decimal      `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0"`
	Tax               decimal.Decimal      `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	Discount          decimal.Decimal      `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total             decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	Notes             string               `gorm:"column:notes;type:text;not null;default:''"`
	IdempotencyKey    *string              `gorm:"column:idempotency_key;size:255;uniqueIndex:ux_orders_user_idempotency,priority:2"`
	Items             []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory     []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments          []Payment            `gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
