package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem snapshots a cart line at checkout. Later catalog edits never touch it.
type OrderItem struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     int64           `gorm:"column:order_id;not null;index"`
	ProductID   int64           `gorm:"column:product_id;not null"`
	VariantID   *int64          `gorm:"column:variant_id"`
	ProductName string          `gorm:"column:product_name;not null"`
	VariantName *string         `gorm:"column:variant_name"`
	SKU         string          `gorm:"column:sku;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
