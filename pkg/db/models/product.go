package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry with its own stock counter.
type Product struct {
	ID        int64            `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string           `gorm:"column:name;not null"`
	SKU       string           `gorm:"column:sku;not null;uniqueIndex"`
	Price     decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Stock     int              `gorm:"column:stock;not null;default:0"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is a priced option of a product (size, colour) with separate stock.
type ProductVariant struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID       int64           `gorm:"column:product_id;not null;index"`
	Name            string          `gorm:"column:name;not null"`
	Value           string          `gorm:"column:value;not null"`
	SKU             string          `gorm:"column:sku;not null;uniqueIndex"`
	PriceAdjustment decimal.Decimal `gorm:"column:price_adjustment;type:numeric(12,2);not null;default:0"`
	Stock           int             `gorm:"column:stock;not null;default:0"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
