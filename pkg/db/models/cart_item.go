package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one (product, variant) line of a cart.
type CartItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CartID    int64           `gorm:"column:cart_id;not null;index;uniqueIndex:ux_cart_items_line,priority:1"`
	ProductID int64           `gorm:"column:product_id;not null;uniqueIndex:ux_cart_items_line,priority:2"`
	VariantID *int64          `gorm:"column:variant_id;uniqueIndex:ux_cart_items_line,priority:3"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// UnitPrice returns the live unit price of the line: the product price plus
// the variant adjustment, floored at zero. Product must be loaded.
func (c CartItem) UnitPrice() decimal.Decimal {
	if c.Product == nil {
		return decimal.Zero
	}
	price := c.Product.Price
	if c.Variant != nil {
		price = price.Add(c.Variant.PriceAdjustment)
	}
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// Subtotal returns UnitPrice multiplied by Quantity.
func (c CartItem) Subtotal() decimal.Decimal {
	return c.UnitPrice().Mul(decimal.NewFromInt(int64(c.Quantity)))
}
