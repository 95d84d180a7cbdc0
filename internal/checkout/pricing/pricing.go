// Package pricing computes order totals from locked catalog prices.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

const (
	ReasonDiscountExceedsTotal = "discount_exceeds_total"
	ReasonNegativeTotal        = "negative_total"
)

// Line is a priced quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal is UnitPrice times Quantity, rounded to currency.
func (l Line) Subtotal() decimal.Decimal {
	return money.Round(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

type Result struct {
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
}

type Details struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// InvalidPricingError is returned when the charge components cannot form a valid total.
func InvalidPricingError(reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid pricing").
		WithDetails(Details{Field: "discount", Reason: reason})
}

// Price sums the lines and applies shipping, tax and discount.
func Price(lines []Line, shipping, tax, discount decimal.Decimal) (Result, error) {
	subtotals := make([]decimal.Decimal, 0, len(lines))
	for _, line := range lines {
		subtotals = append(subtotals, line.Subtotal())
	}
	subtotal := money.Round(money.Sum(subtotals...))

	gross := money.Sum(subtotal, shipping, tax)
	if discount.GreaterThan(gross) {
		return Result{}, InvalidPricingError(ReasonDiscountExceedsTotal)
	}

	total := money.Round(gross.Sub(discount))
	if total.IsNegative() {
		return Result{}, InvalidPricingError(ReasonNegativeTotal)
	}

	return Result{
		Subtotal:     subtotal,
		ShippingCost: money.Round(shipping),
		Tax:          money.Round(tax),
		Discount:     money.Round(discount),
		Total:        total,
	}, nil
}

// UnitPrice is the product price plus the variant adjustment, never below zero.
func UnitPrice(product models.Product, variant *models.ProductVariant) decimal.Decimal {
	price := product.Price
	if variant != nil {
		price = price.Add(variant.PriceAdjustment)
	}
	if price.IsNegative() {
		return money.Round(decimal.Zero)
	}
	return money.Round(price)
}
