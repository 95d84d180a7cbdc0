package helpers

import (
	"github.com/angelmondragon/storefront-backend/internal/checkout/pricing"
	"github.com/angelmondragon/storefront-backend/internal/checkout/reservation"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ReservationLines maps selected cart lines to stock requests.
func ReservationLines(items []models.CartItem) []reservation.Line {
	lines := make([]reservation.Line, len(items))
	for i, item := range items {
		lines[i] = reservation.Line{
			CartItemID: item.ID,
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			Quantity:   item.Quantity,
		}
	}
	return lines
}

// ItemIDs returns the ids of the given cart lines.
func ItemIDs(items []models.CartItem) []int64 {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

// SnapshotItems prices each cart line from the rows locked during reservation and
// returns the order item snapshots alongside the pricing lines they were built from.
// The locked rows must cover every line.
func SnapshotItems(items []models.CartItem, locked *reservation.Result) ([]models.OrderItem, []pricing.Line) {
	orderItems := make([]models.OrderItem, 0, len(items))
	priced := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		product, _ := locked.Product(item.ProductID)
		variant := locked.Variant(item.VariantID)

		line := pricing.Line{
			UnitPrice: pricing.UnitPrice(product, variant),
			Quantity:  item.Quantity,
		}
		priced = append(priced, line)

		snapshot := models.OrderItem{
			ProductID:   product.ID,
			VariantID:   item.VariantID,
			ProductName: product.Name,
			SKU:         product.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal(),
		}
		if variant != nil {
			name := variant.Name + ": " + variant.Value
			snapshot.VariantName = &name
			snapshot.SKU = variant.SKU
		}
		orderItems = append(orderItems, snapshot)
	}
	return orderItems, priced
}
