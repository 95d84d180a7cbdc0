package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

type cartResponse struct {
	ID        int64              `json:"id,omitempty"`
	UserID    int64              `json:"user_id"`
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	CreatedAt *time.Time         `json:"created_at,omitempty"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}

type cartItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	VariantID   *int64          `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

func newCartResponse(record *models.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(record.Items))
	subtotals := make([]decimal.Decimal, 0, len(record.Items))
	count := 0
	for _, item := range record.Items {
		resp := cartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: money.Round(item.UnitPrice()),
			Subtotal:  money.Round(item.Subtotal()),
		}
		if item.Product != nil {
			resp.ProductName = item.Product.Name
		}
		if item.Variant != nil {
			resp.VariantName = item.Variant.Name + ": " + item.Variant.Value
		}
		items = append(items, resp)
		subtotals = append(subtotals, item.Subtotal())
		count += item.Quantity
	}

	out := cartResponse{
		ID:        record.ID,
		UserID:    record.UserID,
		Items:     items,
		ItemCount: count,
		Subtotal:  money.Round(money.Sum(subtotals...)),
	}
	if !record.CreatedAt.IsZero() {
		out.CreatedAt = &record.CreatedAt
		out.UpdatedAt = &record.UpdatedAt
	}
	return out
}
