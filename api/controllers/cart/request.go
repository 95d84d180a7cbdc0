package cart

import cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"

type addItemRequest struct {
	ProductID int64  `json:"product_id" validate:"required,min=1"`
	VariantID *int64 `json:"variant_id,omitempty" validate:"omitempty,min=1"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

func (p addItemRequest) toInput() cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ProductID: p.ProductID,
		VariantID: p.VariantID,
		Quantity:  p.Quantity,
	}
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}
