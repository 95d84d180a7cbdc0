package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

type checkoutRequest struct {
	ItemIDs         []json.RawMessage `json:"item_ids"`
	ShippingAddress *int64            `json:"shipping_address"`
	BillingAddress  *int64            `json:"billing_address"`
	ShippingCost    money.Input       `json:"shipping_cost"`
	Tax             money.Input       `json:"tax"`
	Discount        money.Input       `json:"discount"`
	Notes           string            `json:"notes"`
	IdempotencyKey  string            `json:"idempotency_key"`
}

// Checkout turns the caller's cart (or a selection of its lines) into an order.
// A replayed idempotency key answers 200 with the original order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		key, err := validators.IdempotencyKey(r, payload.IdempotencyKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemIDs, err := cartsvc.ParseLineIDs(payload.ItemIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, created, err := svc.Checkout(r.Context(), checkoutsvc.Input{
			UserID:            userID,
			ItemIDs:           itemIDs,
			ShippingAddressID: payload.ShippingAddress,
			BillingAddressID:  payload.BillingAddress,
			ShippingCost:      payload.ShippingCost,
			Tax:               payload.Tax,
			Discount:          payload.Discount,
			Notes:             payload.Notes,
			IdempotencyKey:    key,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteCreated(w, created, orders.NewOrderDTO(order))
	}
}
