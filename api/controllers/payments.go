package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	paymentsvc "github.com/angelmondragon/storefront-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type paymentRequest struct {
	OrderID        int64  `json:"order" validate:"required,min=1"`
	PaymentMethod  string `json:"payment_method" validate:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

// CreatePayment records a pending payment for the full order total.
func CreatePayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		key, err := validators.IdempotencyKey(r, payload.IdempotencyKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, created, err := svc.Create(r.Context(), paymentsvc.Input{
			UserID:         userID,
			OrderID:        payload.OrderID,
			Method:         payload.PaymentMethod,
			IdempotencyKey: key,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteCreated(w, created, orders.NewPaymentDTO(*payment))
	}
}
