package cart

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// mutation runs one cart operation for the authenticated caller.
type mutation func(r *http.Request, svc cartsvc.Service, userID int64) (*models.Cart, error)

// handle resolves the caller and renders the resulting cart with status.
func handle(svc cartsvc.Service, logg *logger.Logger, status int, op mutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		record, err := op(r, svc, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, newCartResponse(record))
	}
}

// CartFetch returns the caller's cart, empty when none exists yet.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, http.StatusOK, func(r *http.Request, svc cartsvc.Service, userID int64) (*models.Cart, error) {
		return svc.Get(r.Context(), userID)
	})
}

// CartAddItem puts a product (and optional variant) in the cart, incrementing an existing line.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, http.StatusCreated, func(r *http.Request, svc cartsvc.Service, userID int64) (*models.Cart, error) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.AddItem(r.Context(), userID, payload.toInput())
	})
}

// CartUpdateItem sets a line quantity; zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, http.StatusOK, func(r *http.Request, svc cartsvc.Service, userID int64) (*models.Cart, error) {
		itemID, err := validators.PathInt64(r, "itemId")
		if err != nil {
			return nil, err
		}
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SetQuantity(r.Context(), userID, itemID, *payload.Quantity)
	})
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, http.StatusOK, func(r *http.Request, svc cartsvc.Service, userID int64) (*models.Cart, error) {
		itemID, err := validators.PathInt64(r, "itemId")
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), userID, itemID)
	})
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, http.StatusOK, func(r *http.Request, svc cartsvc.Service, userID int64) (*models.Cart, error) {
		return svc.Clear(r.Context(), userID)
	})
}
