package checkout

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository reads back orders produced by checkout.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindReplay(ctx context.Context, userID int64, key string) (*models.Order, error)
	FindOrder(ctx context.Context, orderID int64) (*models.Order, error)
}

type repository struct {
	orders orders.Repository
}

// NewRepository builds a checkout repository on top of the orders repository.
func NewRepository(ordersRepo orders.Repository) Repository {
	return &repository{orders: ordersRepo}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{orders: r.orders.WithTx(tx)}
}

// FindReplay returns the order a user already placed under key, or nil when there is none.
func (r *repository) FindReplay(ctx context.Context, userID int64, key string) (*models.Order, error) {
	if key == "" {
		return nil, nil
	}
	order, err := r.orders.FindByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.orders.FindDetail(ctx, orderID)
}
