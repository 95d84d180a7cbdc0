package payments

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists payments and reads the orders they settle.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Payment, error)
	LockOwnedOrder(ctx context.Context, orderID, userID int64) (*models.Order, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Payment, error) {
	return first[models.Payment](r.db.WithContext(ctx).Where("user_id = ? AND idempotency_key = ?", userID, key))
}

// LockOwnedOrder loads the order with FOR UPDATE, scoped to the caller so foreign
// orders read as missing. Holding the row lock serializes payment creation with
// order status transitions, which take the same lock before cascading.
func (r *repository) LockOwnedOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	return first[models.Order](r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", orderID, userID))
}

func first[T any](q *gorm.DB) (*T, error) {
	var row T
	if err := q.First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
