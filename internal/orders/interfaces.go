package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository defines persistence operations for orders and their payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error)
	FindDetail(ctx context.Context, orderID int64) (*models.Order, error)
	FindOwned(ctx context.Context, orderID, userID int64) (*models.Order, error)
	LockByID(ctx context.Context, orderID int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error
	ListPayments(ctx context.Context, orderID int64) ([]models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID int64, status enums.PaymentStatus) error
}
