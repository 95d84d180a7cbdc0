package payloads

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when checkout commits a new order.
type OrderCreatedEvent struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      int64           `json:"user_id"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
}

// OrderStatusChangedEvent is emitted for every accepted status transition.
type OrderStatusChangedEvent struct {
	OrderID     int64             `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	OwnerUserID int64             `json:"owner_user_id"`
	OldStatus   enums.OrderStatus `json:"old_status"`
	NewStatus   enums.OrderStatus `json:"new_status"`
	Notes       string            `json:"notes,omitempty"`
	ActorUserID *int64            `json:"actor_user_id,omitempty"`
}

// PaymentCreatedEvent is emitted when a payment row is recorded.
type PaymentCreatedEvent struct {
	PaymentID     int64               `json:"payment_id"`
	OrderID       int64               `json:"order_id"`
	UserID        int64               `json:"user_id"`
	TransactionID string              `json:"transaction_id"`
	Method        enums.PaymentMethod `json:"payment_method"`
	Amount        decimal.Decimal     `json:"amount"`
}

// PaymentStatusChangedEvent is emitted for each payment touched by an order cascade.
type PaymentStatusChangedEvent struct {
	PaymentID     int64               `json:"payment_id"`
	OrderID       int64               `json:"order_id"`
	TransactionID string              `json:"transaction_id"`
	OldStatus     enums.PaymentStatus `json:"old_status"`
	NewStatus     enums.PaymentStatus `json:"new_status"`
}

// AggregateKey returns the id of the aggregate the event describes.
func (e OrderCreatedEvent) AggregateKey() int64 { return e.OrderID }

func (e OrderStatusChangedEvent) AggregateKey() int64 { return e.OrderID }

func (e PaymentCreatedEvent) AggregateKey() int64 { return e.PaymentID }

func (e PaymentStatusChangedEvent) AggregateKey() int64 { return e.PaymentID }
