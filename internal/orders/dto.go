package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// StatusInput is a privileged request to move an order to a new status.
type StatusInput struct {
	OrderID     int64
	Status      string
	Notes       string
	ActorUserID int64
	ActorRole   string
}

// CancelInput is an owner's cancellation request.
type CancelInput struct {
	OrderID int64
	UserID  int64
	Notes   string
}

type OrderDTO struct {
	ID                int64              `json:"id"`
	OrderNumber       string             `json:"order_number"`
	UserID            int64              `json:"user_id"`
	Status            enums.OrderStatus  `json:"status"`
	ShippingAddressID int64              `json:"shipping_address_id"`
	BillingAddressID  int64              `json:"billing_address_id"`
	Subtotal          decimal.Decimal    `json:"subtotal"`
	ShippingCost      decimal.Decimal    `json:"shipping_cost"`
	Tax               decimal.Decimal    `json:"tax"`
	Discount          decimal.Decimal    `json:"discount"`
	Total             decimal.Decimal    `json:"total"`
	Notes             string             `json:"notes"`
	IdempotencyKey    *string            `json:"idempotency_key,omitempty"`
	Items             []OrderItemDTO     `json:"items"`
	StatusHistory     []StatusHistoryDTO `json:"status_history"`
	Payments          []PaymentDTO       `json:"payments"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type OrderItemDTO struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	VariantID   *int64          `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	VariantName *string         `json:"variant_name,omitempty"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type StatusHistoryDTO struct {
	Status    enums.OrderStatus `json:"status"`
	Notes     string            `json:"notes"`
	ChangedBy *int64            `json:"changed_by,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type PaymentDTO struct {
	ID             int64               `json:"id"`
	OrderID        int64               `json:"order_id"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	TransactionID  string              `json:"transaction_id"`
	Amount         decimal.Decimal     `json:"amount"`
	Status         enums.PaymentStatus `json:"status"`
	IdempotencyKey *string             `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// NewOrderDTO maps a loaded order (with associations) to its API shape.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		UserID:            order.UserID,
		Status:            order.Status,
		ShippingAddressID: order.ShippingAddressID,
		BillingAddressID:  order.BillingAddressID,
		Subtotal:          order.Subtotal,
		ShippingCost:      order.ShippingCost,
		Tax:               order.Tax,
		Discount:          order.Discount,
		Total:             order.Total,
		Notes:             order.Notes,
		IdempotencyKey:    order.IdempotencyKey,
		Items:             make([]OrderItemDTO, 0, len(order.Items)),
		StatusHistory:     make([]StatusHistoryDTO, 0, len(order.StatusHistory)),
		Payments:          make([]PaymentDTO, 0, len(order.Payments)),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	for _, entry := range order.StatusHistory {
		dto.StatusHistory = append(dto.StatusHistory, StatusHistoryDTO{
			Status:    entry.Status,
			Notes:     entry.Notes,
			ChangedBy: entry.ChangedBy,
			CreatedAt: entry.CreatedAt,
		})
	}
	for _, payment := range order.Payments {
		dto.Payments = append(dto.Payments, NewPaymentDTO(payment))
	}
	return dto
}

func NewPaymentDTO(payment models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:             payment.ID,
		OrderID:        payment.OrderID,
		PaymentMethod:  payment.PaymentMethod,
		TransactionID:  payment.TransactionID,
		Amount:         payment.Amount,
		Status:         payment.Status,
		IdempotencyKey: payment.IdempotencyKey,
		CreatedAt:      payment.CreatedAt,
	}
}
