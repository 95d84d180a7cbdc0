package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/addresses"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/internal/checkout/pricing"
	"github.com/angelmondragon/storefront-backend/internal/checkout/reservation"
	"github.com/angelmondragon/storefront-backend/internal/idempotency"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, lines []reservation.Line) (*reservation.Result, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, lines []reservation.Line) (*reservation.Result, error) {
	return reservation.Reserve(ctx, tx, lines)
}

// Service turns a cart selection into an order.
type Service interface {
	Checkout(ctx context.Context, input Input) (*models.Order, bool, error)
}

// Input captures a checkout request after transport decoding.
type Input struct {
	UserID            int64
	ItemIDs           []int64
	ShippingAddressID *int64
	BillingAddressID  *int64
	ShippingCost      money.Input
	Tax               money.Input
	Discount          money.Input
	Notes             string
	IdempotencyKey    string
}

// Deps groups the collaborators of the checkout service.
type Deps struct {
	Tx              txRunner
	Repo            Repository
	Carts           cart.CartRepository
	Orders          orders.Repository
	Addresses       *addresses.Repository
	Reservation     reservationRunner
	Outbox          outboxPublisher
	Logger          *logger.Logger
	Metrics         *metrics.CheckoutMetrics
	OrderMetrics    *metrics.OrderMetrics
	MaxChargeAmount decimal.Decimal
}

type service struct {
	tx           txRunner
	repo         Repository
	carts        cart.CartRepository
	orders       orders.Repository
	addresses    *addresses.Repository
	reservation  reservationRunner
	outbox       outboxPublisher
	logg         *logger.Logger
	metrics      *metrics.CheckoutMetrics
	orderMetrics *metrics.OrderMetrics
	maxCharge    decimal.Decimal
	now          func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if deps.Reservation == nil {
		deps.Reservation = reservationEngine{}
	}
	return &service{
		tx:           deps.Tx,
		repo:         deps.Repo,
		carts:        deps.Carts,
		orders:       deps.Orders,
		addresses:    deps.Addresses,
		reservation:  deps.Reservation,
		outbox:       deps.Outbox,
		logg:         deps.Logger,
		metrics:      deps.Metrics,
		orderMetrics: deps.OrderMetrics,
		maxCharge:    deps.MaxChargeAmount,
		now:          time.Now,
	}, nil
}

// Checkout places an order for the selected cart lines. A request carrying an
// idempotency key that already produced an order returns that order with created=false.
func (s *service) Checkout(ctx context.Context, input Input) (order *models.Order, created bool, err error) {
	started := s.now()
	ctx = s.logg.WithUserID(ctx, input.UserID)
	s.metrics.Started()
	s.logg.Info(s.logg.WithField(ctx, "event", "checkout.started"), "checkout.started")

	defer func() {
		elapsed := s.now().Sub(started)
		if err != nil {
			s.recordFailure(ctx, err, elapsed)
			return
		}
		s.metrics.Completed(created, elapsed)
		if created {
			s.orderMetrics.OrderCreated()
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event":        "checkout.completed",
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"total":        order.Total.StringFixed(2),
			"created":      created,
			"duration_ms":  elapsed.Milliseconds(),
		}), "checkout.completed")
	}()

	if input.UserID <= 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	shippingID, billingID, err := helpers.ValidateAddressIDs(input.ShippingAddressID, input.BillingAddressID)
	if err != nil {
		return nil, false, err
	}
	charges, err := helpers.ValidateCharges(input.ShippingCost, input.Tax, input.Discount, s.maxCharge)
	if err != nil {
		return nil, false, err
	}
	notes, err := helpers.ValidateNotes(input.Notes)
	if err != nil {
		return nil, false, err
	}
	key, err := idempotency.NormalizeKey(input.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}

	req := placement{
		userID:     input.UserID,
		itemIDs:    input.ItemIDs,
		shippingID: shippingID,
		billingID:  billingID,
		charges:    charges,
		notes:      notes,
		key:        key,
	}
	lookup := func(ctx context.Context, key string) (*models.Order, bool, error) {
		existing, err := s.repo.FindReplay(ctx, input.UserID, key)
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		return existing, existing != nil, nil
	}
	create := func(ctx context.Context) (*models.Order, error) {
		return s.place(ctx, req)
	}
	return idempotency.CheckOrCreate[*models.Order](ctx, key, lookup, create)
}

type placement struct {
	userID     int64
	itemIDs    []int64
	shippingID int64
	billingID  int64
	charges    helpers.Charges
	notes      string
	key        string
}

func (s *service) place(ctx context.Context, req placement) (*models.Order, error) {
	var orderID int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)
		addrs := s.addresses.WithTx(tx)

		userCart, err := carts.FindByUser(ctx, req.userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		lines, err := carts.ListItems(ctx, userCart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
		}
		selected, err := cart.ResolveCheckoutLines(lines, req.itemIDs)
		if err != nil {
			return err
		}

		if err := ownAddress(ctx, addrs, req.shippingID, req.userID, "shipping_address"); err != nil {
			return err
		}
		if err := ownAddress(ctx, addrs, req.billingID, req.userID, "billing_address"); err != nil {
			return err
		}

		locked, err := s.reservation.Reserve(ctx, tx, helpers.ReservationLines(selected))
		if err != nil {
			return err
		}

		items, priced := helpers.SnapshotItems(selected, locked)
		totals, err := pricing.Price(priced, req.charges.ShippingCost, req.charges.Tax, req.charges.Discount)
		if err != nil {
			return err
		}

		order := &models.Order{
			OrderNumber:       helpers.NewOrderNumber(),
			UserID:            req.userID,
			ShippingAddressID: req.shippingID,
			BillingAddressID:  req.billingID,
			Status:            enums.OrderStatusPending,
			Subtotal:          totals.Subtotal,
			ShippingCost:      totals.ShippingCost,
			Tax:               totals.Tax,
			Discount:          totals.Discount,
			Total:             totals.Total,
			Notes:             req.notes,
		}
		if req.key != "" {
			key := req.key
			order.IdempotencyKey = &key
		}
		if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		if err := ordersRepo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    enums.OrderStatusPending,
			Notes:     "Order created",
			ChangedBy: &req.userID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create status history")
		}

		if _, err := carts.DeleteItems(ctx, userCart.ID, helpers.ItemIDs(selected)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume cart items")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: req.userID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      req.userID,
				Total:       order.Total,
				ItemCount:   len(items),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return order, nil
}

func ownAddress(ctx context.Context, addrs *addresses.Repository, id, userID int64, field string) error {
	_, err := addrs.FindOwned(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helpers.InvalidAddressError(field)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+field)
	}
	return nil
}

func (s *service) recordFailure(ctx context.Context, err error, elapsed time.Duration) {
	reason := FailureReason(err)
	s.metrics.Failed(reason, elapsed)

	fields := map[string]any{
		"event":       "checkout.failed",
		"reason":      reason,
		"duration_ms": elapsed.Milliseconds(),
	}
	typed := pkgerrors.As(err)
	if typed != nil {
		fields["error_code"] = typed.Code()
	}
	if details, ok := typed.Details().(reservation.ConflictDetails); ok {
		fields["failed_lines"] = details.Lines
		for _, line := range details.Lines {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"event":        "checkout.stock_insufficient",
				"cart_item_id": line.CartItemID,
				"product_id":   line.ProductID,
				"variant_id":   line.VariantID,
				"reason":       line.Reason,
				"requested":    line.Requested,
				"available":    line.Available,
			}), "checkout.stock_insufficient")
		}
	}

	logCtx := s.logg.WithFields(ctx, fields)
	if typed == nil || pkgerrors.MetadataFor(typed.Code()).HTTPStatus >= 500 {
		s.logg.Error(logCtx, "checkout.failed", err)
		return
	}
	s.logg.Warn(logCtx, "checkout.failed")
}

// FailureReason maps a checkout error to a low-cardinality metric label.
func FailureReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "internal"
	}
	switch details := typed.Details().(type) {
	case reservation.ConflictDetails:
		return details.Reason
	case cart.SelectionDetails:
		return details.Reason
	case pricing.Details:
		return details.Reason
	case helpers.AddressDetails:
		return details.Field + "_" + details.Reason
	case money.FieldError:
		return "invalid_" + details.Field
	case map[string]string:
		if details["reason"] != "" {
			return details["reason"]
		}
	}
	switch typed.Code() {
	case pkgerrors.CodeNotFound:
		return "cart_not_found"
	case pkgerrors.CodeDependency:
		return "dependency"
	}
	return "internal"
}
