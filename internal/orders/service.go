package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes order reads and status changes.
type Service interface {
	Get(ctx context.Context, orderID, userID int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, input StatusInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.OrderMetrics
}

// NewService builds an order service with the required dependencies. Metrics may be nil.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox, logg: logg, metrics: m}, nil
}

func (s *service) Get(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindOwned(ctx, orderID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, input StatusInput) (*models.Order, error) {
	if input.ActorUserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	target, err := enums.ParseOrderStatus(strings.TrimSpace(input.Status))
	if err != nil {
		return nil, InvalidStatusError(input.Status)
	}

	change := transition{
		orderID: input.OrderID,
		to:      target,
		notes:   input.Notes,
		actor:   input.ActorUserID,
		role:    input.ActorRole,
		check: func(order *models.Order) error {
			if order.Status == target {
				return NoOpTransitionError(target)
			}
			if !CanTransition(order.Status, target) {
				return IllegalTransitionError(order.Status, target)
			}
			return nil
		},
	}
	return s.apply(ctx, change)
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	notes := strings.TrimSpace(input.Notes)
	if notes == "" {
		notes = defaultCancelNote
	}

	change := transition{
		orderID: input.OrderID,
		to:      enums.OrderStatusCancelled,
		notes:   notes,
		actor:   input.UserID,
		role:    string(enums.UserRoleCustomer),
		check: func(order *models.Order) error {
			if order.UserID != input.UserID {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			if !CanCancel(order.Status) {
				return IllegalCancelError(order.Status)
			}
			return nil
		},
	}
	return s.apply(ctx, change)
}

type transition struct {
	orderID int64
	to      enums.OrderStatus
	notes   string
	actor   int64
	role    string
	check   func(order *models.Order) error
}

type paymentChange struct {
	payment models.Payment
	from    enums.PaymentStatus
}

func (s *service) apply(ctx context.Context, change transition) (*models.Order, error) {
	if change.orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	var (
		order    *models.Order
		from     enums.OrderStatus
		payments []paymentChange
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		locked, err := repo.LockByID(ctx, change.orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err != nil {
			return lockError(err, "load order")
		}
		if err := change.check(locked); err != nil {
			return err
		}
		order = locked
		from = locked.Status

		if err := repo.UpdateStatus(ctx, order.ID, change.to); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		actor := change.actor
		if err := repo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    change.to,
			Notes:     change.notes,
			ChangedBy: &actor,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		payments, err = s.cascadePayments(ctx, repo, order.ID, change.to)
		if err != nil {
			return err
		}

		ref := &outbox.ActorRef{UserID: change.actor, Role: change.role}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         ref,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				OwnerUserID: order.UserID,
				OldStatus:   from,
				NewStatus:   change.to,
				Notes:       change.notes,
				ActorUserID: &actor,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order status event")
		}
		for _, pc := range payments {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentStatusChanged,
				AggregateType: enums.AggregatePayment,
				AggregateID:   pc.payment.ID,
				Actor:         ref,
				Data: payloads.PaymentStatusChangedEvent{
					PaymentID:     pc.payment.ID,
					OrderID:       order.ID,
					TransactionID: pc.payment.TransactionID,
					OldStatus:     pc.from,
					NewStatus:     pc.payment.Status,
				},
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment status event")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(from), string(change.to))
	s.logTransition(ctx, order, from, change, payments)

	updated, err := s.repo.FindDetail(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return updated, nil
}

func (s *service) cascadePayments(ctx context.Context, repo Repository, orderID int64, status enums.OrderStatus) ([]paymentChange, error) {
	payments, err := repo.ListPayments(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payments")
	}
	var changed []paymentChange
	for _, payment := range payments {
		next, ok := cascadeTarget(status, payment.Status)
		if !ok {
			continue
		}
		if err := repo.UpdatePaymentStatus(ctx, payment.ID, next); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		from := payment.Status
		payment.Status = next
		changed = append(changed, paymentChange{payment: payment, from: from})
	}
	return changed, nil
}

func (s *service) logTransition(ctx context.Context, order *models.Order, from enums.OrderStatus, change transition, payments []paymentChange) {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event":         "order.status_changed",
		"order_id":      order.ID,
		"order_number":  order.OrderNumber,
		"old_status":    from,
		"new_status":    change.to,
		"actor_user_id": change.actor,
		"owner_user_id": order.UserID,
	})
	s.logg.Info(logCtx, "order.status_changed")

	for _, pc := range payments {
		paymentCtx := s.logg.WithFields(ctx, map[string]any{
			"event":          "payment.status_changed",
			"payment_id":     pc.payment.ID,
			"order_id":       order.ID,
			"transaction_id": pc.payment.TransactionID,
			"old_status":     pc.from,
			"new_status":     pc.payment.Status,
			"actor_user_id":  change.actor,
		})
		s.logg.Info(paymentCtx, "payment.status_changed")
	}
}

func lockError(err error, message string) error {
	if db.IsLockContention(err) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order is busy, retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
