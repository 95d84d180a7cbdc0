package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/idempotency"
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

// Service records payment attempts against a customer's orders.
type Service interface {
	Create(ctx context.Context, input Input) (*models.Payment, bool, error)
}

// Input is a request to pay an order in full.
type Input struct {
	UserID         int64
	OrderID        int64
	Method         string
	IdempotencyKey string
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.PaymentMetrics
	now     func() time.Time
}

func NewService(repo Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger, m *metrics.PaymentMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
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
	return &service{repo: repo, tx: tx, outbox: outbox, logg: logg, metrics: m, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input Input) (payment *models.Payment, created bool, err error) {
	started := s.now()
	ctx = s.logg.WithFields(ctx, map[string]any{
		"user_id":  input.UserID,
		"order_id": input.OrderID,
	})
	defer func() {
		elapsed := s.now().Sub(started)
		if err != nil {
			reason := pkgerrors.Reason(err)
			s.metrics.Failed(reason, elapsed)
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"event":  "payment.failed",
				"reason": reason,
				"error":  err.Error(),
			}), "payment.failed")
			return
		}
		s.metrics.Created(string(payment.PaymentMethod), created, elapsed)
		if created {
			s.logg.Info(s.logg.WithFields(s.logg.WithPaymentID(ctx, payment.ID), map[string]any{
				"event":          "payment.created",
				"transaction_id": payment.TransactionID,
				"amount":         payment.Amount.StringFixed(2),
				"payment_method": payment.PaymentMethod,
			}), "payment.created")
		}
	}()

	if input.UserID <= 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	method, perr := enums.ParsePaymentMethod(strings.TrimSpace(input.Method))
	if perr != nil {
		return nil, false, fieldError("payment_method", "invalid payment method", "invalid")
	}
	if input.OrderID <= 0 {
		return nil, false, orderNotFound()
	}
	key, err := idempotency.NormalizeKey(input.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}

	lookup := func(ctx context.Context, key string) (*models.Payment, bool, error) {
		existing, err := s.repo.FindByIdempotencyKey(ctx, input.UserID, key)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		return existing, true, nil
	}
	create := func(ctx context.Context) (*models.Payment, error) {
		return s.create(ctx, input, method, key)
	}
	return idempotency.CheckOrCreate[*models.Payment](ctx, key, lookup, create)
}

func (s *service) create(ctx context.Context, input Input, method enums.PaymentMethod, key string) (*models.Payment, error) {
	var result *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.LockOwnedOrder(ctx, input.OrderID, input.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return orderNotFound()
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		switch order.Status {
		case enums.OrderStatusCancelled:
			return fieldError("order", "cannot pay for a cancelled order", "order_cancelled")
		case enums.OrderStatusRefunded:
			return fieldError("order", "cannot pay for a refunded order", "order_refunded")
		}

		payment := &models.Payment{
			OrderID:       order.ID,
			UserID:        input.UserID,
			PaymentMethod: method,
			TransactionID: NewTransactionID(),
			Amount:        order.Total,
			Status:        enums.PaymentStatusPending,
		}
		if key != "" {
			payment.IdempotencyKey = &key
		}
		if _, err := repo.Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentCreated,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.PaymentCreatedEvent{
				PaymentID:     payment.ID,
				OrderID:       order.ID,
				UserID:        input.UserID,
				TransactionID: payment.TransactionID,
				Method:        method,
				Amount:        payment.Amount,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment event")
		}

		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// NewTransactionID returns a TX- prefixed identifier built from a random UUID.
func NewTransactionID() string {
	return "TX-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func orderNotFound() error {
	return fieldError("order", "order not found", "not_found")
}

func fieldError(field, message, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]string{"field": field, "reason": reason})
}
