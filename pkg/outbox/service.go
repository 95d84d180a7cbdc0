package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CurrentVersion is the envelope version written by Emit when the event leaves it unset.
const CurrentVersion = 1

// aggregateByEvent pins every event type to the aggregate it describes.
var aggregateByEvent = map[enums.OutboxEventType]enums.OutboxAggregateType{
	enums.EventOrderCreated:         enums.AggregateOrder,
	enums.EventOrderStatusChanged:   enums.AggregateOrder,
	enums.EventPaymentCreated:       enums.AggregatePayment,
	enums.EventPaymentStatusChanged: enums.AggregatePayment,
}

type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   int64
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	want, ok := aggregateByEvent[e.EventType]
	if !ok {
		return fmt.Errorf("unknown outbox event type %q", e.EventType)
	}
	if e.AggregateType == "" {
		return nil
	}
	if e.AggregateType != want {
		return fmt.Errorf("event %s belongs to aggregate %s, got %s", e.EventType, want, e.AggregateType)
	}
	return nil
}

type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit stores the event in the caller's transaction so it commits or rolls back with the write it describes.
// An empty AggregateType is filled from the event type.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := event.validate(); err != nil {
		return err
	}
	if event.AggregateType == "" {
		event.AggregateType = aggregateByEvent[event.EventType]
	}
	if event.AggregateID <= 0 {
		return fmt.Errorf("event %s requires an aggregate id", event.EventType)
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal %s data: %w", event.EventType, err)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if event.Version == 0 {
		event.Version = CurrentVersion
	}

	eventID := uuid.New()
	envelope := PayloadEnvelope{
		Version:       event.Version,
		EventID:       eventID.String(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		OccurredAt:    event.OccurredAt,
		Actor:         event.Actor,
		Data:          data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event.EventType, err)
	}

	row := models.OutboxEvent{
		ID:            eventID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if s.logg != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"event_id":       envelope.EventID,
			"event_type":     event.EventType,
			"aggregate_id":   event.AggregateID,
			"aggregate_type": event.AggregateType,
		}), "outbox event queued")
	}
	return nil
}
