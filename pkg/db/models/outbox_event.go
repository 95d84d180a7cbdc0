package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OutboxEvent is a domain event written in the same transaction as the change
// it describes. Rows leave the publish queue once published or parked.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:event_type_enum;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:aggregate_type_enum;not null;index:idx_outbox_events_aggregate,priority:1"`
	AggregateID   int64                     `gorm:"column:aggregate_id;not null;index:idx_outbox_events_aggregate,priority:2"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
	ParkedAt      *time.Time                `gorm:"column:parked_at"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

// Pending reports whether the publisher should still pick the row up.
func (e OutboxEvent) Pending() bool {
	return e.PublishedAt == nil && e.ParkedAt == nil
}
