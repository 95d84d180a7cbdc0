package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role,omitempty"`
}

// PayloadEnvelope is the JSON document stored in outbox_events.payload and
// published verbatim. It repeats the routing columns so consumers can work
// from the message body alone.
type PayloadEnvelope struct {
	Version       int                       `json:"version"`
	EventID       string                    `json:"eventId"`
	EventType     enums.OutboxEventType     `json:"eventType"`
	AggregateType enums.OutboxAggregateType `json:"aggregateType"`
	AggregateID   int64                     `json:"aggregateId"`
	OccurredAt    time.Time                 `json:"occurredAt"`
	Actor         *ActorRef                 `json:"actor,omitempty"`
	Data          json.RawMessage           `json:"data"`
}

// DecodeEnvelope parses a stored payload and rejects versions newer than this build understands.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode outbox envelope: %w", err)
	}
	if env.Version < 1 || env.Version > CurrentVersion {
		return PayloadEnvelope{}, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	if !env.EventType.IsValid() {
		return PayloadEnvelope{}, fmt.Errorf("unknown event type %q", env.EventType)
	}
	return env, nil
}

// DecodeData unmarshals the event body into dest.
func (e PayloadEnvelope) DecodeData(dest any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("envelope %s has no data", e.EventID)
	}
	return json.Unmarshal(e.Data, dest)
}
