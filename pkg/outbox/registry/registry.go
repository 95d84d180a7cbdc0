// Package registry routes outbox rows to Pub/Sub topics and checks that each
// stored payload still decodes into the type its event promises.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type keyedPayload interface {
	AggregateKey() int64
}

// EventDescriptor links an event type to its aggregate, topic and payload type.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	decode        func(json.RawMessage) (keyedPayload, error)
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the publisher should park a row instead of retrying it.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func nonRetryablef(format string, args ...any) NonRetryableError {
	return NonRetryableError{Err: fmt.Errorf(format, args...)}
}

func describe[T any, P interface {
	*T
	keyedPayload
}](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:     eventType,
		AggregateType: aggregate,
		Topic:         topic,
		decode: func(raw json.RawMessage) (keyedPayload, error) {
			payload := P(new(T))
			if err := json.Unmarshal(raw, payload); err != nil {
				return nil, err
			}
			return payload, nil
		},
	}
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, fmt.Errorf("orders topic is required")
	}
	if cfg.PaymentsTopic == "" {
		return nil, fmt.Errorf("payments topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	for _, desc := range []EventDescriptor{
		describe[payloads.OrderCreatedEvent](enums.EventOrderCreated, enums.AggregateOrder, cfg.OrdersTopic),
		describe[payloads.OrderStatusChangedEvent](enums.EventOrderStatusChanged, enums.AggregateOrder, cfg.OrdersTopic),
		describe[payloads.PaymentCreatedEvent](enums.EventPaymentCreated, enums.AggregatePayment, cfg.PaymentsTopic),
		describe[payloads.PaymentStatusChangedEvent](enums.EventPaymentStatusChanged, enums.AggregatePayment, cfg.PaymentsTopic),
	} {
		reg.entries[desc.EventType] = desc
	}
	for _, eventType := range enums.OutboxEventTypes() {
		if _, ok := reg.entries[eventType]; !ok {
			return nil, fmt.Errorf("event type %s has no descriptor", eventType)
		}
	}
	return reg, nil
}

// Topics returns the distinct topics referenced by the registry, in event type order.
func (r *EventRegistry) Topics() []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, eventType := range enums.OutboxEventTypes() {
		desc, ok := r.entries[eventType]
		if !ok {
			continue
		}
		if _, dup := seen[desc.Topic]; dup {
			continue
		}
		seen[desc.Topic] = struct{}{}
		out = append(out, desc.Topic)
	}
	return out
}

// Resolve validates the row against its envelope and decodes the typed payload.
// Every failure is non-retryable: the stored bytes will not change on a retry.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, nonRetryablef("unsupported event type %s", event.EventType)
	}
	if desc.AggregateType != event.AggregateType {
		return nil, nonRetryablef("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	}
	if event.AggregateID <= 0 {
		return nil, nonRetryablef("missing aggregate_id")
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, nonRetryablef("decode envelope: %w", err)
	}
	if envelope.Version > outbox.CurrentVersion {
		return nil, nonRetryablef("envelope version %d is newer than %d", envelope.Version, outbox.CurrentVersion)
	}
	// rows written before the envelope carried routing fields leave them empty
	if envelope.EventType != "" && envelope.EventType != event.EventType {
		return nil, nonRetryablef("envelope event type %s does not match row %s", envelope.EventType, event.EventType)
	}
	if envelope.AggregateID != 0 && envelope.AggregateID != event.AggregateID {
		return nil, nonRetryablef("envelope aggregate %d does not match row %d", envelope.AggregateID, event.AggregateID)
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nonRetryablef("payload missing for %s", event.EventType)
	}

	payload, err := desc.decode(envelope.Data)
	if err != nil {
		return nil, nonRetryablef("decode %s payload: %w", event.EventType, err)
	}
	if key := payload.AggregateKey(); key != event.AggregateID {
		return nil, nonRetryablef("%s payload references %s %d, row has %d", event.EventType, desc.AggregateType, key, event.AggregateID)
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}
