package enums

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregatePayment OutboxAggregateType = "payment"
)

var aggregateTypes = newSet("aggregate type", AggregateOrder, AggregatePayment)

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return aggregateTypes.parse(value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated         OutboxEventType = "order_created"
	EventOrderStatusChanged   OutboxEventType = "order_status_changed"
	EventPaymentCreated       OutboxEventType = "payment_created"
	EventPaymentStatusChanged OutboxEventType = "payment_status_changed"
)

var outboxEventTypes = newSet("event type",
	EventOrderCreated,
	EventOrderStatusChanged,
	EventPaymentCreated,
	EventPaymentStatusChanged,
)

func (e OutboxEventType) IsValid() bool { return outboxEventTypes.has(e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return outboxEventTypes.parse(value)
}

// OutboxEventTypes returns every known event type.
func OutboxEventTypes() []OutboxEventType { return outboxEventTypes.all() }
