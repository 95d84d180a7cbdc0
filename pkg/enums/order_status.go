package enums

// OrderStatus tracks an order through fulfilment.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var orderStatuses = newSet("order status",
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
)

// OrderStatuses returns every known status in lifecycle order.
func OrderStatuses() []OrderStatus { return orderStatuses.all() }

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) IsValid() bool { return orderStatuses.has(s) }

// IsTerminal reports whether no further transition can leave the status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

func ParseOrderStatus(value string) (OrderStatus, error) { return orderStatuses.parse(value) }
