package enums

// PaymentStatus tracks the lifecycle of a recorded payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var paymentStatuses = newSet("payment status",
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusCancelled,
	PaymentStatusRefunded,
)

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool { return paymentStatuses.has(p) }

func ParsePaymentStatus(value string) (PaymentStatus, error) { return paymentStatuses.parse(value) }
