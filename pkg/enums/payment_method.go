package enums

// PaymentMethod describes how a customer settles an order.
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodPayPal         PaymentMethod = "paypal"
	PaymentMethodStripe         PaymentMethod = "stripe"
)

var paymentMethods = newSet("payment method",
	PaymentMethodCashOnDelivery,
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodPayPal,
	PaymentMethodStripe,
)

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return paymentMethods.has(p) }

func ParsePaymentMethod(value string) (PaymentMethod, error) { return paymentMethods.parse(value) }
