package orders

import (
	"slices"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	ReasonInvalidStatus     = "invalid_status"
	ReasonNoOpTransition    = "no_op_transition"
	ReasonIllegalTransition = "illegal_transition"
	ReasonIllegalCancel     = "illegal_cancel"

	defaultCancelNote = "Cancelled by customer"
)

var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending: {
		enums.OrderStatusConfirmed,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusConfirmed: {
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
		enums.OrderStatusRefunded,
	},
	enums.OrderStatusProcessing: {
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
		enums.OrderStatusRefunded,
	},
	enums.OrderStatusShipped: {
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	},
}

// CanTransition reports whether an order in from may move to to.
func CanTransition(from, to enums.OrderStatus) bool {
	return slices.Contains(allowedTransitions[from], to)
}

// AllowedTransitions lists the statuses reachable from status.
func AllowedTransitions(status enums.OrderStatus) []enums.OrderStatus {
	return slices.Clone(allowedTransitions[status])
}

// CanCancel reports whether the owner may still cancel an order in status.
func CanCancel(status enums.OrderStatus) bool {
	// customers may not cancel once the parcel has left
	return status.IsValid() && !status.IsTerminal() && status != enums.OrderStatusShipped
}

// cascadeTarget returns the payment status applied when an order enters status, and
// whether a payment currently in from is affected.
func cascadeTarget(status enums.OrderStatus, from enums.PaymentStatus) (enums.PaymentStatus, bool) {
	switch status {
	case enums.OrderStatusConfirmed:
		return enums.PaymentStatusCompleted, from != enums.PaymentStatusCompleted
	case enums.OrderStatusCancelled:
		return enums.PaymentStatusCancelled, from == enums.PaymentStatusPending
	case enums.OrderStatusRefunded:
		return enums.PaymentStatusRefunded, from != enums.PaymentStatusRefunded
	}
	return "", false
}

type TransitionDetails struct {
	Reason string            `json:"reason"`
	From   enums.OrderStatus `json:"from,omitempty"`
	To     string            `json:"to,omitempty"`
}

func InvalidStatusError(raw string) error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", raw).
		WithDetails(TransitionDetails{Reason: ReasonInvalidStatus, To: raw})
}

func NoOpTransitionError(status enums.OrderStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, "order is already %s", status).
		WithDetails(TransitionDetails{Reason: ReasonNoOpTransition, From: status, To: string(status)})
}

func IllegalTransitionError(from, to enums.OrderStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot change status from %s to %s", from, to).
		WithDetails(TransitionDetails{Reason: ReasonIllegalTransition, From: from, To: string(to)})
}

func IllegalCancelError(from enums.OrderStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot cancel order with status %s", from).
		WithDetails(TransitionDetails{Reason: ReasonIllegalCancel, From: from, To: string(enums.OrderStatusCancelled)})
}
