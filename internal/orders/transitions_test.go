package orders

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestCanTransitionTable(t *testing.T) {
	allowed := map[enums.OrderStatus][]enums.OrderStatus{
		enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
		enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
		enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
		enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	}

	for _, from := range enums.OrderStatuses() {
		want := map[enums.OrderStatus]bool{}
		for _, to := range allowed[from] {
			want[to] = true
		}
		for _, to := range enums.OrderStatuses() {
			if got := CanTransition(from, to); got != want[to] {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want[to])
			}
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, status := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled, enums.OrderStatusRefunded} {
		if got := AllowedTransitions(status); len(got) != 0 {
			t.Fatalf("expected %s to be terminal, got %v", status, got)
		}
	}
}

func TestCanCancel(t *testing.T) {
	cases := map[enums.OrderStatus]bool{
		enums.OrderStatusPending:    true,
		enums.OrderStatusConfirmed:  true,
		enums.OrderStatusProcessing: true,
		enums.OrderStatusShipped:    false,
		enums.OrderStatusDelivered:  false,
		enums.OrderStatusCancelled:  false,
		enums.OrderStatusRefunded:   false,
		enums.OrderStatus("lost"):   false,
	}
	for status, want := range cases {
		if got := CanCancel(status); got != want {
			t.Fatalf("CanCancel(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestCascadeTarget(t *testing.T) {
	if next, ok := cascadeTarget(enums.OrderStatusCancelled, enums.PaymentStatusCompleted); ok {
		t.Fatalf("completed payments survive cancellation, got %s", next)
	}
	if next, ok := cascadeTarget(enums.OrderStatusCancelled, enums.PaymentStatusPending); !ok || next != enums.PaymentStatusCancelled {
		t.Fatalf("pending payments are cancelled, got %s %v", next, ok)
	}
	if _, ok := cascadeTarget(enums.OrderStatusShipped, enums.PaymentStatusPending); ok {
		t.Fatal("shipping does not touch payments")
	}
}
