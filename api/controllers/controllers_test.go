package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	paymentsvc "github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type stubCheckoutService struct {
	order   *models.Order
	created bool
	err     error
	input   checkoutsvc.Input
	calls   int
}

func (s *stubCheckoutService) Checkout(ctx context.Context, input checkoutsvc.Input) (*models.Order, bool, error) {
	s.calls++
	s.input = input
	return s.order, s.created, s.err
}

type stubPaymentService struct {
	payment *models.Payment
	created bool
	err     error
	input   paymentsvc.Input
}

func (s *stubPaymentService) Create(ctx context.Context, input paymentsvc.Input) (*models.Payment, bool, error) {
	s.input = input
	return s.payment, s.created, s.err
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), 7))
}

func TestCheckoutCreatedAndReplayStatus(t *testing.T) {
	svc := &stubCheckoutService{order: &models.Order{ID: 1, OrderNumber: "ORD-000000000001", Status: enums.OrderStatusPending}, created: true}
	handler := Checkout(svc, nil)

	body := `{"item_ids":[3,"4"],"shipping_address":10,"billing_address":11,"shipping_cost":"5.00","tax":2.5,"notes":"ring twice","idempotency_key":"abc"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, int64(7), svc.input.UserID)
	assert.Equal(t, []int64{3, 4}, svc.input.ItemIDs)
	require.NotNil(t, svc.input.ShippingAddressID)
	assert.Equal(t, int64(10), *svc.input.ShippingAddressID)
	assert.Equal(t, "5.00", svc.input.ShippingCost.Raw)
	assert.Equal(t, "2.5", svc.input.Tax.Raw)
	assert.False(t, svc.input.Discount.Present)
	assert.Equal(t, "abc", svc.input.IdempotencyKey)

	var envelope struct {
		Data orders.OrderDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "ORD-000000000001", envelope.Data.OrderNumber)

	svc.created = false
	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, authed(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))))
	assert.Equal(t, http.StatusOK, replay.Code)
}

func TestCheckoutOmittedItemIDsStayNil(t *testing.T) {
	svc := &stubCheckoutService{order: &models.Order{ID: 1}, created: true}

	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"shipping_address":1,"billing_address":1}`))))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Nil(t, svc.input.ItemIDs)
}

func TestCheckoutRejectsBeforeService(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		header string
		reason string
	}{
		{name: "unknown field", body: `{"shipping_address":1,"coupon":"x"}`},
		{name: "bad item id", body: `{"item_ids":["abc"],"shipping_address":1,"billing_address":1}`, reason: "invalid_item_ids"},
		{name: "key mismatch", body: `{"idempotency_key":"a"}`, header: "b", reason: "mismatch"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCheckoutService{}
			req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(tc.body)))
			if tc.header != "" {
				req.Header.Set("Idempotency-Key", tc.header)
			}
			resp := httptest.NewRecorder()
			Checkout(svc, nil).ServeHTTP(resp, req)

			require.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Zero(t, svc.calls)
			if tc.reason != "" {
				assert.Contains(t, resp.Body.String(), tc.reason)
			}
		})
	}
}

func TestCheckoutRequiresUser(t *testing.T) {
	resp := httptest.NewRecorder()
	Checkout(&stubCheckoutService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`)))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCreatePaymentUsesHeaderKey(t *testing.T) {
	svc := &stubPaymentService{
		payment: &models.Payment{ID: 2, OrderID: 1, PaymentMethod: enums.PaymentMethodCreditCard, TransactionID: "TX-1", Status: enums.PaymentStatusPending},
		created: true,
	}

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"order":1,"payment_method":"credit_card"}`)))
	req.Header.Set("Idempotency-Key", "pay-1")
	resp := httptest.NewRecorder()
	CreatePayment(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "pay-1", svc.input.IdempotencyKey)
	assert.Equal(t, "credit_card", svc.input.Method)
	assert.Contains(t, resp.Body.String(), `"transaction_id":"TX-1"`)
}

func TestCreatePaymentReadsOrderField(t *testing.T) {
	svc := &stubPaymentService{
		payment: &models.Payment{ID: 3, OrderID: 5, PaymentMethod: enums.PaymentMethodCreditCard, TransactionID: "TX-5", Status: enums.PaymentStatusPending},
		created: true,
	}

	body := `{"order":5,"payment_method":"credit_card","idempotency_key":"k"}`
	resp := httptest.NewRecorder()
	CreatePayment(svc, nil).ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))))

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, int64(5), svc.input.OrderID)
	assert.Equal(t, "k", svc.input.IdempotencyKey)
}

func TestCreatePaymentRejectsLegacyOrderIDField(t *testing.T) {
	svc := &stubPaymentService{}
	resp := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"order_id":5,"payment_method":"credit_card"}`)))
	CreatePayment(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, svc.input.OrderID)
}

func TestCreatePaymentRequiresOrderID(t *testing.T) {
	resp := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"payment_method":"paypal"}`)))
	CreatePayment(&stubPaymentService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	ok := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": stubPinger{}}).ServeHTTP(ok, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Contains(t, ok.Body.String(), `"db":"ok"`)

	down := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"redis": stubPinger{err: errors.New("dial tcp")}}).ServeHTTP(down, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
	assert.Equal(t, "dev", down.Header().Get("X-Storefront-Env"))
}
