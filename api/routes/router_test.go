package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, userID int64) (*models.Cart, error) {
	return &models.Cart{UserID: userID}, nil
}

func (stubCartService) AddItem(ctx context.Context, userID int64, input cart.AddItemInput) (*models.Cart, error) {
	return &models.Cart{UserID: userID}, nil
}

func (stubCartService) SetQuantity(ctx context.Context, userID, itemID int64, quantity int) (*models.Cart, error) {
	return &models.Cart{UserID: userID}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, error) {
	return &models.Cart{UserID: userID}, nil
}

func (stubCartService) Clear(ctx context.Context, userID int64) (*models.Cart, error) {
	return &models.Cart{UserID: userID}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Get(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	return &models.Order{ID: orderID, UserID: userID, Status: enums.OrderStatusPending}, nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, input orders.StatusInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, Status: enums.OrderStatus(input.Status)}, nil
}

func (stubOrdersService) Cancel(ctx context.Context, input orders.CancelInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, Status: enums.OrderStatusCancelled}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 5},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	handler := NewRouter(testConfig(), nil, stubPinger{}, nil, reg, Services{
		Cart:   stubCartService{},
		Orders: stubOrdersService{},
	})
	return handler, reg
}

func bearer(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: 7, Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthRoutes(t *testing.T) {
	handler, _ := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestAPIRequiresBearer(t *testing.T) {
	handler, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCartRouteWithToken(t *testing.T) {
	handler, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", bearer(t, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"user_id":7`)
	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))
}

func TestStatusRouteRequiresAdmin(t *testing.T) {
	handler, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/5/status", strings.NewReader(`{"status":"confirmed"}`))
	req.Header.Set("Authorization", bearer(t, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders/5/status", strings.NewReader(`{"status":"confirmed"}`))
	req.Header.Set("Authorization", bearer(t, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestMetricsRouteExposesHTTPCounters(t *testing.T) {
	handler, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/5", nil)
	req.Header.Set("Authorization", bearer(t, enums.UserRoleCustomer))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "/api/v1/orders/{orderId}/")
}
