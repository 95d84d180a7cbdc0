// Package dbtest opens isolated in-memory sqlite databases with the full schema
// migrated, plus seed helpers for repository and service tests.
package dbtest

import (
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Open returns a migrated gorm handle backed by a uniquely named shared-cache
// in-memory database. The connection is closed when the test ends.
func Open(t testing.TB, name string) *gorm.DB {
	t.Helper()

	dsn := "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// PostgresDSNEnv names a postgres database that concurrency tests may migrate
// and write to. Rows are seeded with unique keys, so the database can be shared.
const PostgresDSNEnv = "STOREFRONT_TEST_POSTGRES_DSN"

// OpenConcurrent returns a handle for tests that race transactions from several
// goroutines. With PostgresDSNEnv set it connects there so row locks are real.
// Otherwise it falls back to sqlite with a single pooled connection, which
// serializes the transactions instead of failing them with SQLITE_LOCKED.
func OpenConcurrent(t testing.TB, name string) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv(PostgresDSNEnv))
	if dsn == "" {
		conn := Open(t, name)
		sqlDB, err := conn.DB()
		if err != nil {
			t.Fatalf("sql db: %v", err)
		}
		sqlDB.SetMaxOpenConns(1)
		return conn
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// OpenClient wraps Open in a db.Client so services can run transactions.
func OpenClient(t testing.TB, name string) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t, name)
	return db.NewWithConn(conn), conn
}

// SeedUser inserts a customer with a unique email.
func SeedUser(t testing.TB, conn *gorm.DB) models.User {
	t.Helper()
	user := models.User{Email: uuid.NewString() + "@example.com", Role: enums.UserRoleCustomer}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedAddress inserts an address owned by userID.
func SeedAddress(t testing.TB, conn *gorm.DB, userID int64) models.Address {
	t.Helper()
	addr := models.Address{
		UserID:      userID,
		AddressType: "both",
		FullName:    "Jane Doe",
		Line1:       "1 Main St",
		City:        "Springfield",
		State:       "IL",
		PostalCode:  "62701",
		Country:     "US",
	}
	if err := conn.Create(&addr).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	return addr
}

// SeedProduct inserts an active product with the given price and stock.
func SeedProduct(t testing.TB, conn *gorm.DB, price string, stock int) models.Product {
	t.Helper()
	product := models.Product{
		Name:     "Product " + uuid.NewString()[:8],
		SKU:      "SKU-" + uuid.NewString(),
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedVariant inserts an active variant of productID.
func SeedVariant(t testing.TB, conn *gorm.DB, productID int64, adjustment string, stock int) models.ProductVariant {
	t.Helper()
	variant := models.ProductVariant{
		ProductID:       productID,
		Name:            "Size",
		Value:           "L",
		SKU:             "VSKU-" + uuid.NewString(),
		PriceAdjustment: decimal.RequireFromString(adjustment),
		Stock:           stock,
		IsActive:        true,
	}
	if err := conn.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant
}

// SeedCart inserts an empty cart for userID.
func SeedCart(t testing.TB, conn *gorm.DB, userID int64) models.Cart {
	t.Helper()
	cart := models.Cart{UserID: userID}
	if err := conn.Create(&cart).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	return cart
}

// SeedCartItem inserts a cart line.
func SeedCartItem(t testing.TB, conn *gorm.DB, cartID, productID int64, variantID *int64, qty int) models.CartItem {
	t.Helper()
	item := models.CartItem{CartID: cartID, ProductID: productID, VariantID: variantID, Quantity: qty}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
	return item
}

// SeedOrder inserts an order in the given status with a matching history row.
func SeedOrder(t testing.TB, conn *gorm.DB, userID int64, status enums.OrderStatus, total string) models.Order {
	t.Helper()
	addr := SeedAddress(t, conn, userID)
	amount := decimal.RequireFromString(total)
	order := models.Order{
		OrderNumber:       "ORD-" + uuid.NewString()[:12],
		UserID:            userID,
		ShippingAddressID: addr.ID,
		BillingAddressID:  addr.ID,
		Status:            status,
		Subtotal:          amount,
		Total:             amount,
	}
	if err := conn.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	history := models.OrderStatusHistory{OrderID: order.ID, Status: status, Notes: "seeded"}
	if err := conn.Create(&history).Error; err != nil {
		t.Fatalf("seed order history: %v", err)
	}
	return order
}

// SeedPayment inserts a payment for order in the given status.
func SeedPayment(t testing.TB, conn *gorm.DB, order models.Order, status enums.PaymentStatus) models.Payment {
	t.Helper()
	payment := models.Payment{
		OrderID:       order.ID,
		UserID:        order.UserID,
		PaymentMethod: enums.PaymentMethodCreditCard,
		TransactionID: "TX-" + uuid.NewString(),
		Amount:        order.Total,
		Status:        status,
	}
	if err := conn.Create(&payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return payment
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
