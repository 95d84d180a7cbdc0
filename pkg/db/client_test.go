package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:dbclient_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := NewWithConn(db)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := NewWithConn(db)

	require.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "panicked"}).Error; err != nil {
				return err
			}
			panic("kaboom")
		})
	})

	var count int64
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := NewWithConn(db)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestLockTimeoutStatement(t *testing.T) {
	pg := &Client{postgres: true, lockTimeout: 1500 * time.Millisecond}
	require.Equal(t, "SET LOCAL lock_timeout = '1500ms'", pg.lockTimeoutStatement())

	require.Empty(t, (&Client{postgres: true}).lockTimeoutStatement())
	require.Empty(t, (&Client{lockTimeout: time.Second}).lockTimeoutStatement())
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	require.Error(t, err)
}

func TestNewOpensSQLite(t *testing.T) {
	cfg := config.DBConfig{
		Driver:       config.DBDriverSQLite,
		DSN:          fmt.Sprintf("file:dbnew_%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	}
	client, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQLDB()
	require.NoError(t, err)
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&testModel{Name: "dup"}).Error)
	err := db.Create(&testModel{Name: "dup"}).Error
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err, ""), "sqlite unique error not detected: %v", err)

	pgErr := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "ux_orders_user_idempotency"})
	require.True(t, IsUniqueViolation(pgErr, "ux_orders_user_idempotency"))
	require.False(t, IsUniqueViolation(pgErr, "ux_payments_user_idempotency"))

	pqErr := &pq.Error{Code: "23505", Constraint: "ux_payments_user_idempotency"}
	require.True(t, IsUniqueViolation(pqErr, ""))

	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	require.False(t, IsUniqueViolation(nil, ""))
}

func TestIsLockContention(t *testing.T) {
	require.True(t, IsLockContention(&pgconn.PgError{Code: "55P03"}))
	require.True(t, IsLockContention(&pq.Error{Code: "40P01"}))
	require.True(t, IsLockContention(errors.New("database is locked")))
	require.False(t, IsLockContention(&pgconn.PgError{Code: "23505"}))
	require.False(t, IsLockContention(nil))
}
