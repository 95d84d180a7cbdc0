package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/addresses"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, rate limiting disabled")
	}

	defer func() {
		closeErr := dbClient.Close()
		if redisClient != nil {
			closeErr = multierr.Append(closeErr, redisClient.Close())
		}
		if closeErr != nil {
			logg.Error(context.Background(), "error releasing resources", closeErr)
		}
	}()

	registry := metrics.NewRegistry()
	if err := registerPoolStats(registry, dbClient); err != nil {
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "db pool stats unavailable")
	}
	svcs, err := buildServices(cfg, logg, dbClient, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
		return
	case <-sigCtx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, registry *metrics.Registry) (routes.Services, error) {
	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)

	cartSvc, err := cart.NewService(cartRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Tx:              dbClient,
		Repo:            checkout.NewRepository(ordersRepo),
		Carts:           cartRepo,
		Orders:          ordersRepo,
		Addresses:       addresses.NewRepository(conn),
		Outbox:          outboxSvc,
		Logger:          logg,
		Metrics:         registry.Checkout,
		OrderMetrics:    registry.Orders,
		MaxChargeAmount: cfg.Checkout.MaxChargeAmount,
	})
	if err != nil {
		return routes.Services{}, err
	}

	ordersSvc, err := orders.NewService(ordersRepo, dbClient, outboxSvc, logg, registry.Orders)
	if err != nil {
		return routes.Services{}, err
	}

	paymentsSvc, err := payments.NewService(payments.NewRepository(conn), dbClient, outboxSvc, logg, registry.Payments)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Orders:   ordersSvc,
		Payments: paymentsSvc,
	}, nil
}

func registerPoolStats(registry *metrics.Registry, dbClient *db.Client) error {
	sqlDB, err := dbClient.SQLDB()
	if err != nil {
		return err
	}
	return registry.RegisterDB("storefront_api", sqlDB)
}
