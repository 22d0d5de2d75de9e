package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	cartsvc "github.com/aaryaclothing/commerce-core/internal/cart"
	"github.com/aaryaclothing/commerce-core/internal/checkout"
	"github.com/aaryaclothing/commerce-core/internal/cron"
	inventorysvc "github.com/aaryaclothing/commerce-core/internal/inventory"
	ordersvc "github.com/aaryaclothing/commerce-core/internal/orders"
	"github.com/aaryaclothing/commerce-core/internal/payment"
	reservationsvc "github.com/aaryaclothing/commerce-core/internal/reservation"
	"github.com/aaryaclothing/commerce-core/pkg/config"
	"github.com/aaryaclothing/commerce-core/pkg/db"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
	"github.com/aaryaclothing/commerce-core/pkg/metrics"
	"github.com/aaryaclothing/commerce-core/pkg/migrate"
	"github.com/aaryaclothing/commerce-core/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sweep-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sweep-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sweep-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	inventoryService, err := inventorysvc.NewService(inventorysvc.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	reservationService, err := reservationsvc.NewService(
		reservationsvc.NewRepository(dbClient.DB()), inventoryService, cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation service", err)
		os.Exit(1)
	}

	ordersRepo := ordersvc.NewRepository(dbClient.DB())
	checkoutService, err := checkout.NewService(
		noopCarts{}, reservationService, ordersRepo,
		payment.NewLoggingGateway(logg), cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewSweepJobMetrics(prometheus.DefaultRegisterer)

	expiryJob, err := cron.NewReservationExpiryJob(cron.ReservationExpiryJobParams{
		Logger:       logg,
		Reservations: reservationService,
		Metrics:      metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation expiry job", err)
		os.Exit(1)
	}

	timeoutJob, err := cron.NewPaymentTimeoutJob(cron.PaymentTimeoutJobParams{
		Logger:   logg,
		Orders:   ordersRepo,
		Checkout: checkoutService,
		Timeout:  cfg.Checkout.PaymentTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment timeout job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.WorkerLockKey(cfg.App.Env), cfg.Checkout.SweepInterval)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(expiryJob, timeoutJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Checkout.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting sweep worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sweep worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sweep worker shutting down gracefully")
}

// noopCarts satisfies the checkout service's cart dependency. The sweep
// worker only settles payments; it never starts a checkout, so no cart
// access is needed.
type noopCarts struct{}

func (noopCarts) Snapshot(ctx context.Context, ownerID string) (*cartsvc.Cart, error) {
	return &cartsvc.Cart{OwnerID: ownerID}, nil
}

func (noopCarts) ClearCart(ctx context.Context, ownerID string) error {
	return nil
}
