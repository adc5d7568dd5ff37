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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/sweetfrozen/storefront/api/controllers"
	"github.com/sweetfrozen/storefront/api/middleware"
	"github.com/sweetfrozen/storefront/api/routes"
	"github.com/sweetfrozen/storefront/internal/accounts"
	"github.com/sweetfrozen/storefront/internal/cart"
	"github.com/sweetfrozen/storefront/internal/catalog"
	"github.com/sweetfrozen/storefront/internal/checkout"
	"github.com/sweetfrozen/storefront/internal/coupons"
	"github.com/sweetfrozen/storefront/internal/orders"
	"github.com/sweetfrozen/storefront/internal/payment"
	"github.com/sweetfrozen/storefront/internal/storage"
	"github.com/sweetfrozen/storefront/pkg/config"
	"github.com/sweetfrozen/storefront/pkg/db"
	"github.com/sweetfrozen/storefront/pkg/enums"
	"github.com/sweetfrozen/storefront/pkg/instance"
	"github.com/sweetfrozen/storefront/pkg/logger"
	"github.com/sweetfrozen/storefront/pkg/metrics"
	"github.com/sweetfrozen/storefront/pkg/migrate"
	"github.com/sweetfrozen/storefront/pkg/redis"
)

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
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// closer collects resources released at shutdown, in reverse order.
type closer []func() error

func (c closer) Close() error {
	var err error
	for i := len(c) - 1; i >= 0; i-- {
		err = multierr.Append(err, c[i]())
	}
	return err
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers closer
	defer func() {
		err = multierr.Append(err, closers.Close())
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewStorefront(reg)

	backend, pingers, closeBackend, err := openBackend(ctx, cfg, logg)
	closers = append(closers, closeBackend)
	if err != nil {
		return err
	}

	store := storage.NewStore(backend, logg, m)
	identity := middleware.Identity{}

	products := catalog.NewProducts(catalog.NewLoader[catalog.Product](
		"products", catalog.ProductsCacheKey, catalog.BundledProducts(), store,
		catalog.WithRemote[catalog.Product](cfg.Catalog.ProductsURL),
		catalog.WithTimeout[catalog.Product](cfg.Catalog.LoadTimeout),
		catalog.WithValidator[catalog.Product](catalog.ValidateProducts),
		catalog.WithLogger[catalog.Product](logg),
		catalog.WithMetrics[catalog.Product](m),
	))
	if err := products.Reload(ctx); err != nil {
		return err
	}

	engine, err := coupons.NewEngine(catalog.NewLoader[coupons.Coupon](
		"coupons", coupons.CacheKey, coupons.BundledCatalog(), store,
		catalog.WithRemote[coupons.Coupon](cfg.Catalog.CouponsURL),
		catalog.WithTimeout[coupons.Coupon](cfg.Catalog.LoadTimeout),
		catalog.WithValidator[coupons.Coupon](coupons.ValidateCatalog),
		catalog.WithLogger[coupons.Coupon](logg),
		catalog.WithMetrics[coupons.Coupon](m),
	), store, identity, logg, m)
	if err != nil {
		return err
	}
	if err := engine.Reload(ctx); err != nil {
		return err
	}

	carts, err := cart.NewService(store, cart.PolicyFromConfig(cfg.Pricing), logg)
	if err != nil {
		return err
	}

	accountsSvc, err := accounts.NewService(accounts.ServiceParams{
		Store:          store,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	if err := accountsSvc.SeedDemoUsers(ctx); err != nil {
		return err
	}

	var publisher orders.Publisher = orders.NoopPublisher{}
	if cfg.Events.Enabled() {
		publisher = orders.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.OrdersTopic, cfg.Events.WriteTimeout)
		logg.Info(logg.WithField(ctx, "topic", cfg.Events.OrdersTopic), "order events enabled")
	}
	closers = append(closers, publisher.Close)

	orderLog := orders.NewLog(store)
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Carts:     carts,
		Products:  products,
		Coupons:   engine,
		Gateway:   payment.NewGateway(cfg.Payment.Latency),
		Orders:    orderLog,
		Publisher: publisher,
		Identity:  identity,
		Logger:    logg,
		Metrics:   m,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:   cfg,
			Logger:   logg,
			Gatherer: reg,
			Pingers:  pingers,
			Accounts: accountsSvc,
			Products: products,
			Coupons:  engine,
			Carts:    carts,
			Checkout: checkoutSvc,
			Orders:   orderLog,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            addr,
		"instance":        instance.GetID(),
		"storage_driver":  cfg.Storage.Driver,
		"products_source": products.Source().String(),
		"coupons_source":  engine.Source().String(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openBackend connects the configured storage driver. The memory driver
// returns a nil backend, which the store treats as memory-only.
func openBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Backend, map[string]controllers.Pinger, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Driver {
	case enums.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, cfg.Storage.KeyPrefix, logg)
		if err != nil {
			return nil, nil, noop, err
		}
		return storage.NewRedisBackend(client), map[string]controllers.Pinger{"redis": client}, client.Close, nil

	case enums.StorageDriverSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			return nil, nil, client.Close, err
		}
		return storage.NewSQLBackend(client.DB()), map[string]controllers.Pinger{"database": client}, client.Close, nil

	default:
		return nil, nil, noop, nil
	}
}
