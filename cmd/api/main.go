package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/foodkoop/grouporder-backend/api/routes"
	"github.com/foodkoop/grouporder-backend/internal/activegroup"
	"github.com/foodkoop/grouporder-backend/internal/bundles"
	"github.com/foodkoop/grouporder-backend/internal/groups"
	"github.com/foodkoop/grouporder-backend/internal/products"
	"github.com/foodkoop/grouporder-backend/internal/units"
	"github.com/foodkoop/grouporder-backend/pkg/config"
	"github.com/foodkoop/grouporder-backend/pkg/db"
	"github.com/foodkoop/grouporder-backend/pkg/logger"
	"github.com/foodkoop/grouporder-backend/pkg/metrics"
	"github.com/foodkoop/grouporder-backend/pkg/migrate"
	"github.com/foodkoop/grouporder-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	groupRepo := groups.NewRepository(dbClient.DB())
	unitRepo := units.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	bundleRepo := bundles.NewRepository(dbClient.DB())

	groupService, err := groups.NewService(groupRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create group service", err)
		os.Exit(1)
	}
	unitService, err := units.NewService(unitRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create unit service", err)
		os.Exit(1)
	}
	productService, err := products.NewService(productRepo, unitRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	bundleService, err := bundles.NewService(bundleRepo, groupRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create bundle service", err)
		os.Exit(1)
	}
	resolver, err := activegroup.NewResolver(redisClient, groupRepo, cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create active-group resolver", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promRegistry,
			httpMetrics,
			resolver,
			groupService,
			unitService,
			productService,
			bundleService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		var closeErr error
		closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
		closeErr = multierr.Append(closeErr, redisClient.Close())
		closeErr = multierr.Append(closeErr, dbClient.Close())
		if closeErr != nil {
			logg.Error(ctx, "shutdown finished with errors", closeErr)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}
