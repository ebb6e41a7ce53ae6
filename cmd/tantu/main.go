package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tantu-erp/tantu/cmd/tantu/cli"
	"github.com/tantu-erp/tantu/internal/app"
	"github.com/tantu-erp/tantu/internal/billing"
	"github.com/tantu-erp/tantu/internal/catalog/mills"
	"github.com/tantu-erp/tantu/internal/catalog/products"
	"github.com/tantu-erp/tantu/internal/customers"
	"github.com/tantu-erp/tantu/internal/deliveries"
	"github.com/tantu-erp/tantu/internal/observability"
	"github.com/tantu-erp/tantu/internal/orders"
	"github.com/tantu-erp/tantu/internal/platform/cache"
	"github.com/tantu-erp/tantu/internal/platform/db"
	"github.com/tantu-erp/tantu/jobs"
	"github.com/tantu-erp/tantu/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
		code := jobsCLI.Run(ctx, os.Args[2:], os.Stdout, os.Stderr)
		_ = jobsCLI.Close()
		os.Exit(code)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()
	if err := db.Migrate(ctx, dbpool); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}

	// The API works without Redis; reads then go straight to Postgres.
	var readCache *cache.Cache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		readCache = cache.NewCache(redisClient, cfg.CacheTTL).WithLogger(logger)
	}

	metrics := observability.NewMetrics()

	customerService := customers.NewService(customers.NewRepository(dbpool), readCache, logger)
	millService := mills.NewService(mills.NewRepository(dbpool), readCache, logger)
	productService := products.NewService(products.NewRepository(dbpool), readCache, logger)

	orderService := orders.NewService(orders.NewRepository(dbpool), logger)
	orderService.SetRecorder(metrics)
	deliveryService := deliveries.NewService(deliveries.NewRepository(dbpool), logger)
	deliveryService.SetRecorder(metrics)

	reportClient := report.NewClient(cfg.GotenbergURL)
	billingService := billing.NewService(billing.NewRepository(dbpool), logger, cfg.BillDueDays)
	billingService.SetRenderer(reportClient)
	billingService.SetCache(readCache)
	billingService.SetRecorder(metrics)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		CustomersHandler:  customers.NewHandler(logger, customerService),
		MillsHandler:      mills.NewHandler(logger, millService),
		ProductsHandler:   products.NewHandler(logger, productService),
		OrdersHandler:     orders.NewHandler(logger, orderService),
		DeliveriesHandler: deliveries.NewHandler(logger, deliveryService),
		BillingHandler:    billing.NewHandler(logger, billingService),
		ReportHandler:     report.NewHandler(reportClient, logger),
		JobHandler:        jobs.NewHandler(inspector, jobClient, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
