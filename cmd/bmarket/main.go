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
	"golang.org/x/sync/errgroup"

	"github.com/bmarket-ims/bmarket/internal/actors"
	"github.com/bmarket-ims/bmarket/internal/app"
	"github.com/bmarket-ims/bmarket/internal/catalog"
	"github.com/bmarket-ims/bmarket/internal/observability"
	"github.com/bmarket-ims/bmarket/internal/orders"
	"github.com/bmarket-ims/bmarket/internal/platform/cache"
	"github.com/bmarket-ims/bmarket/internal/platform/db"
	"github.com/bmarket-ims/bmarket/internal/projections"
	"github.com/bmarket-ims/bmarket/internal/shared"
	"github.com/bmarket-ims/bmarket/internal/stock"
	"github.com/bmarket-ims/bmarket/jobs"
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

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	transitionRecorder := shared.NewTransitionRecorder(pool, logger)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	coordinator := stock.NewCoordinator(cfg.AllowNegativeStock)

	actorsRepo := actors.NewRepository(pool)
	actorsService := actors.NewService(actorsRepo, cfg.JWTSecret, cfg.TokenTTL)
	actorsHandler := actors.NewHandler(logger, actorsService, cfg.JWTSecret)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	projectionsRepo := projections.NewRepository(pool)
	projectionsCache := projections.NewCache(redisClient, cfg.ProjectionCacheTTL)
	projectionsService := projections.NewService(projectionsRepo, projectionsCache)
	projectionsHandler := projections.NewHandler(logger, projectionsService)

	metrics := observability.NewMetrics()

	ordersRepo := orders.NewRepository(pool, coordinator)
	ordersService := orders.NewService(ordersRepo, transitionRecorder, auditLogger, idempotencyStore).
		WithInvalidator(projectionsService).
		WithMetrics(metrics)
	ordersHandler := orders.NewHandler(logger, ordersService, transitionRecorder)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		ActorsHandler:      actorsHandler,
		CatalogHandler:     catalogHandler,
		OrdersHandler:      ordersHandler,
		ProjectionsHandler: projectionsHandler,
		JobHandler:         jobHandler,
		Pool:               pool,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
