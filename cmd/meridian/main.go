package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/ap"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/ar"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/inventory/adjustments"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journal"
	"github.com/meridian-erp/meridian-erp/internal/ledger/statements"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/parties"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, statement caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	statementsCache := statements.NewCache(redisClient, cfg.StatementCacheTTL)
	statementsRepo := statements.NewRepository(dbpool)
	statementsService := statements.NewService(statementsRepo, statementsCache)
	statementsHandler := statements.NewHandler(logger, statementsService)

	journalRepo := journal.NewRepository(dbpool)
	poster := journal.NewPoster(journalRepo, auditLogger, journal.PosterConfig{
		AllowNegativeStock: cfg.AllowNegativeStock,
	}).WithMetrics(metrics).WithInvalidator(statementsCache)
	integrity := journal.NewIntegrityChecker(journalRepo)
	journalHandler := journal.NewHandler(logger, poster, accountsService, integrity)

	partiesRepo := parties.NewRepository(dbpool)
	partiesService := parties.NewService(partiesRepo)
	partiesHandler := parties.NewHandler(logger, partiesService)

	inventoryRepo := inventory.NewRepository(dbpool)
	valuationEngine := inventory.NewEngine(inventoryRepo)
	inventoryHandler := inventory.NewHandler(logger, inventoryRepo, valuationEngine)

	adjustmentsRepo := adjustments.NewRepository(dbpool)
	adjustmentsService := adjustments.NewService(adjustmentsRepo, inventoryRepo, poster, accountsService, auditLogger)
	adjustmentsHandler := adjustments.NewHandler(logger, adjustmentsService)

	arService := ar.NewService(poster, partiesService, accountsService, valuationEngine, ar.Config{TaxRate: cfg.TaxRateDecimal()})
	arHandler := ar.NewHandler(logger, arService)

	apService := ap.NewService(poster, partiesService, accountsService, valuationEngine, ap.Config{TaxRate: cfg.TaxRateDecimal()})
	apHandler := ap.NewHandler(logger, apService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AccountsHandler:    accountsHandler,
		JournalHandler:     journalHandler,
		StatementsHandler:  statementsHandler,
		PartiesHandler:     partiesHandler,
		InventoryHandler:   inventoryHandler,
		AdjustmentsHandler: adjustmentsHandler,
		ARHandler:          arHandler,
		APHandler:          apHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
