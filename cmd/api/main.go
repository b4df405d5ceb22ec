package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"revenue_backend/internal/adapters/storage"
	"revenue_backend/internal/credits"
	"revenue_backend/internal/email"
	"revenue_backend/internal/events"
	apphttp "revenue_backend/internal/http"
	"revenue_backend/internal/http/router"
	"revenue_backend/internal/notification"
	"revenue_backend/internal/revenue"
	"revenue_backend/internal/revenue/ledger"
	"revenue_backend/internal/revenue/ports"
	"revenue_backend/internal/revenue/repository"
	"revenue_backend/internal/scheduler"
	"revenue_backend/internal/sms"
	"revenue_backend/internal/voice"
	"revenue_backend/platform/config"
	"revenue_backend/platform/db"
	"revenue_backend/platform/logger"
	"revenue_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "mode", cfg.EngineMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var sinks []ledger.Sink
	var health apphttp.HealthChecker

	if cfg.GetDatabaseURL() != "" {
		pool := connectDatabase(ctx, cfg, log)
		defer pool.Close()
		health = pool
		sinks = append(sinks, repository.NewCycleStore(pool))
	} else {
		log.Warn("DATABASE_URL not configured; postgres cycle ledger disabled")
	}

	if cfg.GetRedisURL() != "" {
		redisClient, err := repository.NewRedisClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
		if err != nil {
			log.Error("failed to initialize redis client", "error", err)
			panic("failed to initialize redis client: " + err.Error())
		}
		defer func() { _ = redisClient.Close() }()
		sinks = append(sinks, repository.NewRedisLedger(redisClient, repository.DefaultRedisKey, repository.DefaultRedisLimit))
	}

	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		bucket := cfg.GetMinioBucketCycleArchive()
		if err := withRetry(ctx, log, "ensure cycle archive bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx, bucket)
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		sinks = append(sinks, storage.NewCycleArchive(storageSvc, bucket))
		log.Info("cycle archive initialized", "bucket", bucket)
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reportScheduler, closeScheduler := initReportScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(reportScheduler, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	deps := revenue.Deps{
		EventBus: eventBus,
		Sinks:    sinks,
		Payments: ports.NewLoggingPaymentProcessor(log),
	}
	if cfg.GetEmailEnabled() {
		deps.Email = sender
	}
	if smsClient := sms.NewClient(cfg, log); smsClient != nil {
		deps.SMS = smsClient
	}
	if voiceClient := voice.NewClient(cfg, log); voiceClient != nil {
		deps.Voice = voiceClient
	}
	if minter := credits.NewMinter(cfg); minter != nil {
		deps.Credits = minter
	}

	revenueModule := revenue.NewModule(ctx, cfg, deps, log, val)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			revenueModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return revenueModule.Run(gctx)
	})
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		eventBus.Wait()
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
	log.Info("server stopped")
}

func connectDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) *pgxpool.Pool {
	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")
	return pool
}

func initReportScheduler(cfg *config.Config, log *logger.Logger) (scheduler.ReportScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; cycle reports disabled")
		return nil, nil
	}

	reportClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize report scheduler client", "error", err)
		return nil, nil
	}

	return reportClient, func() {
		_ = reportClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
