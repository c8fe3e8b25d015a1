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

	"medicore_backend/internal/audit"
	"medicore_backend/internal/chatintake"
	"medicore_backend/internal/config"
	apphttp "medicore_backend/internal/http"
	"medicore_backend/internal/http/router"
	"medicore_backend/internal/imports"
	importshandler "medicore_backend/internal/imports/handler"
	importsrepo "medicore_backend/internal/imports/repository"
	importsservice "medicore_backend/internal/imports/service"
	"medicore_backend/internal/leads"
	leadshandler "medicore_backend/internal/leads/handler"
	leadsrepo "medicore_backend/internal/leads/repository"
	"medicore_backend/internal/leads/scoring"
	leadsservice "medicore_backend/internal/leads/service"
	"medicore_backend/internal/locks"
	lockshandler "medicore_backend/internal/locks/handler"
	"medicore_backend/internal/notify"
	"medicore_backend/internal/queue"
	"medicore_backend/internal/storage"
	"medicore_backend/internal/telephony"
	telephonyhandler "medicore_backend/internal/telephony/handler"
	telephonyrepo "medicore_backend/internal/telephony/repository"
	telephonyservice "medicore_backend/internal/telephony/service"
	"medicore_backend/migrations"
	"medicore_backend/platform/ai/openaiapi"
	"medicore_backend/platform/db"
	"medicore_backend/platform/logger"
	"medicore_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg.DatabaseURL, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	queueClient, err := queue.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		panic("failed to initialize queue client: " + err.Error())
	}
	defer queueClient.Close()

	val := validator.New()
	auditEmitter := audit.NewEmitter(queueClient, log)

	var completer scoring.Completer
	if cfg.IsAIEnabled() {
		completer = openaiapi.NewClient(openaiapi.Config{
			BaseURL: cfg.AIBaseURL,
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModel,
		})
		log.Info("AI scoring enabled", "model", cfg.AIModel)
	} else {
		log.Warn("AI scoring not configured; using rule-based fallback only")
	}
	scorer := scoring.New(completer, log)

	var notifier leadsservice.Notifier
	if cfg.EmailEnabled {
		notifier = notify.NewEmailNotifier(cfg)
		log.Info("call center email notifications enabled", "to", cfg.CallCenterEmail)
	}

	leadsRepo := leadsrepo.New(pool)
	leadsSvc := leadsservice.New(leadsRepo, scorer, queueClient, notifier, auditEmitter, log)
	leadsModule := leads.NewModule(leadshandler.New(leadsSvc, val))

	lockStore := locks.NewStore(cfg.LockTTL, log)
	locksModule := locks.NewModule(lockshandler.New(lockStore, val, auditEmitter))

	auditRepo := audit.NewRepository(pool)
	auditModule := audit.NewModule(auditRepo)

	telephonyRepo := telephonyrepo.New(pool)
	telephonySvc := telephonyservice.New(telephonyRepo, leadsRepo, queueClient, nil, log)
	telephonyModule := telephony.NewModule(telephonyhandler.New(telephonySvc, val))

	chatModule := chatintake.NewModule(queueClient, val, log)

	modules := []apphttp.Module{
		leadsModule,
		locksModule,
		auditModule,
		telephonyModule,
		chatModule,
	}

	if cfg.IsMinioEnabled() {
		storageSvc, err := storage.New(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure imports bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		log.Info("storage service initialized", "bucket", cfg.MinioBucketImports)

		importsSvc := importsservice.New(importsrepo.New(pool), storageSvc, leadsSvc, queueClient, log)
		modules = append(modules, imports.NewModule(importshandler.New(importsSvc, storageSvc, queueClient, val)))
	} else {
		log.Warn("object storage not configured; bulk import disabled")
	}

	engine := router.New(cfg, log, pool, modules...)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
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
		panic("server error: " + err.Error())
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
