package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"medicore_backend/internal/audit"
	"medicore_backend/internal/config"
	importsrepo "medicore_backend/internal/imports/repository"
	importsservice "medicore_backend/internal/imports/service"
	leadsrepo "medicore_backend/internal/leads/repository"
	"medicore_backend/internal/leads/scoring"
	leadsservice "medicore_backend/internal/leads/service"
	"medicore_backend/internal/notify"
	"medicore_backend/internal/queue"
	"medicore_backend/internal/storage"
	telephonyrepo "medicore_backend/internal/telephony/repository"
	telephonyservice "medicore_backend/internal/telephony/service"
	"medicore_backend/platform/ai/openaiapi"
	"medicore_backend/platform/db"
	"medicore_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting queue worker", "env", cfg.Env, "queue", cfg.AsynqQueue)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	// Consumers enqueue follow-on work (a created lead announces itself), so
	// the worker carries a producer client of its own.
	queueClient, err := queue.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		panic("failed to initialize queue client: " + err.Error())
	}
	defer queueClient.Close()

	auditEmitter := audit.NewEmitter(queueClient, log)

	var completer scoring.Completer
	var aiClient *openaiapi.Client
	if cfg.IsAIEnabled() {
		aiClient = openaiapi.NewClient(openaiapi.Config{
			BaseURL: cfg.AIBaseURL,
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModel,
		})
		completer = aiClient
	}
	scorer := scoring.New(completer, log)

	var notifier leadsservice.Notifier
	if cfg.EmailEnabled {
		notifier = notify.NewEmailNotifier(cfg)
	}

	leadsRepo := leadsrepo.New(pool)
	leadsSvc := leadsservice.New(leadsRepo, scorer, queueClient, notifier, auditEmitter, log)

	var objectStore importsservice.ObjectStore
	if cfg.IsMinioEnabled() {
		storageSvc, err := storage.New(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		objectStore = storageSvc
	} else {
		log.Warn("object storage not configured; import jobs will fail until it is")
		objectStore = unavailableStore{}
	}
	importsSvc := importsservice.New(importsrepo.New(pool), objectStore, leadsSvc, queueClient, log)

	var summarizer telephonyservice.Summarizer
	if aiClient != nil {
		summarizer = telephonyservice.NewAISummarizer(aiClient)
	} else {
		summarizer = unavailableSummarizer{}
	}
	telephonySvc := telephonyservice.New(telephonyrepo.New(pool), leadsRepo, queueClient, summarizer, log)

	worker, err := queue.NewWorker(cfg, leadsSvc, importsSvc, telephonySvc, audit.NewRepository(pool), log)
	if err != nil {
		log.Error("failed to initialize queue worker", "error", err)
		panic("failed to initialize queue worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("queue worker stopped")
}
