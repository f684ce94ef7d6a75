package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joonpark/curate-press/app/ai"
	"github.com/joonpark/curate-press/app/api"
	"github.com/joonpark/curate-press/app/cfg"
	"github.com/joonpark/curate-press/app/database"
	"github.com/joonpark/curate-press/app/export"
	"github.com/joonpark/curate-press/app/ingest"
	"github.com/joonpark/curate-press/app/jobs"
	"github.com/joonpark/curate-press/app/publish"
	"github.com/joonpark/curate-press/app/queue"
	"github.com/joonpark/curate-press/app/scrape"
	"github.com/joonpark/curate-press/app/sources"
	"github.com/joonpark/curate-press/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Curate Press server", "version", appCfg.Version)

	db, err := database.Connect(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	configCache := sources.NewCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", configCache.GetConfigCount())

	sourceRepo := database.NewSourceRepository(db)
	contentRepo := database.NewContentRepository(db)
	queueRepo := database.NewQueueRepository(db)
	promptRepo := database.NewPromptRepository(db)

	httpClient := &http.Client{Timeout: 60 * time.Second}
	fetcher := ingest.NewFetcher(httpClient, appCfg.UserAgent)

	actorClient := scrape.NewActorClient(httpClient, appCfg.ActorBaseURL, appCfg.ActorToken)
	websiteScraper := scrape.NewWebsiteScraper(httpClient, appCfg.UserAgent)
	scrapers := scrape.NewSet(actorClient, websiteScraper)

	publisher := publish.NewClient(httpClient, appCfg.PublishBaseURL, appCfg.PublishToken)
	queueService := queue.NewService(queueRepo, publisher, appCfg.ProfileIDs())

	storeClient := export.NewStoreClient(httpClient, appCfg.StoreBaseURL, appCfg.StoreAPIKey, appCfg.StoreAPIVersion)
	exporter := export.NewRunner(storeClient, queueRepo)

	summarizer := ai.NewSummarizer(appCfg.ModelAPIKey, appCfg.Model, appCfg.ModelMaxTokens, appCfg.ModelTemperature)
	jobRegistry := jobs.NewRegistry()

	scheduler := tasks.NewScheduler(configCache, sourceRepo, contentRepo, fetcher)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)

	handler := api.NewHandler(configCache, sourceRepo, contentRepo, queueRepo,
		promptRepo, queueService, exporter, summarizer, jobRegistry, scheduler,
		fetcher, scrapers, appCfg.StoreDatabaseID)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
