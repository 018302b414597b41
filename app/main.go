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

	"github.com/curation-kr/pipeline/app/api"
	"github.com/curation-kr/pipeline/app/cfg"
	"github.com/curation-kr/pipeline/app/config"
	"github.com/curation-kr/pipeline/app/crawler"
	"github.com/curation-kr/pipeline/app/curation"
	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/filestore"
	"github.com/curation-kr/pipeline/app/llm"
	"github.com/curation-kr/pipeline/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting curation pipeline", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	feeds, err := config.LoadFeeds(appCfg.FeedsFile)
	if err != nil {
		slog.Error("Failed to load feed sources", "file", appCfg.FeedsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Feed sources loaded", "count", len(feeds))

	llmCfg, err := config.LoadLLM(appCfg.LLMFile)
	if err != nil {
		slog.Error("Failed to load LLM configuration", "file", appCfg.LLMFile, "error", err)
		os.Exit(1)
	}
	slog.Info("LLM providers loaded", "count", len(llmCfg.Providers))

	store, err := filestore.New(appCfg.DataDir)
	if err != nil {
		slog.Error("Failed to initialize content store", "dir", appCfg.DataDir, "error", err)
		os.Exit(1)
	}

	feedRepo := database.NewFeedRepository(db)
	itemRepo := database.NewItemRepository(db)
	translationRepo := database.NewTranslationRepository(db)
	usageRepo := database.NewUsageRepository(db)

	httpClient := &http.Client{Timeout: 60 * time.Second}

	registry, err := llm.NewRegistry(llmCfg.Providers, appCfg.UserAgent, httpClient)
	if err != nil {
		slog.Error("Failed to build provider registry", "error", err)
		os.Exit(1)
	}
	ledger := llm.NewLedger(llmCfg.Providers, llmCfg.Limits, usageRepo)

	feedCrawler := crawler.NewCrawler(httpClient, feedRepo, itemRepo, appCfg.UserAgent)
	fetcher := crawler.NewFetcher(httpClient, appCfg.ReaderProxyURL, appCfg.UserAgent)
	extractor := curation.NewNewsletterExtractor(feedRepo, itemRepo, store)
	summarizer := curation.NewSummarizer(registry, ledger, usageRepo)
	analyzer := curation.NewCopyrightAnalyzer(registry, ledger, llmCfg.Providers, usageRepo)
	translator := curation.NewTranslator(registry, ledger, itemRepo, translationRepo, usageRepo, store)

	scheduler := tasks.NewScheduler(feeds, feedRepo, itemRepo, feedCrawler, fetcher, store,
		extractor, summarizer, analyzer, translator)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)

	handler := api.NewHandler(feedRepo, itemRepo, translationRepo, store)
	engine := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      engine,
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

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
