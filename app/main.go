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

	"github.com/claritycare/claritycare/app/api"
	"github.com/claritycare/claritycare/app/assets"
	"github.com/claritycare/claritycare/app/cfg"
	"github.com/claritycare/claritycare/app/content"
	"github.com/claritycare/claritycare/app/database"
	"github.com/claritycare/claritycare/app/safety"
	"github.com/claritycare/claritycare/app/tasks"
)

func main() {
	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	policy, err := loadPolicy(appCfg.PolicyFile)
	if err != nil {
		slog.Error("Failed to load safety policy", "file", appCfg.PolicyFile, "error", err)
		os.Exit(1)
	}
	scanner := safety.NewScanner(policy)

	loader := content.NewLoader(appCfg.DataFile)

	// Lint mode scans the dataset and exits without starting the server
	if appCfg.Lint {
		os.Exit(runLint(loader, scanner))
	}

	slog.Info("Starting ClarityCare server", "version", appCfg.Version)

	// Database connection
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
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	// Initialize repositories
	topicRepo := database.NewTopicRepository(db)
	snapshotRepo := database.NewSnapshotRepository(db)

	// Initialize core components
	matcher := content.NewMatcher()
	extractor := content.NewExtractor()
	resolver := assets.NewResolver(appCfg.AssetsDir)
	httpClient := &http.Client{Timeout: 30 * time.Second}

	// Initialize and start scheduler
	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount,
		"interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(loader, topicRepo, snapshotRepo, httpClient, extractor)
	scheduler.Start()
	defer scheduler.Stop()

	// Watch the dataset file for edits and resync on change
	watcherCtx, watcherCancel := context.WithCancel(context.Background())
	defer watcherCancel()
	watcher := tasks.NewDatasetWatcher(appCfg.DataFile, scheduler)
	go func() {
		if err := watcher.Run(watcherCtx); err != nil {
			slog.Warn("Dataset watcher stopped", "error", err)
		}
	}()

	// Initialize HTTP server
	apiHandler := api.NewHandler(topicRepo, snapshotRepo, matcher, scanner, resolver, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	watcherCancel()

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func loadPolicy(path string) (safety.Policy, error) {
	if path == "" {
		return safety.DefaultPolicy(), nil
	}
	return safety.LoadPolicy(path)
}
