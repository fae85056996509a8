package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/dubsarr/internal/api"
	"github.com/amaumene/dubsarr/internal/config"
	"github.com/amaumene/dubsarr/internal/controllers"
	"github.com/amaumene/dubsarr/internal/ledger"
	"github.com/amaumene/dubsarr/internal/models"
	"github.com/amaumene/dubsarr/internal/scheduler"
	"github.com/amaumene/dubsarr/internal/services/plex"
	"github.com/amaumene/dubsarr/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting dubsarr")

	// 3. Open the deletion ledger, creating it empty if missing
	deletionLedger, err := ledger.New(cfg.LedgerFile, ledger.DefaultMaxEntries, logger)
	if err != nil {
		return fmt.Errorf("failed to open deletion ledger: %w", err)
	}
	logger.WithField("path", cfg.LedgerFile).Info("Deletion ledger ready")

	// 4. Open the event history database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// 5. Connect to the media server with exponential backoff
	plexClient, err := plex.NewClient(cfg.PlexURL, cfg.PlexToken, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize media server client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := plexClient.ConnectWithRetry(ctx); err != nil {
		return err
	}

	// 6. Initialize controllers
	classifier := controllers.NewClassifier(deletionLedger, cfg.SeriesLibrary, cfg.MovieLibrary, cfg.MaxDateDiff, logger)
	resolver := controllers.NewResolverController(plexClient, logger)
	collections := controllers.NewCollectionController(plexClient, cfg.CollectionName, cfg.MaxCollectionSize, logger)
	ingest := controllers.NewIngestController(classifier, deletionLedger, resolver, collections, db, cfg.SeriesLibrary, cfg.MovieLibrary, logger)

	ingest.Start(cfg.WorkerCount)
	defer ingest.Stop()

	// 7. Initialize scheduler
	var libraries []string
	if cfg.SeriesLibrary != "" {
		libraries = append(libraries, cfg.SeriesLibrary)
	}
	if cfg.MovieLibrary != "" {
		libraries = append(libraries, cfg.MovieLibrary)
	}

	sched := scheduler.NewScheduler(collections, db, libraries, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(cfg, ingest, db, deletionLedger, logger)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("dubsarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("dubsarr stopped")
	return nil
}
