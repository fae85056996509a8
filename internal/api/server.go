package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/dubsarr/internal/api/handlers"
	"github.com/amaumene/dubsarr/internal/api/middleware"
	"github.com/amaumene/dubsarr/internal/config"
	"github.com/amaumene/dubsarr/internal/controllers"
	"github.com/amaumene/dubsarr/internal/ledger"
	"github.com/amaumene/dubsarr/internal/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, ingest *controllers.IngestController, db *models.Database, dl *ledger.Ledger, logger *logrus.Logger) *Server {
	s := &Server{logger: logger}

	mux := http.NewServeMux()

	// Tracker webhooks
	mux.HandleFunc("/sonarr", handlers.NewSonarrHandler(ingest, logger).ServeHTTP)
	mux.HandleFunc("/radarr", handlers.NewRadarrHandler(ingest, logger).ServeHTTP)

	// Operational endpoints
	mux.HandleFunc("/health", handlers.NewHealthHandler(logger).ServeHTTP)
	mux.HandleFunc("/status", handlers.NewStatusHandler(db, dl, logger).ServeHTTP)
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("addr", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
