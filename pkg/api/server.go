// Package api serves a read-only JSON view of one Paradox table.
//
// All routes live under /api/v1 and are protected by the X-API-Key header
// when an API key is configured. /metrics is left open for scraping.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/pxdb/pkg/export"
	"github.com/ssargent/pxdb/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

// NewRouter wires the routes of s
func NewRouter(s *Server) http.Handler {
	metrics := s.metrics
	if metrics == nil {
		metrics = NewMetrics()
		s.metrics = metrics
		metrics.SetTableRecords(s.table.RecordCount())
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Table metadata
		r.Get("/table", metrics.InstrumentHandler("GET", "/api/v1/table", s.handleTable))
		r.Get("/fields", metrics.InstrumentHandler("GET", "/api/v1/fields", s.handleFields))

		// Records
		r.Get("/records", metrics.InstrumentHandler("GET", "/api/v1/records", s.handleListRecords))
		r.Get("/records/{index}", metrics.InstrumentHandler("GET", "/api/v1/records/{index}", s.handleGetRecord))
	})

	return r
}

// StartServer serves t until ctx is cancelled, then shuts down gracefully
func StartServer(ctx context.Context, t Table, config ServerConfig, logger logrus.FieldLogger) error {
	if logger == nil {
		logger = logging.Discard()
	}

	server := NewServer(t, export.NewRenderer(config.Formats), config, NewMetrics(), logger)
	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log := logger.WithFields(logrus.Fields{
		"addr":  addr,
		"table": t.Header().TableName,
	})
	log.Info("serving table")
	log.Infof("metrics available at http://%s/metrics", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
