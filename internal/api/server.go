package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"volguard/pkg/errors"
	"volguard/pkg/logger"

	"volguard/internal/api/health"
	"volguard/internal/metrics"
)

// ServerConfig contains configuration for the HTTP server
type ServerConfig struct {
	Port        int
	ServiceName string
	Version     string
}

// Server wraps the HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures the HTTP server with all routes
func NewServer(cfg ServerConfig, handler *Handler, healthHandler *health.Handler, log *logger.Logger) *Server {
	router := mux.NewRouter()
	router.Use(metricsMiddleware)

	// Health check endpoints (Kubernetes probes)
	router.HandleFunc("/health", healthHandler.HandleHealth).Methods(http.MethodGet)
	router.HandleFunc("/ready", healthHandler.HandleReadiness).Methods(http.MethodGet)
	router.HandleFunc("/live", healthHandler.HandleLiveness).Methods(http.MethodGet)

	// Prometheus metrics endpoint
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Risk indicators
	api.HandleFunc("/risk/{symbol}", handler.GetRiskSeries).Methods(http.MethodGet)
	api.HandleFunc("/risk/{symbol}/latest", handler.GetLatestRisk).Methods(http.MethodGet)

	// Deviation monitoring
	api.HandleFunc("/deviations/{symbol}", handler.GetDeviations).Methods(http.MethodGet)
	api.HandleFunc("/deviations/{symbol}/alerts", handler.GetDeviationAlerts).Methods(http.MethodGet)
	api.HandleFunc("/deviations/alerts/{id}/acknowledge", handler.AcknowledgeDeviationAlert).Methods(http.MethodPut)

	// Reports
	api.HandleFunc("/reports/{symbol}", handler.GetReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/{symbol}/exchanges", handler.CompareExchanges).Methods(http.MethodGet)

	// Threshold alerts
	api.HandleFunc("/alerts/{symbol}", handler.GetAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id}/acknowledge", handler.AcknowledgeAlert).Methods(http.MethodPut)

	// Threshold configuration
	api.HandleFunc("/thresholds", handler.ListThresholds).Methods(http.MethodGet)
	api.HandleFunc("/thresholds/{indicator}/{period}", handler.UpdateThreshold).Methods(http.MethodPut)

	// Root endpoint (service info)
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"service":"%s","version":"%s","status":"running"}`,
			cfg.ServiceName, cfg.Version)
	}).Methods(http.MethodGet)

	port := 8080
	if cfg.Port > 0 {
		port = cfg.Port
	}

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// Start begins listening for HTTP requests.
// Blocks until the server is stopped or fails.
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// metricsMiddleware records request counts and durations per route
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		metrics.HTTPRequests.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
