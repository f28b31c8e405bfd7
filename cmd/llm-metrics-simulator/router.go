package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes and middleware for the server.
func (s *server) setupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	router.Use(requestIDMiddleware)
	router.Use(s.loggingMiddleware)
	router.Use(s.corsMiddleware)

	get := []string{http.MethodGet, http.MethodHead, http.MethodOptions}

	// Synthetic metrics, with and without the trailing slash
	metricsPath := strings.TrimSuffix(s.currentConfig().MetricsPath, "/")
	scrape := s.rateLimitMiddleware(http.HandlerFunc(s.metricsHandler))
	router.Handle(metricsPath, scrape).Methods(get...)
	router.Handle(metricsPath+"/", scrape).Methods(get...)

	// Health check endpoints
	router.HandleFunc("/health", s.healthHandler).Methods(get...)
	router.HandleFunc("/ready", s.readyHandler).Methods(get...)
	router.HandleFunc("/info", s.infoHandler).Methods(get...)

	// Live step summaries
	router.HandleFunc("/events", s.sseHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.websocketHandler).Methods(http.MethodGet)

	// Metrics about the simulator process itself
	router.Handle("/internal/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(get...)

	return router
}
