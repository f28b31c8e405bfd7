package main

import (
	"io"
	"net/http"
	"strconv"

	"github.com/arun0009/llm-metrics-simulator/internal/exposition"
)

// metricsHandler serves the synthetic registry in text exposition format.
func (s *server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	body := s.registry.Render()
	w.Header().Set("Content-Type", exposition.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, body); err != nil {
		s.logger.Debug("scrape write failed", "remote", r.RemoteAddr, "error", err)
	}
}

// notFoundHandler answers every unknown path.
func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	io.WriteString(w, "not found\n")
}
