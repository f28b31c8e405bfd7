package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// loggingMiddleware logs requests and records self metrics.
func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		s.configLock.RLock()
		logRequests := s.config.LogRequests
		s.configLock.RUnlock()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		if logRequests {
			s.logger.Info("request",
				"remote", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"bytes", rw.bytes,
				"duration", elapsed,
				"request_id", r.Header.Get("X-Request-ID"),
			)
		}

		s.metrics.requestLatency.Observe(elapsed.Seconds())
		s.metrics.requestTotal.WithLabelValues(r.Method, routeTemplate(r), strconv.Itoa(rw.statusCode)).Inc()
	})
}

// routeTemplate returns the matched route pattern so raw paths do not
// become label values.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
