package main

import "net/http"

// rateLimitMiddleware rejects scrapes beyond the configured rate.
func (s *server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			s.metrics.rateLimited.Inc()
			return
		}
		next.ServeHTTP(w, r)
	})
}
