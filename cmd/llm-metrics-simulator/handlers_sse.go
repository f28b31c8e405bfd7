package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// sseKeepAlive is how often an idle SSE stream gets a comment line.
var sseKeepAlive = 15 * time.Second

// Server-Sent Events handler streaming one "step" event per simulation step.
func (s *server) sseHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Warn("streaming not supported", "remote", r.RemoteAddr)
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := s.events.subscribe()
	defer unsubscribe()
	s.metrics.streamClients.Inc()
	defer s.metrics.streamClients.Dec()

	s.logger.Debug("SSE connection established", "remote", r.RemoteAddr)

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	counter := 0
	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE connection closed", "remote", r.RemoteAddr)
			return
		case summary := <-events:
			counter++
			data, err := json.Marshal(summary)
			if err != nil {
				s.logger.Warn("SSE marshal failed", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: step\ndata: %s\n\n", counter, data); err != nil {
				s.logger.Debug("SSE write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				s.logger.Debug("SSE keep-alive write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}
