package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// websocketHandler pushes each step summary as a JSON text message.
func (s *server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	header := http.Header{}
	if id := w.Header().Get("X-Request-ID"); id != "" {
		header.Set("X-Request-ID", id)
	}
	conn, err := upgrader.Upgrade(w, r, header)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := s.events.subscribe()
	defer unsubscribe()
	s.metrics.streamClients.Inc()
	defer s.metrics.streamClients.Dec()

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case summary := <-events:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(summary); err != nil {
				s.logger.Debug("websocket write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	}
}
