package main

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arun0009/llm-metrics-simulator/internal/logging"
)

// flusherResponseWriter supports http.Flusher for SSE tests using httptest
type flusherResponseWriter struct {
	*httptest.ResponseRecorder
}

func (frw *flusherResponseWriter) Flush() {
	// No-op for testing; httptest doesn't write to a real connection
}

// testConfig returns a valid configuration with a fixed seed.
func testConfig() Config {
	seed := int64(42)
	return Config{
		Listen:         "127.0.0.1",
		Port:           18080,
		MetricsPath:    "/metrics",
		Interval:       time.Second,
		WarmupSteps:    3,
		BaseQPS:        2,
		Services:       []string{"llm-api"},
		Channels:       []string{"default", "openai"},
		Mode:           "normal",
		Seed:           &seed,
		StressDuration: 2 * time.Minute,
		EnableCORS:     true,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// newTestServer builds a server from testConfig after applying mutate.
func newTestServer(t *testing.T, mutate func(*Config)) *server {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	s, err := newServer(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	s.warmupPause = 0
	return s
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
