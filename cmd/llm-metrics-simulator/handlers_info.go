package main

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Health check handlers
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(s.startTime).String(),
	})
}

// readyHandler reports ready once warm-up has populated the registry.
func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "warming up"})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// Server info handler
func (s *server) infoHandler(w http.ResponseWriter, r *http.Request) {
	settings := s.sim.Settings()
	cfg := s.currentConfig()

	stressWindow := false
	if s.scheduler != nil {
		stressWindow = s.scheduler.Active()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"timestamp": time.Now(),
		"simulation": map[string]interface{}{
			"mode":            settings.Mode,
			"services":        settings.Services,
			"channels":        settings.Channels,
			"base_qps":        settings.BaseQPS,
			"interval":        cfg.Interval.String(),
			"backlog":         s.sim.Backlog(),
			"in_flight":       s.sim.InFlight(),
			"series":          s.registry.SeriesCount(),
			"strict_metrics":  s.registry.Strict(),
			"stress_schedule": cfg.StressSchedule,
			"stress_window":   stressWindow,
		},
		"server": map[string]interface{}{
			"version":      version,
			"go_version":   runtime.Version(),
			"platform":     runtime.GOOS + "/" + runtime.GOARCH,
			"start_time":   s.startTime,
			"uptime":       time.Since(s.startTime).String(),
			"metrics_path": cfg.MetricsPath,
			"config_file":  cfg.ConfigFile,
		},
	})
}
