package main

import (
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/arun0009/llm-metrics-simulator/internal/exposition"
	"github.com/arun0009/llm-metrics-simulator/internal/workload"
)

// server ties the synthetic registry, the simulator and the HTTP surface
// together.
type server struct {
	configLock sync.RWMutex
	config     Config
	// overrides re-applies command-line flags when the config file reloads.
	overrides func(*Config)

	logger    *slog.Logger
	registry  *exposition.Registry
	sim       *workload.Simulator
	metrics   *selfMetrics
	limiter   *rate.Limiter
	events    *broadcaster
	scheduler *stressScheduler

	startTime   time.Time
	ready       atomic.Bool
	warmupPause time.Duration
}

// newServer builds every component from cfg. cfg must be valid.
func newServer(cfg Config, logger *slog.Logger) (*server, error) {
	var opts []exposition.Option
	if cfg.StrictMetrics {
		opts = append(opts, exposition.WithStrictValidation())
	}
	registry := exposition.NewRegistry(opts...)

	profiles, err := cfg.profileOverrides()
	if err != nil {
		return nil, err
	}
	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	settings := cfg.settings()
	sim, err := workload.New(registry, workload.Config{
		Services: settings.Services,
		Channels: settings.Channels,
		BaseQPS:  settings.BaseQPS,
		Mode:     settings.Mode,
		Profiles: profiles,
		Rand:     rand.New(rand.NewSource(seed)),
	})
	if err != nil {
		return nil, err
	}

	s := &server{
		config:      cfg,
		logger:      logger,
		registry:    registry,
		sim:         sim,
		metrics:     newSelfMetrics(),
		events:      newBroadcaster(),
		startTime:   time.Now(),
		warmupPause: 50 * time.Millisecond,
	}
	if cfg.ScrapeRateLimitRPS > 0 && cfg.ScrapeRateLimitBurst > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.ScrapeRateLimitRPS), cfg.ScrapeRateLimitBurst)
	}
	if cfg.StressSchedule != "" {
		s.scheduler, err = newStressScheduler(cfg.StressSchedule, cfg.StressDuration, sim, logger, s.recordModeSwitch)
		if err != nil {
			return nil, err
		}
	}
	s.metrics.modeSwitches.WithLabelValues(string(settings.Mode)).Inc()

	logger.Info("simulator configured",
		"mode", settings.Mode,
		"services", settings.Services,
		"channels", settings.Channels,
		"base_qps", settings.BaseQPS,
		"seed", seed,
		"strict_metrics", cfg.StrictMetrics,
	)
	return s, nil
}

// currentConfig returns a copy of the active configuration.
func (s *server) currentConfig() Config {
	s.configLock.RLock()
	defer s.configLock.RUnlock()
	return s.config
}

func (s *server) recordModeSwitch(mode workload.Mode) {
	s.metrics.modeSwitches.WithLabelValues(string(mode)).Inc()
}
