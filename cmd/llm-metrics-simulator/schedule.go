package main

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arun0009/llm-metrics-simulator/internal/workload"
)

// stressScheduler switches the simulator to the stress profile on a cron
// schedule and restores the previous mode after a fixed window.
type stressScheduler struct {
	cron     *cron.Cron
	sim      *workload.Simulator
	window   time.Duration
	logger   *slog.Logger
	onSwitch func(workload.Mode)

	mu       sync.Mutex
	active   bool
	baseMode workload.Mode
	timer    *time.Timer
}

func newStressScheduler(spec string, window time.Duration, sim *workload.Simulator, logger *slog.Logger, onSwitch func(workload.Mode)) (*stressScheduler, error) {
	s := &stressScheduler{
		cron:     cron.New(),
		sim:      sim,
		window:   window,
		logger:   logger,
		onSwitch: onSwitch,
	}
	if _, err := s.cron.AddFunc(spec, s.begin); err != nil {
		return nil, fmt.Errorf("stress schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *stressScheduler) Start() { s.cron.Start() }

// Stop halts the schedule and ends any open window.
func (s *stressScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.end()
}

// begin opens a stress window, or extends the open one.
func (s *stressScheduler) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		s.timer.Reset(s.window)
		return
	}
	s.baseMode = s.sim.Mode()
	_ = s.sim.SetMode(workload.ModeStress)
	s.active = true
	s.timer = time.AfterFunc(s.window, s.end)

	s.logger.Info("stress window started", "window", s.window, "restore_mode", s.baseMode)
	if s.onSwitch != nil {
		s.onSwitch(workload.ModeStress)
	}
}

func (s *stressScheduler) end() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.timer.Stop()
	s.active = false
	_ = s.sim.SetMode(s.baseMode)

	s.logger.Info("stress window ended", "mode", s.baseMode)
	if s.onSwitch != nil {
		s.onSwitch(s.baseMode)
	}
}

// reconfigure applies settings to the simulator. While a window is open
// the requested mode becomes the one restored at its end and stress stays
// active. The decision and the change happen under the window lock, so a
// window closing concurrently cannot be undone.
func (s *stressScheduler) reconfigure(settings workload.Settings) (workload.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requested := settings.Mode
	if s.active {
		settings.Mode = workload.ModeStress
	}
	if err := s.sim.Reconfigure(settings); err != nil {
		return settings, err
	}
	if s.active {
		s.baseMode = requested
	}
	return settings, nil
}

// Active reports whether a stress window is open.
func (s *stressScheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
