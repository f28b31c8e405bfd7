package main

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arun0009/llm-metrics-simulator/internal/workload"
)

func TestStressWindow(t *testing.T) {
	s := newTestServer(t, func(c *Config) {
		c.StressSchedule = "@every 1h"
		c.StressDuration = time.Hour
	})
	if s.scheduler == nil {
		t.Fatal("scheduler not created")
	}

	s.scheduler.begin()
	if !s.scheduler.Active() {
		t.Error("window should be active")
	}
	if mode := s.sim.Mode(); mode != workload.ModeStress {
		t.Errorf("mode during window = %s, want stress", mode)
	}

	// A second trigger extends rather than nests.
	s.scheduler.begin()
	s.scheduler.end()
	if mode := s.sim.Mode(); mode != workload.ModeNormal {
		t.Errorf("mode after window = %s, want normal", mode)
	}
	if s.scheduler.Active() {
		t.Error("window should be closed")
	}
	if got := testutil.ToFloat64(s.metrics.modeSwitches.WithLabelValues("stress")); got != 1 {
		t.Errorf("stress switches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.metrics.modeSwitches.WithLabelValues("normal")); got != 2 {
		t.Errorf("normal switches = %v, want 2 (startup and restore)", got)
	}
}

func TestStressWindowExpires(t *testing.T) {
	s := newTestServer(t, func(c *Config) {
		c.StressSchedule = "@every 1h"
		c.StressDuration = 20 * time.Millisecond
	})
	s.scheduler.begin()
	waitFor(t, func() bool { return !s.scheduler.Active() })
	if mode := s.sim.Mode(); mode != workload.ModeNormal {
		t.Errorf("mode after expiry = %s, want normal", mode)
	}
}

func TestStressSchedulerReconfigure(t *testing.T) {
	s := newTestServer(t, func(c *Config) {
		c.StressSchedule = "@every 1h"
		c.StressDuration = time.Hour
	})
	settings := s.sim.Settings()

	settings.BaseQPS = 3
	applied, err := s.scheduler.reconfigure(settings)
	if err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	if applied.Mode != workload.ModeNormal || s.sim.Settings().BaseQPS != 3 {
		t.Errorf("outside a window settings apply as given, got %+v", applied)
	}

	s.scheduler.begin()
	settings.BaseQPS = 4
	applied, err = s.scheduler.reconfigure(settings)
	if err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	if applied.Mode != workload.ModeStress || s.sim.Mode() != workload.ModeStress {
		t.Errorf("open window must keep stress, applied %s, running %s", applied.Mode, s.sim.Mode())
	}
	if got := s.sim.Settings().BaseQPS; got != 4 {
		t.Errorf("base qps = %v, want 4", got)
	}

	settings.Mode = workload.ModeStress
	if _, err := s.scheduler.reconfigure(settings); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	s.scheduler.Stop()
	if mode := s.sim.Mode(); mode != workload.ModeStress {
		t.Errorf("Stop should restore the requested mode, got %s", mode)
	}
}

func TestStressSchedulerReconfigureInvalid(t *testing.T) {
	s := newTestServer(t, func(c *Config) {
		c.StressSchedule = "@every 1h"
		c.StressDuration = time.Hour
	})
	s.scheduler.begin()
	settings := s.sim.Settings()
	settings.Mode = workload.ModeStress
	settings.Services = nil
	if _, err := s.scheduler.reconfigure(settings); err == nil {
		t.Fatal("expected error for empty services")
	}
	s.scheduler.end()
	if mode := s.sim.Mode(); mode != workload.ModeNormal {
		t.Errorf("failed reconfigure must not change the restore mode, got %s", mode)
	}
}

func TestStressSchedulerInvalidSpec(t *testing.T) {
	s := newTestServer(t, nil)
	if _, err := newStressScheduler("not a schedule", time.Minute, s.sim, s.logger, nil); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}
