package main

import (
	"context"
	"fmt"
	"time"

	"github.com/arun0009/llm-metrics-simulator/internal/workload"
)

// minStep keeps a late tick from producing a near-zero step.
const minStep = 50 * time.Millisecond

// step runs one simulation step and publishes its summary.
func (s *server) step(dt time.Duration) (workload.StepSummary, error) {
	start := time.Now()
	summary, err := s.sim.Step(dt)
	s.metrics.stepDuration.Observe(time.Since(start).Seconds())
	s.metrics.steps.Inc()
	if err != nil {
		s.metrics.stepErrors.Inc()
		return summary, err
	}

	for _, p := range summary.Pairs {
		s.metrics.generated.WithLabelValues(p.Service, p.Channel).Add(float64(p.Requests))
	}
	s.metrics.series.Set(float64(s.registry.SeriesCount()))
	s.events.publish(summary)

	s.logger.Debug("step",
		"mode", summary.Mode,
		"elapsed", summary.Elapsed,
		"requests", summary.Requests,
		"backlog", summary.Backlog,
	)
	return summary, nil
}

// warmUp runs steps of length interval so the first scrape already sees
// non-zero data.
func (s *server) warmUp(ctx context.Context, steps int, interval time.Duration) error {
	for i := 0; i < steps; i++ {
		if _, err := s.step(interval); err != nil {
			return fmt.Errorf("warm-up step %d: %w", i+1, err)
		}
		if s.warmupPause <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.warmupPause):
		}
	}
	s.ready.Store(true)
	return nil
}

// runLoop steps the simulator every interval with the measured elapsed
// time, until ctx is done or a step fails.
func (s *server) runLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last)
			if dt < minStep {
				dt = minStep
			}
			last = now
			if _, err := s.step(dt); err != nil {
				return fmt.Errorf("simulation stopped: %w", err)
			}
		}
	}
}
