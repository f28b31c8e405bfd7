package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// selfMetrics instruments the simulator process itself. It lives in its own
// prometheus.Registry, separate from the synthetic series.
type selfMetrics struct {
	registry *prometheus.Registry

	requestTotal   *prometheus.CounterVec
	requestLatency prometheus.Histogram
	rateLimited    prometheus.Counter
	steps          prometheus.Counter
	stepErrors     prometheus.Counter
	stepDuration   prometheus.Histogram
	generated      *prometheus.CounterVec
	modeSwitches   *prometheus.CounterVec
	configReloads  *prometheus.CounterVec
	streamClients  prometheus.Gauge
	series         prometheus.Gauge
}

func newSelfMetrics() *selfMetrics {
	m := &selfMetrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simulator_http_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		requestLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "simulator_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // ~0.5ms to ~4s
			},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "simulator_scrapes_rate_limited_total",
				Help: "Scrapes rejected by the rate limiter",
			},
		),
		steps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "simulator_steps_total",
				Help: "Simulation steps executed",
			},
		),
		stepErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "simulator_step_errors_total",
				Help: "Simulation steps that failed",
			},
		),
		stepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "simulator_step_duration_seconds",
				Help:    "Wall time spent in one simulation step",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
		generated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simulator_generated_requests_total",
				Help: "Synthetic requests generated",
			},
			[]string{"service", "channel"},
		),
		modeSwitches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simulator_mode_switches_total",
				Help: "Profile mode changes, by new mode",
			},
			[]string{"mode"},
		),
		configReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simulator_config_reloads_total",
				Help: "Configuration reload attempts, by result",
			},
			[]string{"result"},
		),
		streamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "simulator_stream_clients",
				Help: "Connected SSE and websocket clients",
			},
		),
		series: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "simulator_series",
				Help: "Series held by the synthetic registry",
			},
		),
	}
	m.registry.MustRegister(
		m.requestTotal,
		m.requestLatency,
		m.rateLimited,
		m.steps,
		m.stepErrors,
		m.stepDuration,
		m.generated,
		m.modeSwitches,
		m.configReloads,
		m.streamClients,
		m.series,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
