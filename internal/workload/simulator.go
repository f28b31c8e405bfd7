package workload

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/arun0009/llm-metrics-simulator/internal/exposition"
)

// Config configures a Simulator.
type Config struct {
	Services []string
	Channels []string
	// BaseQPS is the mean request rate of each (service, channel) pair.
	BaseQPS float64
	Mode    Mode

	// Profiles overrides the built-in profile of a mode.
	Profiles map[Mode]Profile

	// Rand defaults to a clock-seeded *rand.Rand.
	Rand Rand
	// Now defaults to time.Now.
	Now func() time.Time
}

// Settings is the part of Config that can change while running.
type Settings struct {
	Services []string
	Channels []string
	BaseQPS  float64
	Mode     Mode
}

func (s Settings) validate() error {
	if len(s.Services) == 0 {
		return ErrNoServices
	}
	if len(s.Channels) == 0 {
		return ErrNoChannels
	}
	if s.BaseQPS < 0 || math.IsNaN(s.BaseQPS) || math.IsInf(s.BaseQPS, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidRate, s.BaseQPS)
	}
	if _, err := ParseMode(string(s.Mode)); err != nil {
		return err
	}
	return nil
}

// PairCount is the number of requests generated for one pair in a step.
type PairCount struct {
	Service  string `json:"service"`
	Channel  string `json:"channel"`
	Requests int    `json:"requests"`
}

// StepSummary describes what one Step produced.
type StepSummary struct {
	Time     time.Time      `json:"time"`
	Mode     Mode           `json:"mode"`
	Elapsed  float64        `json:"elapsed_seconds"`
	Requests int            `json:"requests"`
	Pairs    []PairCount    `json:"pairs"`
	Statuses map[string]int `json:"statuses"`
	Backlog  float64        `json:"backlog"`
	InFlight map[string]int `json:"in_flight"`
}

// Simulator drives an exposition.Registry with synthetic traffic.
type Simulator struct {
	reg *exposition.Registry
	now func() time.Time

	mu       sync.Mutex
	rng      Rand
	services []string
	channels []string
	baseQPS  float64
	mode     Mode
	profiles map[Mode]Profile
	// inflight holds projected end times of requests, per service.
	inflight map[string][]time.Time
	backlog  float64
}

// New defines the simulator's metrics in reg and returns a Simulator.
func New(reg *exposition.Registry, cfg Config) (*Simulator, error) {
	settings := Settings{
		Services: cfg.Services,
		Channels: cfg.Channels,
		BaseQPS:  cfg.BaseQPS,
		Mode:     cfg.Mode,
	}
	if settings.Mode == "" {
		settings.Mode = ModeNormal
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}

	if err := registerMetrics(reg); err != nil {
		return nil, err
	}

	s := &Simulator{
		reg:      reg,
		now:      cfg.Now,
		rng:      cfg.Rand,
		profiles: make(map[Mode]Profile, len(Modes)),
		inflight: make(map[string][]time.Time),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for _, m := range Modes {
		s.profiles[m] = ProfileFor(m)
	}
	for m, p := range cfg.Profiles {
		if _, err := ParseMode(string(m)); err != nil {
			return nil, err
		}
		p.Name = m
		s.profiles[m] = p
	}
	s.apply(settings)
	return s, nil
}

// apply installs settings. Caller holds s.mu or owns s exclusively.
func (s *Simulator) apply(settings Settings) {
	mode, _ := ParseMode(string(settings.Mode))
	s.services = append([]string(nil), settings.Services...)
	s.channels = append([]string(nil), settings.Channels...)
	s.baseQPS = settings.BaseQPS
	s.mode = mode

	kept := make(map[string][]time.Time, len(s.services))
	for _, svc := range s.services {
		kept[svc] = s.inflight[svc]
	}
	s.inflight = kept
}

// Reconfigure replaces services, channels, rate and mode. In-flight requests
// of services that remain are kept.
func (s *Simulator) Reconfigure(settings Settings) error {
	if err := settings.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.apply(settings)
	s.mu.Unlock()
	return nil
}

// Settings returns the current settings.
func (s *Simulator) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Settings{
		Services: append([]string(nil), s.services...),
		Channels: append([]string(nil), s.channels...),
		BaseQPS:  s.baseQPS,
		Mode:     s.mode,
	}
}

// SetMode switches the active profile from the next step on.
func (s *Simulator) SetMode(mode Mode) error {
	m, err := ParseMode(string(mode))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	return nil
}

// Mode returns the active mode.
func (s *Simulator) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Profile returns the profile of the active mode.
func (s *Simulator) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[s.mode]
}

// Backlog returns the queue backlog published by the last step.
func (s *Simulator) Backlog() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backlog
}

// InFlight returns the number of tracked requests per service, as of the
// last prune.
func (s *Simulator) InFlight() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.inflight))
	for svc, ends := range s.inflight {
		out[svc] = len(ends)
	}
	return out
}

// Step advances the model by dt. A returned error means a histogram was
// never defined and the registry is misconfigured.
func (s *Simulator) Step(dt time.Duration) (StepSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	seconds := dt.Seconds()
	profile := s.profiles[s.mode]

	summary := StepSummary{
		Time:     now,
		Mode:     s.mode,
		Elapsed:  seconds,
		Statuses: make(map[string]int),
		InFlight: make(map[string]int, len(s.services)),
	}

	for _, svc := range s.services {
		for _, ch := range s.channels {
			n := poisson(s.rng, s.baseQPS*seconds)
			summary.Requests += n
			summary.Pairs = append(summary.Pairs, PairCount{Service: svc, Channel: ch, Requests: n})
			for i := 0; i < n; i++ {
				status, err := s.emitRequest(now, svc, ch, profile)
				if err != nil {
					return summary, fmt.Errorf("step: %w", err)
				}
				summary.Statuses[status]++
			}
		}
	}

	s.backlog += float64(summary.Requests)
	consumed := math.Min(s.backlog, profile.QueueCapacityPerSec*seconds)
	if consumed > 0 {
		s.backlog -= consumed
	}
	s.reg.SetGauge(MetricQueueWaiting, s.backlog, nil)
	summary.Backlog = s.backlog

	services := make([]string, 0, len(s.inflight))
	for svc := range s.inflight {
		services = append(services, svc)
	}
	sort.Strings(services)
	for _, svc := range services {
		ends := pruneEnded(s.inflight[svc], now)
		s.inflight[svc] = ends
		s.reg.SetGauge(MetricActiveRequests, float64(len(ends)), exposition.Labels{"service": svc})
		summary.InFlight[svc] = len(ends)
	}
	return summary, nil
}

// pruneEnded drops end times at or before now, in place.
func pruneEnded(ends []time.Time, now time.Time) []time.Time {
	kept := ends[:0]
	for _, end := range ends {
		if end.After(now) {
			kept = append(kept, end)
		}
	}
	return kept
}

var retryChoices = [...]int{1, 1, 2, 3}

const (
	ttftFloor       = 0.01
	otpsSigma       = 0.35
	otpsFloor       = 1.0
	overheadMin     = 0.01
	overheadMax     = 0.08
	queueWriteSigma = 0.6
	queueWriteFloor = 0.0005
)

// emitRequest records one synthetic request and returns its status code.
// Caller holds s.mu.
func (s *Simulator) emitRequest(now time.Time, service, channel string, p Profile) (string, error) {
	status := StatusOK
	r := s.rng.Float64()
	switch {
	case r < p.CancelProb:
		status = StatusClientCanceled
	case r < p.CancelProb+p.ErrorProb:
		status = StatusServerError
	}

	input, output := sampleTokens(s.rng, p.TokenWeights)
	total := input + output
	bucket := TokenBucket(total)

	s.reg.IncCounter(MetricRequestCount, 1, exposition.Labels{"service": service, "status_code": status})
	s.reg.IncCounter(MetricChannelRequestCount, 1, exposition.Labels{"service": service, "channel": channel, "status_code": status})
	s.reg.IncCounter(MetricRequestCountByTokenBucket, 1, exposition.Labels{"service": service, "token_bucket": bucket})
	s.reg.IncCounter(MetricChannelRequestCountByTokenBucket, 1, exposition.Labels{"service": service, "channel": channel, "token_bucket": bucket})

	pair := exposition.Labels{"service": service, "channel": channel}
	s.reg.IncCounter(MetricInputTokens, float64(input), pair)
	s.reg.IncCounter(MetricOutputTokens, float64(output), pair)
	s.reg.IncCounter(MetricTotalTokens, float64(total), pair)
	s.reg.IncCounter(MetricTotalTokensByTokenBucket, float64(total), exposition.Labels{"service": service, "channel": channel, "token_bucket": bucket})

	ttft := math.Max(ttftFloor, exponential(s.rng, p.AvgTTFT))
	otps := math.Max(otpsFloor, logNormal(s.rng, math.Log(p.AvgOTPS), otpsSigma))
	tpot := 1 / otps
	generation := float64(output) * tpot
	duration := ttft + generation + uniform(s.rng, overheadMin, overheadMax)

	for _, obs := range []struct {
		name  string
		value float64
	}{
		{MetricTTFT, ttft},
		{MetricOTPS, otps},
		{MetricTPOT, tpot},
		{MetricRequestDuration, duration},
	} {
		if err := s.reg.ObserveHistogram(obs.name, obs.value, pair); err != nil {
			return "", err
		}
	}

	end := now.Add(time.Duration(duration * float64(time.Second)))
	s.inflight[service] = append(s.inflight[service], end)

	write := math.Max(queueWriteFloor, logNormal(s.rng, math.Log(p.QueueWriteScale), queueWriteSigma))
	if err := s.reg.ObserveHistogram(MetricQueueWriteDuration, write, nil); err != nil {
		return "", err
	}

	if s.rng.Float64() < p.RetryProb {
		retries := retryChoices[s.rng.Intn(len(retryChoices))]
		s.reg.IncCounter(MetricQueueWriteRetries, float64(retries), nil)
	}

	if s.rng.Float64() < p.QueueErrorProb {
		s.reg.IncCounter(MetricQueueWriteErrors, 1, nil)
		if s.rng.Float64() < p.FallbackErrorProb {
			s.reg.IncCounter(MetricFallbackWriteErrors, 1, nil)
		}
	}
	return status, nil
}
