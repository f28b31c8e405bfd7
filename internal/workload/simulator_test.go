package workload

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arun0009/llm-metrics-simulator/internal/exposition"
)

func newTestSimulator(t *testing.T, cfg Config) (*Simulator, *exposition.Registry, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	if cfg.Now == nil {
		cfg.Now = clock.Now
	}
	if len(cfg.Services) == 0 {
		cfg.Services = []string{"svc"}
	}
	if len(cfg.Channels) == 0 {
		cfg.Channels = []string{"ch"}
	}
	reg := exposition.NewRegistry()
	sim, err := New(reg, cfg)
	require.NoError(t, err)
	return sim, reg, clock
}

func TestNew_Validation(t *testing.T) {
	reg := exposition.NewRegistry()
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"no services", Config{Channels: []string{"c"}, BaseQPS: 1}, ErrNoServices},
		{"no channels", Config{Services: []string{"s"}, BaseQPS: 1}, ErrNoChannels},
		{"negative rate", Config{Services: []string{"s"}, Channels: []string{"c"}, BaseQPS: -1}, ErrInvalidRate},
		{"bad mode", Config{Services: []string{"s"}, Channels: []string{"c"}, Mode: "chaos"}, ErrUnknownMode},
		{"bad profile override", Config{Services: []string{"s"}, Channels: []string{"c"}, Profiles: map[Mode]Profile{"x": {}}}, ErrUnknownMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(reg, tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_DefinesMetadata(t *testing.T) {
	_, reg, _ := newTestSimulator(t, Config{BaseQPS: 1})
	out := reg.Render()
	for _, d := range histogramDefs {
		assert.Contains(t, out, "# TYPE "+d.name+" histogram\n")
	}
	for _, d := range metaDefs {
		assert.Contains(t, out, "# HELP "+d.name+" "+d.help+"\n")
	}
}

func TestNew_StrictRegistry(t *testing.T) {
	reg := exposition.NewRegistry(exposition.WithStrictValidation())
	_, err := New(reg, Config{Services: []string{"s"}, Channels: []string{"c"}, BaseQPS: 1})
	require.NoError(t, err)
}

func TestStep_EndToEndScenario(t *testing.T) {
	sim, reg, _ := newTestSimulator(t, Config{
		BaseQPS: 2.0,
		Mode:    ModeNormal,
		Rand:    newScriptedRand(),
	})

	summary, err := sim.Step(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Requests)
	assert.Equal(t, map[string]int{StatusOK: 2}, summary.Statuses)

	out := reg.Render()
	line := regexp.MustCompile(`(?m)^llm_request_count\{service="svc",status_code="200"\} (\S+)$`).FindStringSubmatch(out)
	require.NotNil(t, line, out)
	v, err := strconv.ParseFloat(line[1], 64)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	assert.Equal(t, 1, strings.Count(out, "# TYPE llm_ttft histogram\n"))
	inf := regexp.MustCompile(`(?m)^llm_ttft_bucket\{le="\+Inf",channel="ch",service="svc"\} (\d+)$`).FindStringSubmatch(out)
	count := regexp.MustCompile(`(?m)^llm_ttft_count\{channel="ch",service="svc"\} (\d+)$`).FindStringSubmatch(out)
	require.NotNil(t, inf)
	require.NotNil(t, count)
	assert.Equal(t, count[1], inf[1])
	assert.Equal(t, "2", count[1])
	assert.Less(t, strings.Index(out, "# TYPE llm_ttft histogram"), strings.Index(out, "llm_ttft_bucket"))
}

func TestStep_SeededRunIsConsistent(t *testing.T) {
	sim, reg, clock := newTestSimulator(t, Config{
		Services: []string{"a", "b"},
		Channels: []string{"default", "openai", "azure"},
		BaseQPS:  5,
		Rand:     rand.New(rand.NewSource(7)),
	})

	produced := 0
	for i := 0; i < 10; i++ {
		summary, err := sim.Step(time.Second)
		require.NoError(t, err)
		produced += summary.Requests
		clock.Advance(time.Second)
	}
	require.Greater(t, produced, 0)

	var statusTotal float64
	for _, svc := range []string{"a", "b"} {
		for _, status := range []string{StatusOK, StatusClientCanceled, StatusServerError} {
			v, _ := reg.CounterValue(MetricRequestCount, exposition.Labels{"service": svc, "status_code": status})
			statusTotal += v
		}
	}
	assert.Equal(t, float64(produced), statusTotal)

	var ttftCount uint64
	for _, svc := range []string{"a", "b"} {
		for _, ch := range []string{"default", "openai", "azure"} {
			snap, ok := reg.Histogram(MetricTTFT, exposition.Labels{"service": svc, "channel": ch})
			if !ok {
				continue
			}
			assert.Equal(t, snap.Count, snap.Cumulative[len(snap.Cumulative)-1])
			ttftCount += snap.Count
		}
	}
	assert.Equal(t, uint64(produced), ttftCount)

	queue, ok := reg.Histogram(MetricQueueWriteDuration, nil)
	require.True(t, ok)
	assert.Equal(t, uint64(produced), queue.Count)
}

func TestStep_SameSeedSameOutput(t *testing.T) {
	run := func() string {
		sim, reg, _ := newTestSimulator(t, Config{BaseQPS: 3, Rand: rand.New(rand.NewSource(99))})
		for i := 0; i < 3; i++ {
			_, err := sim.Step(time.Second)
			require.NoError(t, err)
		}
		return reg.Render()
	}
	assert.Equal(t, run(), run())
}

func TestEmitRequest_StatusCoupling(t *testing.T) {
	p := ProfileFor(ModeNormal)
	tests := []struct {
		r    float64
		want string
	}{
		{0.0, StatusClientCanceled},
		{0.029, StatusClientCanceled},
		{0.03, StatusServerError},
		{0.039, StatusServerError},
		{0.0401, StatusOK},
		{0.99, StatusOK},
	}
	for _, tt := range tests {
		sim, _, clock := newTestSimulator(t, Config{BaseQPS: 1})
		sim.rng = newScriptedRand(tt.r)
		got, err := sim.emitRequest(clock.Now(), "svc", "ch", p)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "r=%v", tt.r)
	}
}

func TestEmitRequest_RetryAndErrorPaths(t *testing.T) {
	sim, reg, clock := newTestSimulator(t, Config{BaseQPS: 1})
	// status, tokens, overhead, retry, queue error, fallback error
	rng := newScriptedRand(0.5, 0.5, 0.5, 0.0, 0.0, 0.0)
	rng.intn = 3
	sim.rng = rng

	_, err := sim.emitRequest(clock.Now(), "svc", "ch", ProfileFor(ModeNormal))
	require.NoError(t, err)

	retries, ok := reg.CounterValue(MetricQueueWriteRetries, nil)
	require.True(t, ok)
	assert.Equal(t, 3.0, retries)
	queueErrs, _ := reg.CounterValue(MetricQueueWriteErrors, nil)
	assert.Equal(t, 1.0, queueErrs)
	fallbackErrs, _ := reg.CounterValue(MetricFallbackWriteErrors, nil)
	assert.Equal(t, 1.0, fallbackErrs)
}

func TestEmitRequest_NoErrorsOnHighDraws(t *testing.T) {
	sim, reg, clock := newTestSimulator(t, Config{BaseQPS: 1})
	sim.rng = newScriptedRand(0.5, 0.5, 0.5, 0.99, 0.99)

	_, err := sim.emitRequest(clock.Now(), "svc", "ch", ProfileFor(ModeStress))
	require.NoError(t, err)

	_, ok := reg.CounterValue(MetricQueueWriteRetries, nil)
	assert.False(t, ok)
	_, ok = reg.CounterValue(MetricQueueWriteErrors, nil)
	assert.False(t, ok)
	_, ok = reg.CounterValue(MetricFallbackWriteErrors, nil)
	assert.False(t, ok)
}

func TestEmitRequest_LatencyModel(t *testing.T) {
	sim, reg, clock := newTestSimulator(t, Config{BaseQPS: 1})
	sim.rng = newScriptedRand()
	p := ProfileFor(ModeNormal)

	_, err := sim.emitRequest(clock.Now(), "svc", "ch", p)
	require.NoError(t, err)

	labels := exposition.Labels{"service": "svc", "channel": "ch"}
	ttft, _ := reg.Histogram(MetricTTFT, labels)
	assert.InDelta(t, p.AvgTTFT, ttft.Sum, 1e-9)
	otps, _ := reg.Histogram(MetricOTPS, labels)
	assert.InDelta(t, p.AvgOTPS, otps.Sum, 1e-9)
	tpot, _ := reg.Histogram(MetricTPOT, labels)
	assert.InDelta(t, 1/p.AvgOTPS, tpot.Sum, 1e-12)

	output, _ := reg.CounterValue(MetricOutputTokens, labels)
	duration, _ := reg.Histogram(MetricRequestDuration, labels)
	want := p.AvgTTFT + output/p.AvgOTPS + 0.045
	assert.InDelta(t, want, duration.Sum, 1e-9)

	write, _ := reg.Histogram(MetricQueueWriteDuration, nil)
	assert.InDelta(t, p.QueueWriteScale, write.Sum, 1e-12)

	input, _ := reg.CounterValue(MetricInputTokens, labels)
	total, _ := reg.CounterValue(MetricTotalTokens, labels)
	assert.Equal(t, input+output, total)
	byBucket, _ := reg.CounterValue(MetricTotalTokensByTokenBucket, exposition.Labels{
		"service": "svc", "channel": "ch", "token_bucket": TokenBucket(int(total)),
	})
	assert.Equal(t, total, byBucket)
}

func TestEmitRequest_Floors(t *testing.T) {
	sim, reg, clock := newTestSimulator(t, Config{BaseQPS: 1})
	rng := newScriptedRand()
	rng.exp = 0
	rng.norm = -100
	sim.rng = rng

	_, err := sim.emitRequest(clock.Now(), "svc", "ch", ProfileFor(ModeNormal))
	require.NoError(t, err)

	labels := exposition.Labels{"service": "svc", "channel": "ch"}
	ttft, _ := reg.Histogram(MetricTTFT, labels)
	assert.Equal(t, 0.01, ttft.Sum)
	otps, _ := reg.Histogram(MetricOTPS, labels)
	assert.Equal(t, 1.0, otps.Sum)
	write, _ := reg.Histogram(MetricQueueWriteDuration, nil)
	assert.Equal(t, 0.0005, write.Sum)
}

func TestStep_UndefinedHistogramPropagates(t *testing.T) {
	sim, _, _ := newTestSimulator(t, Config{BaseQPS: 2, Rand: newScriptedRand()})
	sim.reg = exposition.NewRegistry()

	_, err := sim.Step(time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, exposition.ErrHistogramNotDefined)
}

func TestStep_InFlightPruning(t *testing.T) {
	sim, reg, clock := newTestSimulator(t, Config{BaseQPS: 2, Rand: newScriptedRand()})

	summary, err := sim.Step(time.Second)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"svc": 2}, summary.InFlight)
	active, ok := reg.GaugeValue(MetricActiveRequests, exposition.Labels{"service": "svc"})
	require.True(t, ok)
	assert.Equal(t, 2.0, active)

	require.NoError(t, sim.Reconfigure(Settings{Services: []string{"svc"}, Channels: []string{"ch"}, BaseQPS: 0, Mode: ModeNormal}))
	clock.Advance(time.Hour)
	summary, err = sim.Step(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Requests)
	assert.Equal(t, map[string]int{"svc": 0}, sim.InFlight())
	active, _ = reg.GaugeValue(MetricActiveRequests, exposition.Labels{"service": "svc"})
	assert.Equal(t, 0.0, active)
}

func TestPruneEnded(t *testing.T) {
	now := newFakeClock().Now()
	ends := []time.Time{now.Add(-time.Second), now, now.Add(time.Millisecond), now.Add(-time.Minute), now.Add(time.Hour)}
	kept := pruneEnded(ends, now)
	assert.Equal(t, []time.Time{now.Add(time.Millisecond), now.Add(time.Hour)}, kept)
}

func TestStep_QueueBacklog(t *testing.T) {
	sim, reg, _ := newTestSimulator(t, Config{
		Channels: []string{"a", "b", "c"},
		BaseQPS:  2,
		Mode:     ModeStress,
		Rand:     newScriptedRand(),
	})

	// 3 pairs x 2 requests, capacity 2/s.
	summary, err := sim.Step(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Requests)
	assert.Equal(t, 4.0, summary.Backlog)
	waiting, _ := reg.GaugeValue(MetricQueueWaiting, nil)
	assert.Equal(t, 4.0, waiting)

	require.NoError(t, sim.Reconfigure(Settings{Services: []string{"svc"}, Channels: []string{"a"}, BaseQPS: 0, Mode: ModeStress}))
	for _, want := range []float64{2, 0, 0} {
		_, err := sim.Step(time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, sim.Backlog())
	}
}

func TestStep_NormalModeDrainsQueue(t *testing.T) {
	sim, reg, _ := newTestSimulator(t, Config{BaseQPS: 2, Rand: newScriptedRand()})
	_, err := sim.Step(time.Second)
	require.NoError(t, err)
	waiting, ok := reg.GaugeValue(MetricQueueWaiting, nil)
	require.True(t, ok)
	assert.Equal(t, 0.0, waiting)
}

func TestSetMode(t *testing.T) {
	sim, _, _ := newTestSimulator(t, Config{BaseQPS: 1})
	assert.Equal(t, ModeNormal, sim.Mode())
	require.NoError(t, sim.SetMode(ModeStress))
	assert.Equal(t, ModeStress, sim.Mode())
	assert.Equal(t, ProfileFor(ModeStress).ErrorProb, sim.Profile().ErrorProb)
	assert.ErrorIs(t, sim.SetMode("chaos"), ErrUnknownMode)
	assert.Equal(t, ModeStress, sim.Mode())
}

func TestProfileOverride(t *testing.T) {
	custom := ProfileFor(ModeNormal)
	custom.ErrorProb = 0.5
	sim, _, _ := newTestSimulator(t, Config{BaseQPS: 1, Profiles: map[Mode]Profile{ModeNormal: custom}})
	assert.Equal(t, 0.5, sim.Profile().ErrorProb)
	assert.Equal(t, ModeNormal, sim.Profile().Name)
}

func TestReconfigure(t *testing.T) {
	sim, _, _ := newTestSimulator(t, Config{Services: []string{"a", "b"}, BaseQPS: 2, Rand: newScriptedRand()})
	_, err := sim.Step(time.Second)
	require.NoError(t, err)

	err = sim.Reconfigure(Settings{Services: []string{"b", "c"}, Channels: []string{"x"}, BaseQPS: 1, Mode: ModeStress})
	require.NoError(t, err)
	got := sim.Settings()
	assert.Equal(t, []string{"b", "c"}, got.Services)
	assert.Equal(t, []string{"x"}, got.Channels)
	assert.Equal(t, 1.0, got.BaseQPS)
	assert.Equal(t, ModeStress, got.Mode)
	assert.Equal(t, map[string]int{"b": 2, "c": 0}, sim.InFlight())

	assert.ErrorIs(t, sim.Reconfigure(Settings{Channels: []string{"x"}}), ErrNoServices)
	assert.Equal(t, []string{"b", "c"}, sim.Settings().Services)
}

func TestStep_ConcurrentWithRender(t *testing.T) {
	sim, reg, _ := newTestSimulator(t, Config{
		Services: []string{"a", "b"},
		BaseQPS:  20,
		Rand:     rand.New(rand.NewSource(3)),
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_, err := sim.Step(100 * time.Millisecond)
			assert.NoError(t, err)
		}
	}()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				out := reg.Render()
				assert.True(t, strings.HasSuffix(out, "\n"))
				_ = sim.InFlight()
				_ = sim.Backlog()
			}
		}()
	}
	wg.Wait()
}
