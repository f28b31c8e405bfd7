package exposition

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// MetricType is the value of a # TYPE line.
type MetricType string

const (
	TypeCounter   MetricType = "counter"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

var metricNameRE = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

type scalarSeries struct {
	name   string
	labels []labelPair
	value  float64
}

type histogramSeries struct {
	name   string
	labels []labelPair
	h      *histogram
}

// Registry holds every series and its metadata. The zero value is not
// usable; call NewRegistry.
type Registry struct {
	mu sync.Mutex

	strict bool

	help  map[string]string
	types map[string]MetricType

	counters   map[string]*scalarSeries
	gauges     map[string]*scalarSeries
	histograms map[string]*histogramSeries
	buckets    map[string][]float64
}

// Option configures a Registry.
type Option func(*Registry)

// WithStrictValidation makes DefineHistogram reject invalid names, malformed
// bounds and redefinitions with different bounds.
func WithStrictValidation() Option {
	return func(r *Registry) { r.strict = true }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		help:       make(map[string]string),
		types:      make(map[string]MetricType),
		counters:   make(map[string]*scalarSeries),
		gauges:     make(map[string]*scalarSeries),
		histograms: make(map[string]*histogramSeries),
		buckets:    make(map[string][]float64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strict reports whether strict validation is enabled.
func (r *Registry) Strict() bool { return r.strict }

// SetHelp sets the # HELP text for name.
func (r *Registry) SetHelp(name, text string) {
	r.mu.Lock()
	r.help[name] = text
	r.mu.Unlock()
}

// SetType sets the # TYPE tag for name.
func (r *Registry) SetType(name string, t MetricType) {
	r.mu.Lock()
	r.types[name] = t
	r.mu.Unlock()
}

// DefineHistogram registers the bucket upper bounds for name and marks it as
// a histogram. Series created before a redefinition keep their old bounds.
func (r *Registry) DefineHistogram(name string, bounds []float64, help string) error {
	if r.strict {
		if err := validateHistogram(name, bounds); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.buckets[name]; ok && r.strict && !equalBounds(prev, bounds) {
		return fmt.Errorf("%w: %q", ErrHistogramRedefined, name)
	}
	r.buckets[name] = append([]float64(nil), bounds...)
	r.help[name] = help
	r.types[name] = TypeHistogram
	return nil
}

func validateHistogram(name string, bounds []float64) error {
	if !metricNameRE.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if len(bounds) == 0 {
		return fmt.Errorf("%w: %q has no bounds", ErrInvalidBuckets, name)
	}
	for i, b := range bounds {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return fmt.Errorf("%w: %q bound %d is not finite", ErrInvalidBuckets, name, i)
		}
		if i > 0 && b <= bounds[i-1] {
			return fmt.Errorf("%w: %q bounds not strictly increasing at index %d", ErrInvalidBuckets, name, i)
		}
	}
	return nil
}

func equalBounds(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// setDefaultMeta fills help and type for names that never had them set.
// Caller holds r.mu.
func (r *Registry) setDefaultMeta(name string, t MetricType) {
	if _, ok := r.help[name]; !ok {
		r.help[name] = name
	}
	if _, ok := r.types[name]; !ok {
		r.types[name] = t
	}
}

// IncCounter adds amount to the counter series (name, labels), creating it
// at zero first.
func (r *Registry) IncCounter(name string, amount float64, labels Labels) {
	pairs := labels.canonical()
	key := seriesKey(name, pairs)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.setDefaultMeta(name, TypeCounter)
	s, ok := r.counters[key]
	if !ok {
		s = &scalarSeries{name: name, labels: pairs}
		r.counters[key] = s
	}
	s.value += amount
}

// SetGauge overwrites the gauge series (name, labels).
func (r *Registry) SetGauge(name string, value float64, labels Labels) {
	pairs := labels.canonical()
	key := seriesKey(name, pairs)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.setDefaultMeta(name, TypeGauge)
	s, ok := r.gauges[key]
	if !ok {
		s = &scalarSeries{name: name, labels: pairs}
		r.gauges[key] = s
	}
	s.value = value
}

// ObserveHistogram records value in the histogram series (name, labels).
// It returns ErrHistogramNotDefined if name has no bucket definition.
func (r *Registry) ObserveHistogram(name string, value float64, labels Labels) error {
	pairs := labels.canonical()
	key := seriesKey(name, pairs)

	r.mu.Lock()
	defer r.mu.Unlock()
	bounds, ok := r.buckets[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrHistogramNotDefined, name)
	}
	s, ok := r.histograms[key]
	if !ok {
		s = &histogramSeries{name: name, labels: pairs, h: newHistogram(bounds)}
		r.histograms[key] = s
	}
	s.h.observe(value)
	return nil
}

// CounterValue returns the current value of a counter series.
func (r *Registry) CounterValue(name string, labels Labels) (float64, bool) {
	key := seriesKey(name, labels.canonical())
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.counters[key]
	if !ok {
		return 0, false
	}
	return s.value, true
}

// GaugeValue returns the current value of a gauge series.
func (r *Registry) GaugeValue(name string, labels Labels) (float64, bool) {
	key := seriesKey(name, labels.canonical())
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.gauges[key]
	if !ok {
		return 0, false
	}
	return s.value, true
}

// Histogram returns a copy of a histogram series.
func (r *Registry) Histogram(name string, labels Labels) (HistogramSnapshot, bool) {
	key := seriesKey(name, labels.canonical())
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.histograms[key]
	if !ok {
		return HistogramSnapshot{}, false
	}
	return s.h.snapshot(), true
}

// SeriesCount returns the number of counter, gauge and histogram series.
func (r *Registry) SeriesCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.counters) + len(r.gauges) + len(r.histograms)
}

// Render returns the whole registry in text exposition format, terminated by
// exactly one newline.
func (r *Registry) Render() string {
	var b strings.Builder

	r.mu.Lock()
	defer r.mu.Unlock()

	r.writeMetadata(&b)
	writeScalars(&b, sortedScalars(r.counters))
	writeScalars(&b, sortedScalars(r.gauges))
	r.writeHistograms(&b)

	if b.Len() == 0 {
		return "\n"
	}
	return b.String()
}

// WriteTo writes Render output to w.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.Render())
	return int64(n), err
}

func (r *Registry) writeMetadata(b *strings.Builder) {
	names := make([]string, 0, len(r.help)+len(r.types))
	seen := make(map[string]struct{}, len(r.help)+len(r.types))
	for name := range r.help {
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for name := range r.types {
		if _, ok := seen[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if text := r.help[name]; text != "" {
			b.WriteString("# HELP ")
			b.WriteString(name)
			b.WriteByte(' ')
			helpEscaper.WriteString(b, text)
			b.WriteByte('\n')
		}
		if t := r.types[name]; t != "" {
			b.WriteString("# TYPE ")
			b.WriteString(name)
			b.WriteByte(' ')
			b.WriteString(string(t))
			b.WriteByte('\n')
		}
	}
}

func sortedScalars(m map[string]*scalarSeries) []*scalarSeries {
	out := make([]*scalarSeries, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].name != out[j].name {
			return out[i].name < out[j].name
		}
		return compareLabels(out[i].labels, out[j].labels) < 0
	})
	return out
}

func writeScalars(b *strings.Builder, series []*scalarSeries) {
	for _, s := range series {
		writeSample(b, s.name, s.labels, formatFloat(s.value))
	}
}

func (r *Registry) writeHistograms(b *strings.Builder) {
	series := make([]*histogramSeries, 0, len(r.histograms))
	for _, s := range r.histograms {
		series = append(series, s)
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].name != series[j].name {
			return series[i].name < series[j].name
		}
		return compareLabels(series[i].labels, series[j].labels) < 0
	})

	for _, s := range series {
		bucketName := s.name + "_bucket"
		cum := s.h.cumulative()
		for i, le := range s.h.bounds {
			writeSample(b, bucketName, s.labels, formatUint(cum[i]), labelPair{name: "le", value: formatFloat(le)})
		}
		writeSample(b, bucketName, s.labels, formatUint(cum[len(cum)-1]), labelPair{name: "le", value: "+Inf"})
		writeSample(b, s.name+"_sum", s.labels, formatFloat(s.h.sum))
		writeSample(b, s.name+"_count", s.labels, formatUint(s.h.count))
	}
}

func writeSample(b *strings.Builder, name string, labels []labelPair, value string, extra ...labelPair) {
	b.WriteString(name)
	writeLabels(b, labels, extra...)
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}
