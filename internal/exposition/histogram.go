package exposition

// histogram accumulates observations for one series. Counts are raw per
// bucket; the last slot is the +Inf bucket.
type histogram struct {
	bounds []float64
	counts []uint64
	sum    float64
	count  uint64
}

func newHistogram(bounds []float64) *histogram {
	return &histogram{
		bounds: bounds,
		counts: make([]uint64, len(bounds)+1),
	}
}

func (h *histogram) observe(v float64) {
	idx := len(h.bounds)
	for i, le := range h.bounds {
		if v <= le {
			idx = i
			break
		}
	}
	h.counts[idx]++
	h.sum += v
	h.count++
}

// cumulative returns running totals, one per bound plus +Inf.
func (h *histogram) cumulative() []uint64 {
	out := make([]uint64, len(h.counts))
	var acc uint64
	for i, c := range h.counts {
		acc += c
		out[i] = acc
	}
	return out
}

// HistogramSnapshot is a copy of one histogram series.
type HistogramSnapshot struct {
	Bounds []float64
	// Cumulative holds len(Bounds)+1 entries; the last is the +Inf bucket.
	Cumulative []uint64
	Sum        float64
	Count      uint64
}

func (h *histogram) snapshot() HistogramSnapshot {
	return HistogramSnapshot{
		Bounds:     append([]float64(nil), h.bounds...),
		Cumulative: h.cumulative(),
		Sum:        h.sum,
		Count:      h.count,
	}
}
