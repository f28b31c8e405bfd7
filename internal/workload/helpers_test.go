package workload

import (
	"time"
)

// scriptedRand replays queued Float64 values and returns fixed values for
// every other draw.
type scriptedRand struct {
	floats []float64
	def    float64
	norm   float64
	exp    float64
	intn   int
}

func newScriptedRand(floats ...float64) *scriptedRand {
	return &scriptedRand{floats: floats, def: 0.5, exp: 1}
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) > 0 {
		v := r.floats[0]
		r.floats = r.floats[1:]
		return v
	}
	return r.def
}

func (r *scriptedRand) ExpFloat64() float64  { return r.exp }
func (r *scriptedRand) NormFloat64() float64 { return r.norm }

func (r *scriptedRand) Intn(n int) int {
	if r.intn >= n {
		return n - 1
	}
	return r.intn
}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
