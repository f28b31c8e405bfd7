package main

import (
	"sync"

	"github.com/arun0009/llm-metrics-simulator/internal/workload"
)

// broadcaster fans step summaries out to stream subscribers. Slow
// subscribers miss summaries rather than block the simulation loop.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan workload.StepSummary]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan workload.StepSummary]struct{})}
}

// subscribe returns a channel of summaries and a function that removes it.
func (b *broadcaster) subscribe() (<-chan workload.StepSummary, func()) {
	ch := make(chan workload.StepSummary, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
		})
	}
}

func (b *broadcaster) publish(s workload.StepSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (b *broadcaster) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
