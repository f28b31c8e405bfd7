package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{0, "0-512"},
		{1, "0-512"},
		{512, "0-512"},
		{513, "512-1k"},
		{1024, "512-1k"},
		{1025, "1k-2k"},
		{2048, "1k-2k"},
		{2049, "2k-4k"},
		{4096, "2k-4k"},
		{4097, "4k-8k"},
		{8192, "4k-8k"},
		{8193, "8k+"},
		{100000, "8k+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TokenBucket(tt.total), "total=%d", tt.total)
	}
}

func TestSampleTokens_WeightSelection(t *testing.T) {
	weights := ProfileFor(ModeNormal).TokenWeights

	tests := []struct {
		name    string
		r       float64
		intn    int
		wantMin int
		wantMax int
	}{
		{"first row lower edge", 0.0, 0, 20, 20},
		{"first row inclusive threshold", 0.55, 0, 20, 20},
		{"second row", 0.56, 0, 400, 400},
		{"third row upper", 0.95, 1 << 30, 4000, 4000},
		{"last row", 0.999, 0, 4000, 4000},
		{"past the table falls back", 1.5, 1 << 30, 400, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := newScriptedRand(tt.r)
			rng.intn = tt.intn
			input, output := sampleTokens(rng, weights)
			assert.GreaterOrEqual(t, input, tt.wantMin)
			assert.LessOrEqual(t, input, tt.wantMax)
			assert.GreaterOrEqual(t, output, 1)
		})
	}
}

func TestSampleTokens_OutputFloor(t *testing.T) {
	rng := newScriptedRand(0.1)
	rng.norm = -50
	_, output := sampleTokens(rng, ProfileFor(ModeNormal).TokenWeights)
	assert.Equal(t, 1, output)
}
