package workload

import "math"

// Token size classes used as the token_bucket label.
const (
	Bucket0To512   = "0-512"
	Bucket512To1k  = "512-1k"
	Bucket1kTo2k   = "1k-2k"
	Bucket2kTo4k   = "2k-4k"
	Bucket4kTo8k   = "4k-8k"
	Bucket8kOrMore = "8k+"
)

// TokenBucket classifies a total token count. Upper edges are inclusive.
func TokenBucket(total int) string {
	switch {
	case total <= 512:
		return Bucket0To512
	case total <= 1024:
		return Bucket512To1k
	case total <= 2048:
		return Bucket1kTo2k
	case total <= 4096:
		return Bucket2kTo4k
	case total <= 8192:
		return Bucket4kTo8k
	}
	return Bucket8kOrMore
}

const (
	outputTokensMedian = 120
	outputTokensSigma  = 0.7
)

// sampleTokens draws input tokens from the profile's weight table and output
// tokens from a log-normal around 120.
func sampleTokens(rng Rand, weights []TokenWeight) (input, output int) {
	r := rng.Float64()
	lo, hi := 20, 400
	acc := 0.0
	for _, w := range weights {
		acc += w.Prob
		if r <= acc {
			lo, hi = w.Min, w.Max
			break
		}
	}
	input = intBetween(rng, lo, hi)

	output = int(logNormal(rng, math.Log(outputTokensMedian), outputTokensSigma))
	if output < 1 {
		output = 1
	}
	return input, output
}
