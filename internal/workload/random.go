package workload

import "math"

// Rand is the subset of *math/rand.Rand the simulator draws from.
type Rand interface {
	Float64() float64
	ExpFloat64() float64
	NormFloat64() float64
	Intn(n int) int
}

// poissonChunk bounds the mean handed to Knuth's method; exp(-30) is far
// from underflow.
const poissonChunk = 30.0

// poisson draws from a Poisson distribution with mean lambda. Large means
// are split into chunks, since a sum of Poisson draws is Poisson.
func poisson(rng Rand, lambda float64) int {
	if !(lambda > 0) || math.IsInf(lambda, 0) {
		return 0
	}
	n := 0
	for lambda > poissonChunk {
		n += knuthPoisson(rng, poissonChunk)
		lambda -= poissonChunk
	}
	return n + knuthPoisson(rng, lambda)
}

func knuthPoisson(rng Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for p > limit {
		k++
		p *= rng.Float64()
	}
	return k - 1
}

// logNormal draws exp(N(mu, sigma)).
func logNormal(rng Rand, mu, sigma float64) float64 {
	return math.Exp(mu + sigma*rng.NormFloat64())
}

// exponential draws from an exponential distribution with the given mean.
func exponential(rng Rand, mean float64) float64 {
	return rng.ExpFloat64() * mean
}

// uniform draws from [lo, hi).
func uniform(rng Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// intBetween draws an integer from [lo, hi], both inclusive.
func intBetween(rng Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
