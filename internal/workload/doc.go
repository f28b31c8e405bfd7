// Package workload generates synthetic LLM gateway traffic and records it in
// an exposition.Registry.
//
// A Simulator advances in discrete steps. Each Step draws a Poisson number of
// requests for every (service, channel) pair and, per request, correlated
// outcomes: status code, token counts, latencies, queue writes, retries and
// errors. Outcome probabilities come from a Profile selected by Mode.
//
// All randomness flows through the Rand interface, so a seeded
// *math/rand.Rand makes runs reproducible.
package workload
