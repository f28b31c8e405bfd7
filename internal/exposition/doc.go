// Package exposition implements an in-memory metrics registry that renders
// its state in the Prometheus text exposition format.
//
// # Overview
//
// A Registry stores three kinds of series, each keyed by metric name and a
// canonical label set:
//
//   - Counters: monotonically increasing float64 values
//   - Gauges: last-write-wins float64 values
//   - Histograms: cumulative-bucket accumulators with sum and count
//
// Histograms must be defined with DefineHistogram before the first
// observation. Observing an undefined histogram returns ErrHistogramNotDefined.
//
// # Usage
//
//	reg := exposition.NewRegistry()
//	_ = reg.DefineHistogram("llm_ttft", []float64{0.1, 0.5, 1}, "Time to first token (seconds).")
//	reg.IncCounter("llm_request_count", 1, exposition.Labels{"service": "svc", "status_code": "200"})
//	_ = reg.ObserveHistogram("llm_ttft", 0.2, exposition.Labels{"service": "svc"})
//	fmt.Print(reg.Render())
//
// # Output
//
//	# HELP llm_ttft Time to first token (seconds).
//	# TYPE llm_ttft histogram
//	llm_request_count{service="svc",status_code="200"} 1
//	llm_ttft_bucket{le="0.1",service="svc"} 0
//	llm_ttft_bucket{le="0.5",service="svc"} 1
//	llm_ttft_bucket{le="1",service="svc"} 1
//	llm_ttft_bucket{le="+Inf",service="svc"} 1
//	llm_ttft_sum{service="svc"} 0.2
//	llm_ttft_count{service="svc"} 1
//
// # Concurrency
//
// All operations are guarded by a single mutex. Render holds the lock for the
// whole document, so no series is ever read in the middle of a mutation.
//
// # Validation
//
// By default the registry accepts any input: unsorted bounds, negative
// counter increments, NaN and infinities are stored and rendered verbatim.
// WithStrictValidation opts into rejecting malformed histogram definitions.
package exposition
