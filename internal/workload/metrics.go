package workload

import (
	"fmt"

	"github.com/arun0009/llm-metrics-simulator/internal/exposition"
)

// Metric names written by the simulator.
const (
	MetricRequestCount                     = "llm_request_count"
	MetricChannelRequestCount              = "channel_llm_request_count"
	MetricRequestCountByTokenBucket        = "llm_request_count_by_token_bucket"
	MetricChannelRequestCountByTokenBucket = "channel_llm_request_count_by_token_bucket"

	MetricInputTokens              = "llm_input_tokens"
	MetricOutputTokens             = "llm_output_tokens"
	MetricTotalTokens              = "llm_total_tokens"
	MetricTotalTokensByTokenBucket = "llm_total_tokens_by_token_bucket"

	MetricActiveRequests = "llm_chat_handler_active_count"

	MetricQueueWaiting        = "llm_record_mq_write_waiting"
	MetricQueueWriteDuration  = "llm_record_mq_write_duration_seconds"
	MetricQueueWriteErrors    = "llm_record_mq_write_error_count"
	MetricQueueWriteRetries   = "llm_record_mq_write_retry_count"
	MetricFallbackWriteErrors = "llm_record_temp_store_write_error_count"

	MetricRequestDuration = "llm_request_duration"
	MetricTTFT            = "llm_ttft"
	MetricOTPS            = "llm_otps"
	MetricTPOT            = "llm_tpot"
)

// Status code label values.
const (
	StatusOK             = "200"
	StatusClientCanceled = "499"
	StatusServerError    = "500"
)

type histogramDef struct {
	name   string
	bounds []float64
	help   string
}

var histogramDefs = []histogramDef{
	{MetricQueueWriteDuration, []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2}, "Gateway MQ write duration (seconds)."},
	{MetricRequestDuration, []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 30, 60, 120}, "End-to-end request duration (seconds)."},
	{MetricTTFT, []float64{0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10}, "Time to first token (seconds)."},
	{MetricOTPS, []float64{5, 10, 20, 30, 50, 80, 120, 200, 400, 800}, "Output tokens per second (tokens/s)."},
	{MetricTPOT, []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1}, "Time per output token (seconds/token)."},
}

type metaDef struct {
	name string
	typ  exposition.MetricType
	help string
}

var metaDefs = []metaDef{
	{MetricRequestCount, exposition.TypeCounter, "Total requests."},
	{MetricChannelRequestCount, exposition.TypeCounter, "Total requests by channel."},
	{MetricRequestCountByTokenBucket, exposition.TypeCounter, "Requests bucketed by token length."},
	{MetricChannelRequestCountByTokenBucket, exposition.TypeCounter, "Requests bucketed by token length (channel)."},
	{MetricTotalTokens, exposition.TypeCounter, "Total tokens consumed."},
	{MetricInputTokens, exposition.TypeCounter, "Input tokens consumed."},
	{MetricOutputTokens, exposition.TypeCounter, "Output tokens produced."},
	{MetricTotalTokensByTokenBucket, exposition.TypeCounter, "Total tokens bucketed by token length."},
	{MetricActiveRequests, exposition.TypeGauge, "In-flight request count."},
	{MetricQueueWaiting, exposition.TypeGauge, "Waiting MQ write backlog."},
	{MetricQueueWriteErrors, exposition.TypeCounter, "MQ write errors (counter)."},
	{MetricFallbackWriteErrors, exposition.TypeCounter, "Temp store write errors (counter)."},
	{MetricQueueWriteRetries, exposition.TypeCounter, "MQ write retries (counter)."},
}

// registerMetrics defines every histogram and the metadata of every other
// metric the simulator writes.
func registerMetrics(reg *exposition.Registry) error {
	for _, d := range histogramDefs {
		if err := reg.DefineHistogram(d.name, d.bounds, d.help); err != nil {
			return fmt.Errorf("define %s: %w", d.name, err)
		}
	}
	for _, d := range metaDefs {
		reg.SetHelp(d.name, d.help)
		reg.SetType(d.name, d.typ)
	}
	return nil
}
