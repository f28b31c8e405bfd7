package exposition

import "errors"

var (
	// ErrHistogramNotDefined is returned when observing a histogram name that
	// was never passed to DefineHistogram.
	ErrHistogramNotDefined = errors.New("histogram not defined")

	// ErrInvalidBuckets is returned in strict mode for empty, non-finite or
	// non-increasing bucket bounds.
	ErrInvalidBuckets = errors.New("invalid histogram buckets")

	// ErrInvalidName is returned in strict mode for metric names outside
	// [a-zA-Z_:][a-zA-Z0-9_:]*.
	ErrInvalidName = errors.New("invalid metric name")

	// ErrHistogramRedefined is returned in strict mode when a histogram is
	// defined again with different bounds.
	ErrHistogramRedefined = errors.New("histogram redefined with different buckets")
)
