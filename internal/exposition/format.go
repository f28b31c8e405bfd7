package exposition

import (
	"math"
	"strconv"
)

// formatFloat renders v as a plain decimal in the shortest form that
// round-trips, independent of locale. Exponent notation is never used.
func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// ContentType is the HTTP content type of Render output.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"
