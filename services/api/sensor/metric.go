package sensor

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// MetricType names a tracked sensor metric.
type MetricType string

const (
	Temperature MetricType = "temperature"
	Heartbeat   MetricType = "heartbeat"
)

// Unavailable is the displayed value of a metric that has not reported yet.
const Unavailable = "N/A"

var numericPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseReading parses a raw payload the way sensor firmware emits it. A
// payload with trailing units ("23.5C") yields its leading number.
func ParseReading(payload string) (float64, bool) {
	s := strings.TrimSpace(payload)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		prefix := numericPrefix.FindString(s)
		if prefix == "" {
			return 0, false
		}
		if v, err = strconv.ParseFloat(prefix, 64); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatValue renders a reading with exactly two decimals. Ties on the exact
// binary value round away from zero and negative zero prints as "0.00".
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	// exact for any magnitude a sensor reports
	scaled := new(big.Float).SetPrec(256).SetFloat64(math.Abs(v))
	scaled.Mul(scaled, big.NewFloat(100))
	scaled.Add(scaled, big.NewFloat(0.5))
	hundredths, _ := scaled.Int(nil)

	digits := hundredths.String()
	if len(digits) < 3 {
		digits = strings.Repeat("0", 3-len(digits)) + digits
	}
	out := digits[:len(digits)-2] + "." + digits[len(digits)-2:]
	if v < 0 {
		out = "-" + out
	}
	return out
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
