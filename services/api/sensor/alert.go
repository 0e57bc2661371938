package sensor

import (
	"fmt"
	"strings"
	"time"
)

// AlertStatus tells on which side of the range a breach happened.
type AlertStatus string

const (
	StatusLow  AlertStatus = "low"
	StatusHigh AlertStatus = "high"
)

// TimestampLayout is the ISO-8601 form used for alert timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Alert is an immutable record of a threshold breach.
type Alert struct {
	Type      MetricType  `json:"type"`
	Value     string      `json:"value"`
	Threshold Threshold   `json:"threshold"`
	Status    AlertStatus `json:"status"`
	Timestamp string      `json:"timestamp"`
	Message   string      `json:"message"`
}

// Time parses the alert timestamp. The zero time is returned for a malformed value.
func (a Alert) Time() time.Time {
	t, err := time.Parse(TimestampLayout, a.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

func newAlert(metric MetricType, value float64, th Threshold, now time.Time) Alert {
	status := StatusHigh
	if value < th.Min {
		status = StatusLow
	}
	formatted := FormatValue(value)
	return Alert{
		Type:      metric,
		Value:     formatted,
		Threshold: th,
		Status:    status,
		Timestamp: now.UTC().Format(TimestampLayout),
		Message: fmt.Sprintf("%s is %s: %s (Normal range: %s-%s)",
			strings.ToUpper(string(metric)), strings.ToUpper(string(status)), formatted,
			formatBound(th.Min), formatBound(th.Max)),
	}
}
