package sensor

import "fmt"

// Threshold is the inclusive normal range of a metric.
type Threshold struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range; both bounds are in range.
func (t Threshold) Contains(v float64) bool {
	return v >= t.Min && v <= t.Max
}

// MetricThreshold binds a metric to its configured range.
type MetricThreshold struct {
	Metric MetricType
	Bounds Threshold
}

// DefaultThresholds returns the built-in ranges in classification order.
func DefaultThresholds() []MetricThreshold {
	return []MetricThreshold{
		{Metric: Temperature, Bounds: Threshold{Min: 20, Max: 30}},
		{Metric: Heartbeat, Bounds: Threshold{Min: 60, Max: 100}},
	}
}

// Thresholds is the read-only threshold store. It is populated once at
// startup and exposes no mutators.
type Thresholds struct {
	order  []MetricType
	bounds map[MetricType]Threshold
}

// NewThresholds builds the store. Entry order is kept and decides which
// metric wins when a topic matches more than one name.
func NewThresholds(entries ...MetricThreshold) (*Thresholds, error) {
	t := &Thresholds{
		order:  make([]MetricType, 0, len(entries)),
		bounds: make(map[MetricType]Threshold, len(entries)),
	}
	for _, e := range entries {
		if e.Metric == "" {
			return nil, fmt.Errorf("threshold with empty metric name")
		}
		if _, dup := t.bounds[e.Metric]; dup {
			return nil, fmt.Errorf("duplicate threshold for %s", e.Metric)
		}
		if e.Bounds.Min > e.Bounds.Max {
			return nil, fmt.Errorf("threshold for %s: min %v exceeds max %v", e.Metric, e.Bounds.Min, e.Bounds.Max)
		}
		t.order = append(t.order, e.Metric)
		t.bounds[e.Metric] = e.Bounds
	}
	return t, nil
}

// Get returns the range for a metric.
func (t *Thresholds) Get(metric MetricType) (Threshold, bool) {
	th, ok := t.bounds[metric]
	return th, ok
}

// Metrics lists the known metrics in configuration order.
func (t *Thresholds) Metrics() []MetricType {
	out := make([]MetricType, len(t.order))
	copy(out, t.order)
	return out
}
