package sensor

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	// MaxAlertHistory bounds Snapshot.Alerts.
	MaxAlertHistory = 10
	// DefaultDomain labels a snapshot when none is configured.
	DefaultDomain = "default"
	// LastUpdatedLayout formats Snapshot.LastUpdated.
	LastUpdatedLayout = "2006-01-02 15:04:05"
)

// Snapshot is the complete dashboard state pushed to viewers.
type Snapshot struct {
	Values      map[MetricType]string
	LastUpdated string
	Domain      string
	// Alerts is ordered newest first.
	Alerts []Alert
}

// Value returns the displayed value of metric.
func (s Snapshot) Value(metric MetricType) string {
	if v, ok := s.Values[metric]; ok {
		return v
	}
	return Unavailable
}

// MarshalJSON flattens metric values into top-level keys next to
// lastUpdated, domain and alerts.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Values)+3)
	for metric, v := range s.Values {
		out[string(metric)] = v
	}
	alerts := s.Alerts
	if alerts == nil {
		alerts = []Alert{}
	}
	out["lastUpdated"] = s.LastUpdated
	out["domain"] = s.Domain
	out["alerts"] = alerts
	return json.Marshal(out)
}

func (s Snapshot) clone() Snapshot {
	values := make(map[MetricType]string, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	alerts := make([]Alert, len(s.Alerts))
	copy(alerts, s.Alerts)
	return Snapshot{Values: values, LastUpdated: s.LastUpdated, Domain: s.Domain, Alerts: alerts}
}

// Aggregator owns the single Snapshot. All mutation goes through it and
// every mutation is applied atomically.
type Aggregator struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewAggregator starts every metric as Unavailable.
func NewAggregator(metrics []MetricType, domain string) *Aggregator {
	if domain == "" {
		domain = DefaultDomain
	}
	values := make(map[MetricType]string, len(metrics))
	for _, m := range metrics {
		values[m] = Unavailable
	}
	return &Aggregator{snap: Snapshot{
		Values:      values,
		LastUpdated: Unavailable,
		Domain:      domain,
		Alerts:      []Alert{},
	}}
}

// UpdateMetric stores the displayed value of metric together with the time of the reading.
func (a *Aggregator) UpdateMetric(metric MetricType, value string, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap.Values[metric] = value
	a.snap.LastUpdated = at.Format(LastUpdatedLayout)
}

// RecordAlert prepends alert to the history and evicts anything past MaxAlertHistory.
func (a *Aggregator) RecordAlert(alert Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	keep := len(a.snap.Alerts)
	if keep > MaxAlertHistory-1 {
		keep = MaxAlertHistory - 1
	}
	alerts := make([]Alert, 0, keep+1)
	alerts = append(alerts, alert)
	alerts = append(alerts, a.snap.Alerts[:keep]...)
	a.snap.Alerts = alerts
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap.clone()
}

// SnapshotJSON serializes the current state.
func (a *Aggregator) SnapshotJSON() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return json.Marshal(a.snap)
}
