package sensor

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum spacing of alerts for a metric that stays out of range.
const DefaultCooldown = 5 * time.Minute

// Evaluation is the outcome of checking one reading against its threshold.
type Evaluation struct {
	// Fired is set when Alert holds a new alert.
	Fired bool
	Alert Alert
	// Suppressed is set when the reading breached but the cooldown held it back.
	Suppressed bool
	// Reset is set when an in-range reading cleared a pending cooldown.
	Reset bool
}

// Evaluator applies threshold, hysteresis and cooldown policy and owns the
// per-metric time of the last alert.
type Evaluator struct {
	thresholds *Thresholds
	cooldown   time.Duration

	mu       sync.Mutex
	lastSent map[MetricType]time.Time
}

func NewEvaluator(thresholds *Thresholds, cooldown time.Duration) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
		cooldown:   cooldown,
		lastSent:   make(map[MetricType]time.Time),
	}
}

// Evaluate decides whether value, read at now, raises a new alert. Metrics
// without a threshold are never alerted on.
func (e *Evaluator) Evaluate(metric MetricType, value float64, now time.Time) Evaluation {
	th, ok := e.thresholds.Get(metric)
	if !ok {
		return Evaluation{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	last, pending := e.lastSent[metric]
	if th.Contains(value) {
		if pending {
			delete(e.lastSent, metric)
			return Evaluation{Reset: true}
		}
		return Evaluation{}
	}

	// The interval must be exceeded, not merely reached.
	if pending && now.Sub(last) <= e.cooldown {
		return Evaluation{Suppressed: true}
	}

	e.lastSent[metric] = now
	return Evaluation{Fired: true, Alert: newAlert(metric, value, th, now)}
}

// LastAlert returns when the last alert for metric was raised, if a cooldown is pending.
func (e *Evaluator) LastAlert(metric MetricType) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.lastSent[metric]
	return t, ok
}
