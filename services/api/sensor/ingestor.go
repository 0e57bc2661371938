package sensor

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Broadcaster is told whenever the snapshot changed.
type Broadcaster interface {
	NotifyChanged()
}

// Notifier accepts new alerts for delivery. Implementations must not block.
type Notifier interface {
	Notify(alert Alert)
}

// Observer receives ingest events for instrumentation.
type Observer interface {
	ReadingIngested(metric MetricType, numeric bool)
	ReadingDropped(topic string)
	AlertRaised(alert Alert)
	AlertSuppressed(metric MetricType)
}

// IngestResult describes what a single message did to the state.
type IngestResult struct {
	Metric     MetricType
	Recognized bool
	Numeric    bool
	// Stored is the value written to the snapshot.
	Stored     string
	Alert      *Alert
	Suppressed bool
}

// Ingestor turns raw (topic, payload) pairs into snapshot updates and alerts.
type Ingestor struct {
	thresholds  *Thresholds
	aggregator  *Aggregator
	evaluator   *Evaluator
	broadcaster Broadcaster
	notifier    Notifier
	observer    Observer
	log         *logrus.Entry
	now         func() time.Time

	mu sync.Mutex
}

// IngestorDeps groups the collaborators of an Ingestor. Broadcaster,
// Notifier and Observer may be nil.
type IngestorDeps struct {
	Thresholds  *Thresholds
	Aggregator  *Aggregator
	Evaluator   *Evaluator
	Broadcaster Broadcaster
	Notifier    Notifier
	Observer    Observer
	Log         *logrus.Entry
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewIngestor(d IngestorDeps) *Ingestor {
	in := &Ingestor{
		thresholds:  d.Thresholds,
		aggregator:  d.Aggregator,
		evaluator:   d.Evaluator,
		broadcaster: d.Broadcaster,
		notifier:    d.Notifier,
		observer:    d.Observer,
		log:         d.Log,
		now:         d.Now,
	}
	if in.broadcaster == nil {
		in.broadcaster = nopBroadcaster{}
	}
	if in.notifier == nil {
		in.notifier = nopNotifier{}
	}
	if in.observer == nil {
		in.observer = nopObserver{}
	}
	if in.log == nil {
		in.log = logrus.NewEntry(logrus.StandardLogger())
	}
	if in.now == nil {
		in.now = time.Now
	}
	return in
}

// Classify maps a topic to the first known metric whose name it contains.
func (in *Ingestor) Classify(topic string) (MetricType, bool) {
	for _, m := range in.thresholds.Metrics() {
		if strings.Contains(topic, string(m)) {
			return m, true
		}
	}
	return "", false
}

// Ingest applies one upstream message. It never fails: a payload that is not
// a number is shown verbatim and skips alert evaluation.
func (in *Ingestor) Ingest(topic, payload string) IngestResult {
	metric, ok := in.Classify(topic)
	if !ok {
		in.log.WithField("topic", topic).Debug("ignoring message on unrecognized topic")
		in.observer.ReadingDropped(topic)
		return IngestResult{}
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	now := in.now()
	res := IngestResult{Metric: metric, Recognized: true}
	value, numeric := ParseReading(payload)
	if !numeric {
		res.Stored = payload
		in.aggregator.UpdateMetric(metric, payload, now)
		in.log.WithFields(logrus.Fields{"topic": topic, "payload": payload}).Debug("non-numeric reading stored as is")
	} else {
		res.Numeric = true
		res.Stored = FormatValue(value)
		in.aggregator.UpdateMetric(metric, res.Stored, now)

		eval := in.evaluator.Evaluate(metric, value, now)
		switch {
		case eval.Fired:
			alert := eval.Alert
			in.aggregator.RecordAlert(alert)
			res.Alert = &alert
			in.observer.AlertRaised(alert)
			in.log.WithField("metric", metric).Warnf("ALERT: %s", alert.Message)
		case eval.Suppressed:
			res.Suppressed = true
			in.observer.AlertSuppressed(metric)
		case eval.Reset:
			in.log.WithField("metric", metric).Infof("%s back to normal: %s", strings.ToUpper(string(metric)), res.Stored)
		}
	}
	in.observer.ReadingIngested(metric, numeric)

	in.broadcaster.NotifyChanged()
	if res.Alert != nil {
		in.notifier.Notify(*res.Alert)
	}
	return res
}

type nopBroadcaster struct{}

func (nopBroadcaster) NotifyChanged() {}

type nopNotifier struct{}

func (nopNotifier) Notify(Alert) {}

type nopObserver struct{}

func (nopObserver) ReadingIngested(MetricType, bool) {}
func (nopObserver) ReadingDropped(string)            {}
func (nopObserver) AlertRaised(Alert)                {}
func (nopObserver) AlertSuppressed(MetricType)       {}
