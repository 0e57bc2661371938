// Package metrics exposes Prometheus instrumentation for the dashboard backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
)

const namespace = "mqtt_dashboard"

// Recorder implements the observer hooks of the sensor, hub, notify and
// upstream packages.
type Recorder struct {
	registry *prometheus.Registry

	readings         *prometheus.CounterVec
	readingsDropped  prometheus.Counter
	alerts           *prometheus.CounterVec
	alertsSuppressed *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	notifyDropped    prometheus.Counter
	viewers          prometheus.Gauge
	upstream         prometheus.Gauge
}

// NewRecorder registers all collectors on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Sensor readings applied to the snapshot, by metric and kind (numeric or raw).",
		}, []string{"metric", "kind"}),
		readingsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_dropped_total",
			Help:      "Messages on topics that map to no known metric.",
		}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts raised, by metric and status.",
		}, []string{"metric", "status"}),
		alertsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_suppressed_total",
			Help:      "Breaches held back by the alert cooldown.",
		}, []string{"metric"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Alert notification attempts, by sink and result.",
		}, []string{"sink", "result"}),
		notifyDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Alert notifications dropped because the queue was full.",
		}),
		viewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "viewers",
			Help:      "Connected websocket viewers.",
		}),
		upstream: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_connected",
			Help:      "1 while the MQTT broker connection is up.",
		}),
	}
	r.registry.MustRegister(
		r.readings, r.readingsDropped, r.alerts, r.alertsSuppressed,
		r.notifications, r.notifyDropped, r.viewers, r.upstream,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) ReadingIngested(metric sensor.MetricType, numeric bool) {
	kind := "raw"
	if numeric {
		kind = "numeric"
	}
	r.readings.WithLabelValues(string(metric), kind).Inc()
}

func (r *Recorder) ReadingDropped(string) {
	r.readingsDropped.Inc()
}

func (r *Recorder) AlertRaised(alert sensor.Alert) {
	r.alerts.WithLabelValues(string(alert.Type), string(alert.Status)).Inc()
}

func (r *Recorder) AlertSuppressed(metric sensor.MetricType) {
	r.alertsSuppressed.WithLabelValues(string(metric)).Inc()
}

func (r *Recorder) NotificationDelivered(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.notifications.WithLabelValues(sink, result).Inc()
}

func (r *Recorder) NotificationDropped() {
	r.notifyDropped.Inc()
}

func (r *Recorder) ViewersChanged(n int) {
	r.viewers.Set(float64(n))
}

func (r *Recorder) UpstreamConnected(connected bool) {
	if connected {
		r.upstream.Set(1)
		return
	}
	r.upstream.Set(0)
}
