// Package notify delivers alerts to external sinks in the background.
// Delivery is best effort: failures are logged and counted, never retried
// and never reported back to the caller.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
)

// DefaultQueueSize is the number of alerts that may wait for delivery.
const DefaultQueueSize = 64

// Sink is one delivery channel for alerts.
type Sink interface {
	Name() string
	Send(ctx context.Context, alert sensor.Alert) error
}

// Observer is told about every delivery outcome.
type Observer interface {
	NotificationDelivered(sink string, err error)
	NotificationDropped()
}

// Dispatcher queues alerts and hands them to every sink on a worker goroutine.
type Dispatcher struct {
	sinks    []Sink
	queue    chan sensor.Alert
	observer Observer
	log      *logrus.Entry
}

func NewDispatcher(queueSize int, observer Observer, log *logrus.Entry, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dispatcher{
		sinks:    sinks,
		queue:    make(chan sensor.Alert, queueSize),
		observer: observer,
		log:      log,
	}
}

// Sinks returns the names of the configured sinks.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Notify enqueues alert and returns immediately. When the queue is full the
// alert is not delivered.
func (d *Dispatcher) Notify(alert sensor.Alert) {
	if len(d.sinks) == 0 {
		return
	}
	select {
	case d.queue <- alert:
	default:
		d.log.WithField("metric", alert.Type).Warn("notification queue full, dropping alert notification")
		if d.observer != nil {
			d.observer.NotificationDropped()
		}
	}
}

// Run delivers queued alerts until ctx is cancelled. A delivery in progress
// is not cancelled with ctx.
func (d *Dispatcher) Run(ctx context.Context) {
	sendCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			if n := len(d.queue); n > 0 {
				d.log.Warnf("stopping with %d undelivered alert notifications", n)
			}
			return
		case alert := <-d.queue:
			d.deliver(sendCtx, alert)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, alert sensor.Alert) {
	for _, s := range d.sinks {
		err := s.Send(ctx, alert)
		if d.observer != nil {
			d.observer.NotificationDelivered(s.Name(), err)
		}
		entry := d.log.WithFields(logrus.Fields{"sink": s.Name(), "metric": alert.Type})
		if err != nil {
			entry.WithError(err).Error("failed to deliver alert notification")
			continue
		}
		entry.Debug("alert notification delivered")
	}
}
