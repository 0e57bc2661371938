package notify

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
)

// KafkaSink publishes alerts as JSON, keyed by metric so that alerts of one
// metric stay ordered within a partition.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Send(ctx context.Context, alert sensor.Alert) error {
	msg, err := alertMessage(alert)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert to %s: %w", s.writer.Topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

func alertMessage(alert sensor.Alert) (kafka.Message, error) {
	value, err := json.Marshal(alert)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode alert: %w", err)
	}
	msg := kafka.Message{Key: []byte(alert.Type), Value: value}
	if t := alert.Time(); !t.IsZero() {
		msg.Time = t
	}
	return msg, nil
}
