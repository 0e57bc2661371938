package publisher

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	clientIDPrefix = "mqtt-dashboard-sim-"
	connectTimeout = 10 * time.Second
)

// Options holds the broker connection parameters.
type Options struct {
	BrokerURL string
	Username  string
	Password  string
	ClientID  string
}

// Publisher sends readings to the broker at QoS 0.
type Publisher struct {
	client mqtt.Client
	log    *logrus.Entry
}

// Connect dials the broker and blocks until the session is up or ctx ends.
func Connect(ctx context.Context, opts Options, log *logrus.Entry) (*Publisher, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	client := mqtt.NewClient(clientOptions(opts, log))
	if err := wait(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("connect %s: %w", opts.BrokerURL, err)
	}
	log.WithField("broker", opts.BrokerURL).Info("connected to broker")
	return &Publisher{client: client, log: log}, nil
}

func clientOptions(opts Options, log *logrus.Entry) *mqtt.ClientOptions {
	if opts.ClientID == "" {
		opts.ClientID = clientIDPrefix + uuid.NewString()[:8]
	}
	return mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("connection to broker lost")
		})
}

// Publish sends payload on topic.
func (p *Publisher) Publish(ctx context.Context, topic, payload string) error {
	if err := wait(ctx, p.client.Publish(topic, 0, false, payload)); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
