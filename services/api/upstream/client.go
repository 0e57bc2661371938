package upstream

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	connectTimeout  = 10 * time.Second
	disconnectQuiet = 250 // ms
)

// Config holds the broker connection parameters.
type Config struct {
	// BrokerURL is empty when MQTT is not configured.
	BrokerURL       string
	Username        string
	Password        string
	ClientID        string
	Topics          []string
	ReconnectPeriod time.Duration
}

// MessageHandler receives every message of a subscribed topic, in order.
type MessageHandler func(topic, payload string)

// Observer is told about connectivity changes.
type Observer interface {
	UpstreamConnected(connected bool)
}

// Client subscribes to the sensor topics and feeds messages to a handler.
// Reconnection after a dropped connection is left to paho.
type Client struct {
	cfg     Config
	tracker *Tracker
	log     *logrus.Entry
}

// New builds a client. A missing broker URL yields a client that stays
// disconnected.
func New(cfg Config, observer Observer, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "mqtt-dashboard-" + uuid.NewString()[:8]
	}
	if cfg.ReconnectPeriod <= 0 {
		cfg.ReconnectPeriod = time.Second
	}
	c := &Client{cfg: cfg, log: log}
	c.tracker = NewTracker(log, func(s State) {
		if observer != nil {
			observer.UpstreamConnected(s == Connected)
		}
	})
	return c
}

// Enabled reports whether a broker is configured.
func (c *Client) Enabled() bool {
	return c.cfg.BrokerURL != ""
}

// Connected reports whether the broker connection is up.
func (c *Client) Connected() bool {
	return c.tracker.State() == Connected
}

// Status returns the connection state name.
func (c *Client) Status() string {
	return c.tracker.State().String()
}

// Run connects, retrying until the first success, and then stays connected
// until ctx is cancelled.
func (c *Client) Run(ctx context.Context, handler MessageHandler) {
	if !c.Enabled() {
		c.log.Warn("MQTT is not configured, set MQTT_URL or MQTT_HOST to receive sensor readings")
		return
	}

	cli := mqtt.NewClient(c.options(handler))
	for {
		c.tracker.Connecting()
		err := wait(ctx, cli.Connect())
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			c.tracker.Closed()
			return
		}
		c.tracker.Failed(err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.ReconnectPeriod):
		}
	}

	<-ctx.Done()
	cli.Disconnect(disconnectQuiet)
	c.tracker.Closed()
	c.log.Info("MQTT client stopped")
}

func (c *Client) options(handler MessageHandler) *mqtt.ClientOptions {
	onMessage := func(_ mqtt.Client, msg mqtt.Message) {
		c.log.WithField("topic", msg.Topic()).Debugf("received %s", msg.Payload())
		handler(msg.Topic(), string(msg.Payload()))
	}

	return mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetUsername(c.cfg.Username).
		SetPassword(c.cfg.Password).
		SetCleanSession(true).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetMaxReconnectInterval(c.cfg.ReconnectPeriod).
		SetOnConnectHandler(func(cli mqtt.Client) {
			c.tracker.Connected()
			c.subscribe(cli, onMessage)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.tracker.Lost(err)
		}).
		SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
			c.tracker.Connecting()
		})
}

func (c *Client) subscribe(cli mqtt.Client, onMessage mqtt.MessageHandler) {
	filters := make(map[string]byte, len(c.cfg.Topics))
	for _, t := range c.cfg.Topics {
		filters[t] = 0
	}
	token := cli.SubscribeMultiple(filters, onMessage)
	if !token.WaitTimeout(connectTimeout) {
		c.log.Error("MQTT subscription timed out")
		return
	}
	if err := token.Error(); err != nil {
		c.log.WithError(err).Error("MQTT subscription error")
		return
	}
	c.log.WithField("topics", c.cfg.Topics).Info("subscribed to sensor topics")
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
