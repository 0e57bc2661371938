package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/Winner-yo/mqtt-dashboard/services/api/notify"
	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
	"github.com/Winner-yo/mqtt-dashboard/services/api/upstream"
)

// Config holds environment-driven settings for the dashboard backend.
type Config struct {
	Port     int    `env:"PORT,default=4000"`
	Domain   string `env:"SENSOR_DOMAIN,default=default"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	MQTT       MQTTConfig
	Thresholds ThresholdConfig

	AlertCooldown   time.Duration `env:"ALERT_COOLDOWN,default=5m"`
	NotifyQueueSize int           `env:"NOTIFY_QUEUE_SIZE,default=64"`

	SMTP SMTPConfig

	// DatabaseURL enables the alert archive.
	DatabaseURL string `env:"DATABASE_URL"`

	Kafka KafkaConfig
}

// MQTTConfig holds the broker connection. Either URL or Host enables it.
type MQTTConfig struct {
	URL             string        `env:"MQTT_URL"`
	Host            string        `env:"MQTT_HOST"`
	Port            int           `env:"MQTT_PORT,default=1883"`
	Protocol        string        `env:"MQTT_PROTOCOL,default=mqtt"`
	Username        string        `env:"MQTT_USERNAME"`
	Password        string        `env:"MQTT_PASSWORD"`
	TempTopic       string        `env:"MQTT_TEMP_TOPIC,default=dht11/temperature"`
	HeartbeatTopic  string        `env:"MQTT_HEARTBEAT_TOPIC,default=dht11/heartbeat"`
	ReconnectPeriod time.Duration `env:"MQTT_RECONNECT_PERIOD,default=1s"`
}

// ThresholdConfig holds the normal range of each metric.
type ThresholdConfig struct {
	TempMin      float64 `env:"TEMP_MIN,default=20"`
	TempMax      float64 `env:"TEMP_MAX,default=30"`
	HeartbeatMin float64 `env:"HEARTBEAT_MIN,default=60"`
	HeartbeatMax float64 `env:"HEARTBEAT_MAX,default=100"`
}

// SMTPConfig holds the alert mail transport. Without credentials mail is off.
type SMTPConfig struct {
	Host       string `env:"SMTP_HOST,default=smtp.gmail.com"`
	Port       int    `env:"SMTP_PORT,default=587"`
	User       string `env:"SMTP_USER"`
	Password   string `env:"SMTP_PASSWORD"`
	AlertEmail string `env:"ALERT_EMAIL"`
}

// KafkaConfig enables publishing alerts when Brokers is set.
type KafkaConfig struct {
	// Brokers is a comma separated host:port list.
	Brokers    string `env:"KAFKA_BROKERS"`
	AlertTopic string `env:"KAFKA_ALERT_TOPIC,default=sensor-alerts"`
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if c.Thresholds.TempMin > c.Thresholds.TempMax {
		return fmt.Errorf("TEMP_MIN %v exceeds TEMP_MAX %v", c.Thresholds.TempMin, c.Thresholds.TempMax)
	}
	if c.Thresholds.HeartbeatMin > c.Thresholds.HeartbeatMax {
		return fmt.Errorf("HEARTBEAT_MIN %v exceeds HEARTBEAT_MAX %v", c.Thresholds.HeartbeatMin, c.Thresholds.HeartbeatMax)
	}
	if c.AlertCooldown < 0 {
		return fmt.Errorf("invalid ALERT_COOLDOWN: %s", c.AlertCooldown)
	}
	if c.NotifyQueueSize <= 0 {
		return fmt.Errorf("invalid NOTIFY_QUEUE_SIZE: %d", c.NotifyQueueSize)
	}
	return nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// BrokerURL returns the broker address for paho, or "" when MQTT is not configured.
func (c MQTTConfig) BrokerURL() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Host == "" {
		return ""
	}
	scheme := strings.ToLower(c.Protocol)
	switch scheme {
	case "", "mqtt":
		scheme = "tcp"
	case "mqtts":
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// Upstream returns the transport settings.
func (c Config) Upstream() upstream.Config {
	return upstream.Config{
		BrokerURL:       c.MQTT.BrokerURL(),
		Username:        c.MQTT.Username,
		Password:        c.MQTT.Password,
		Topics:          []string{c.MQTT.TempTopic, c.MQTT.HeartbeatTopic},
		ReconnectPeriod: c.MQTT.ReconnectPeriod,
	}
}

// MetricThresholds returns the threshold store entries.
func (c Config) MetricThresholds() []sensor.MetricThreshold {
	return c.Thresholds.Entries()
}

// Entries lists the configured ranges in display order.
func (t ThresholdConfig) Entries() []sensor.MetricThreshold {
	return []sensor.MetricThreshold{
		{Metric: sensor.Temperature, Bounds: sensor.Threshold{Min: t.TempMin, Max: t.TempMax}},
		{Metric: sensor.Heartbeat, Bounds: sensor.Threshold{Min: t.HeartbeatMin, Max: t.HeartbeatMax}},
	}
}

// Topics maps each metric to the topic it is published on.
func (c MQTTConfig) Topics() map[sensor.MetricType]string {
	return map[sensor.MetricType]string{
		sensor.Temperature: c.TempTopic,
		sensor.Heartbeat:   c.HeartbeatTopic,
	}
}

// Email returns the mail sink settings. Alerts go to the SMTP user when no
// recipient is set.
func (c Config) Email() notify.EmailConfig {
	to := c.SMTP.AlertEmail
	if to == "" {
		to = c.SMTP.User
	}
	return notify.EmailConfig{
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.User,
		Password: c.SMTP.Password,
		To:       to,
	}
}

// KafkaBrokers splits the broker list.
func (c Config) KafkaBrokers() []string {
	var out []string
	for _, b := range strings.Split(c.Kafka.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
