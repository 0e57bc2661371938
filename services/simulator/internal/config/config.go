package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	apiconfig "github.com/Winner-yo/mqtt-dashboard/services/api/config"
)

// Config holds runtime configuration for the simulator. It reads the same
// MQTT and threshold variables as the dashboard backend so both sides agree
// on topics and normal ranges.
type Config struct {
	MQTT       apiconfig.MQTTConfig
	Thresholds apiconfig.ThresholdConfig

	Interval time.Duration `env:"SIM_INTERVAL,default=2s"`
	LogLevel string        `env:"LOG_LEVEL,default=info"`
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, fmt.Errorf("decode environment: %w", err)
	}
	if cfg.Interval <= 0 {
		return cfg, fmt.Errorf("invalid SIM_INTERVAL: %s", cfg.Interval)
	}
	return cfg, nil
}
