package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SIM_INTERVAL", "")
	t.Setenv("MQTT_TEMP_TOPIC", "")
	t.Setenv("MQTT_URL", "")
	t.Setenv("MQTT_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, "dht11/temperature", cfg.MQTT.TempTopic)
	assert.Empty(t, cfg.MQTT.BrokerURL())
	assert.Len(t, cfg.Thresholds.Entries(), 2)
}

func TestLoadSharesBackendVariables(t *testing.T) {
	t.Setenv("MQTT_HOST", "broker.local")
	t.Setenv("MQTT_PORT", "1884")
	t.Setenv("MQTT_PROTOCOL", "")
	t.Setenv("MQTT_URL", "")
	t.Setenv("TEMP_MAX", "26")
	t.Setenv("SIM_INTERVAL", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker.local:1884", cfg.MQTT.BrokerURL())
	assert.Equal(t, 26.0, cfg.Thresholds.TempMax)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("SIM_INTERVAL", "0s")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string]map[string]string{
		"interval without unit": {"SIM_INTERVAL": "2"},
		"non-numeric threshold": {"TEMP_MAX": "hot"},
		"non-numeric port":      {"MQTT_PORT": "mqtt"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
