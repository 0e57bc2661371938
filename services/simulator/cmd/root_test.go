package cmd

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	return rootCmd.Execute()
}

func TestLogLevel(t *testing.T) {
	prev := logrus.GetLevel()
	t.Cleanup(func() { logrus.SetLevel(prev) })
	t.Setenv("MQTT_URL", "")
	t.Setenv("MQTT_HOST", "")
	t.Setenv("SIM_INTERVAL", "")
	t.Setenv("LOG_LEVEL", "debug")

	// publish stops at the missing broker, after logging is set up
	err := execute("publish")
	require.ErrorContains(t, err, "no broker configured")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	err = execute("--log-level", "warn", "publish")
	require.ErrorContains(t, err, "no broker configured")
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}

func TestInvalidEnvironmentFailsBeforePublishing(t *testing.T) {
	t.Setenv("SIM_INTERVAL", "fast")

	err := execute("publish")
	assert.ErrorContains(t, err, `"fast"`)
}
