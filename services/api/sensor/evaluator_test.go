package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestThresholds(t *testing.T) *Thresholds {
	t.Helper()
	th, err := NewThresholds(DefaultThresholds()...)
	require.NoError(t, err)
	return th
}

func TestEvaluateInRangeNeverAlerts(t *testing.T) {
	e := NewEvaluator(newTestThresholds(t), DefaultCooldown)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, v := range []float64{20, 20.01, 25, 29.99, 30} {
		ev := e.Evaluate(Temperature, v, now)
		assert.False(t, ev.Fired, "value %v", v)
		assert.False(t, ev.Suppressed, "value %v", v)
	}
}

func TestEvaluateStatusReflectsSide(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	low := NewEvaluator(newTestThresholds(t), DefaultCooldown).Evaluate(Heartbeat, 42, now)
	require.True(t, low.Fired)
	assert.Equal(t, StatusLow, low.Alert.Status)
	assert.Equal(t, "42.00", low.Alert.Value)
	assert.Equal(t, "HEARTBEAT is LOW: 42.00 (Normal range: 60-100)", low.Alert.Message)

	high := NewEvaluator(newTestThresholds(t), DefaultCooldown).Evaluate(Heartbeat, 100.5, now)
	require.True(t, high.Fired)
	assert.Equal(t, StatusHigh, high.Alert.Status)
	assert.Equal(t, Threshold{Min: 60, Max: 100}, high.Alert.Threshold)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", high.Alert.Timestamp)
}

func TestEvaluateCooldown(t *testing.T) {
	e := NewEvaluator(newTestThresholds(t), DefaultCooldown)
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, e.Evaluate(Temperature, 35, t0).Fired)

	second := e.Evaluate(Temperature, 36, t0.Add(time.Minute))
	assert.False(t, second.Fired)
	assert.True(t, second.Suppressed)

	// exactly at the boundary is still suppressed
	assert.True(t, e.Evaluate(Temperature, 36, t0.Add(DefaultCooldown)).Suppressed)

	assert.True(t, e.Evaluate(Temperature, 36, t0.Add(DefaultCooldown+time.Millisecond)).Fired)
}

func TestEvaluateCooldownIsPerMetric(t *testing.T) {
	e := NewEvaluator(newTestThresholds(t), DefaultCooldown)
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, e.Evaluate(Temperature, 35, t0).Fired)
	assert.True(t, e.Evaluate(Heartbeat, 150, t0.Add(time.Second)).Fired)
}

func TestEvaluateHysteresisReset(t *testing.T) {
	e := NewEvaluator(newTestThresholds(t), DefaultCooldown)
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, e.Evaluate(Temperature, 35, t0).Fired)
	_, pending := e.LastAlert(Temperature)
	require.True(t, pending)

	back := e.Evaluate(Temperature, 25, t0.Add(10*time.Second))
	assert.True(t, back.Reset)
	_, pending = e.LastAlert(Temperature)
	assert.False(t, pending)

	// a second in-range reading has nothing left to reset
	assert.False(t, e.Evaluate(Temperature, 24, t0.Add(15*time.Second)).Reset)

	assert.True(t, e.Evaluate(Temperature, 35, t0.Add(20*time.Second)).Fired)
}

func TestEvaluateUnknownMetric(t *testing.T) {
	e := NewEvaluator(newTestThresholds(t), DefaultCooldown)
	ev := e.Evaluate(MetricType("humidity"), 1000, time.Now())
	assert.Equal(t, Evaluation{}, ev)
}

func TestNewThresholdsRejectsInvertedRange(t *testing.T) {
	_, err := NewThresholds(MetricThreshold{Metric: Temperature, Bounds: Threshold{Min: 30, Max: 20}})
	assert.Error(t, err)

	_, err = NewThresholds(
		MetricThreshold{Metric: Temperature, Bounds: Threshold{Min: 1, Max: 2}},
		MetricThreshold{Metric: Temperature, Bounds: Threshold{Min: 1, Max: 2}},
	)
	assert.Error(t, err)
}

func TestThresholdsGet(t *testing.T) {
	th := newTestThresholds(t)

	got, ok := th.Get(Temperature)
	require.True(t, ok)
	assert.Equal(t, Threshold{Min: 20, Max: 30}, got)

	_, ok = th.Get("pressure")
	assert.False(t, ok)
	assert.Equal(t, []MetricType{Temperature, Heartbeat}, th.Metrics())
}
