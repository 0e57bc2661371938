package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
)

func newTestGenerator(spikeEvery, garbageEvery int) *Generator {
	return New(Options{
		Metrics: sensor.DefaultThresholds(),
		Topics: map[sensor.MetricType]string{
			sensor.Temperature: "dht11/temperature",
			sensor.Heartbeat:   "dht11/heartbeat",
		},
		SpikeEvery:   spikeEvery,
		GarbageEvery: garbageEvery,
		Seed:         42,
	})
}

func bounds(t *testing.T, metric sensor.MetricType) sensor.Threshold {
	t.Helper()
	for _, m := range sensor.DefaultThresholds() {
		if m.Metric == metric {
			return m.Bounds
		}
	}
	t.Fatalf("no threshold for %s", metric)
	return sensor.Threshold{}
}

func TestNormalReadingsStayInRange(t *testing.T) {
	g := newTestGenerator(0, 0)

	for i := 0; i < 200; i++ {
		readings := g.Next()
		require.Len(t, readings, 2)
		for _, r := range readings {
			v, ok := sensor.ParseReading(r.Payload)
			require.True(t, ok, r.Payload)
			assert.True(t, bounds(t, r.Metric).Contains(v), "%s=%v", r.Metric, v)
			assert.Equal(t, Normal, r.Kind)
		}
	}
}

func TestReadingsUseMetricTopics(t *testing.T) {
	readings := newTestGenerator(0, 0).Next()

	assert.Equal(t, sensor.Temperature, readings[0].Metric)
	assert.Equal(t, "dht11/temperature", readings[0].Topic)
	assert.Equal(t, sensor.Heartbeat, readings[1].Metric)
	assert.Equal(t, "dht11/heartbeat", readings[1].Topic)
}

func TestSpikesAlternateSides(t *testing.T) {
	g := newTestGenerator(2, 0)

	var spikes []float64
	for i := 1; i <= 8; i++ {
		r := g.Next()[0]
		if i%2 != 0 {
			assert.Equal(t, Normal, r.Kind)
			continue
		}
		require.Equal(t, Spike, r.Kind)
		v, ok := sensor.ParseReading(r.Payload)
		require.True(t, ok)
		assert.False(t, bounds(t, sensor.Temperature).Contains(v))
		spikes = append(spikes, v)
	}

	require.Len(t, spikes, 4)
	th := bounds(t, sensor.Temperature)
	assert.Greater(t, spikes[0], th.Max)
	assert.Less(t, spikes[1], th.Min)
	assert.Greater(t, spikes[2], th.Max)
	assert.Less(t, spikes[3], th.Min)
}

func TestGarbageIsNotNumeric(t *testing.T) {
	g := newTestGenerator(3, 3)

	for i := 1; i <= 9; i++ {
		for _, r := range g.Next() {
			if i%3 != 0 {
				continue
			}
			assert.Equal(t, Garbage, r.Kind)
			_, ok := sensor.ParseReading(r.Payload)
			assert.False(t, ok, r.Payload)
		}
	}
}

func TestSameSeedSameReadings(t *testing.T) {
	a, b := newTestGenerator(4, 5), newTestGenerator(4, 5)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "spike", Spike.String())
	assert.Equal(t, "garbage", Garbage.String())
}
