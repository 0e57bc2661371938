// Package generator produces synthetic sensor payloads in the format the
// dashboard firmware publishes.
package generator

import (
	"math/rand"
	"strconv"

	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
)

// Kind tells how a reading was produced.
type Kind int

const (
	Normal Kind = iota
	Spike
	Garbage
)

func (k Kind) String() string {
	switch k {
	case Spike:
		return "spike"
	case Garbage:
		return "garbage"
	default:
		return "normal"
	}
}

var garbagePayloads = []string{"ERR", "nan", "sensor fault"}

// Reading is one message to publish.
type Reading struct {
	Metric  sensor.MetricType
	Topic   string
	Payload string
	Kind    Kind
}

// Options configures a Generator. SpikeEvery and GarbageEvery are tick
// periods; zero disables them. Garbage wins when both fall on the same tick.
type Options struct {
	Metrics      []sensor.MetricThreshold
	Topics       map[sensor.MetricType]string
	SpikeEvery   int
	GarbageEvery int
	Seed         int64
}

// Generator is not safe for concurrent use.
type Generator struct {
	opts   Options
	rng    *rand.Rand
	tick   int
	spikes int
}

func New(opts Options) *Generator {
	return &Generator{opts: opts, rng: rand.New(rand.NewSource(opts.Seed))}
}

// Next returns one reading per metric for the next tick.
func (g *Generator) Next() []Reading {
	g.tick++
	kind := Normal
	switch {
	case every(g.tick, g.opts.GarbageEvery):
		kind = Garbage
	case every(g.tick, g.opts.SpikeEvery):
		kind = Spike
		g.spikes++
	}

	out := make([]Reading, 0, len(g.opts.Metrics))
	for _, m := range g.opts.Metrics {
		out = append(out, Reading{
			Metric:  m.Metric,
			Topic:   g.opts.Topics[m.Metric],
			Payload: g.payload(m.Bounds, kind),
			Kind:    kind,
		})
	}
	return out
}

func (g *Generator) payload(th sensor.Threshold, kind Kind) string {
	switch kind {
	case Garbage:
		return garbagePayloads[g.rng.Intn(len(garbagePayloads))]
	case Spike:
		// alternate above and below the range
		if g.spikes%2 == 1 {
			return format(th.Max + 1 + g.rng.Float64()*10)
		}
		return format(th.Min - 1 - g.rng.Float64()*10)
	default:
		return format(th.Min + g.rng.Float64()*(th.Max-th.Min))
	}
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func every(tick, n int) bool {
	return n > 0 && tick%n == 0
}
