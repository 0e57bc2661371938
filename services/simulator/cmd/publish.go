package cmd

import (
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Winner-yo/mqtt-dashboard/services/api/logging"
	"github.com/Winner-yo/mqtt-dashboard/services/simulator/internal/generator"
	"github.com/Winner-yo/mqtt-dashboard/services/simulator/internal/publisher"
)

var (
	brokerURL    string
	interval     time.Duration
	count        int
	spikeEvery   int
	garbageEvery int
	seed         int64
)

func init() {
	publishCmd.Flags().StringVar(&brokerURL, "broker", "", "broker URL, overrides MQTT_URL/MQTT_HOST")
	publishCmd.Flags().DurationVar(&interval, "interval", 0, "time between ticks, overrides SIM_INTERVAL")
	publishCmd.Flags().IntVar(&count, "count", 0, "stop after this many ticks (0 runs until interrupted)")
	publishCmd.Flags().IntVar(&spikeEvery, "spike-every", 0, "publish out-of-range values every N ticks")
	publishCmd.Flags().IntVar(&garbageEvery, "garbage-every", 0, "publish non-numeric payloads every N ticks")
	publishCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the current time)")
	rootCmd.AddCommand(publishCmd)
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish temperature and heartbeat readings until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("interval") {
			cfg.Interval = interval
		}
		if cfg.Interval <= 0 {
			return errors.New("interval must be positive")
		}
		broker := brokerURL
		if broker == "" {
			broker = cfg.MQTT.BrokerURL()
		}
		if broker == "" {
			return errors.New("no broker configured: set MQTT_URL or MQTT_HOST, or pass --broker")
		}
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		log := logging.Component("simulator")
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		pub, err := publisher.Connect(ctx, publisher.Options{
			BrokerURL: broker,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
		}, log)
		if err != nil {
			return err
		}
		defer pub.Close()

		gen := generator.New(generator.Options{
			Metrics:      cfg.Thresholds.Entries(),
			Topics:       cfg.MQTT.Topics(),
			SpikeEvery:   spikeEvery,
			GarbageEvery: garbageEvery,
			Seed:         seed,
		})

		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for tick := 1; count == 0 || tick <= count; tick++ {
			for _, r := range gen.Next() {
				if err := pub.Publish(ctx, r.Topic, r.Payload); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					log.WithError(err).Warn("publish failed")
					continue
				}
				log.WithField("kind", r.Kind).Infof("%s <- %q", r.Topic, r.Payload)
			}
			if tick == count {
				break
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		return nil
	},
}
