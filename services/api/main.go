package main

import (
	"context"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/Winner-yo/mqtt-dashboard/services/api/config"
	"github.com/Winner-yo/mqtt-dashboard/services/api/db"
	httpserver "github.com/Winner-yo/mqtt-dashboard/services/api/http"
	"github.com/Winner-yo/mqtt-dashboard/services/api/hub"
	"github.com/Winner-yo/mqtt-dashboard/services/api/logging"
	"github.com/Winner-yo/mqtt-dashboard/services/api/metrics"
	"github.com/Winner-yo/mqtt-dashboard/services/api/notify"
	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
	"github.com/Winner-yo/mqtt-dashboard/services/api/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		logrus.Warn(err)
	}
	log := logging.Component("main")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recorder := metrics.NewRecorder()

	thresholds, err := sensor.NewThresholds(cfg.MetricThresholds()...)
	if err != nil {
		log.Fatalf("threshold error: %v", err)
	}
	aggregator := sensor.NewAggregator(thresholds.Metrics(), cfg.Domain)
	evaluator := sensor.NewEvaluator(thresholds, cfg.AlertCooldown)

	var sinks []notify.Sink

	if email := cfg.Email(); email.Enabled() {
		sinks = append(sinks, notify.NewEmailSink(email))
	} else {
		log.Warn("SMTP_USER or SMTP_PASSWORD not set, email alerts disabled")
	}

	var archive httpserver.AlertArchive
	if cfg.DatabaseURL != "" {
		store, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Warn("alert archive unavailable")
		} else {
			defer store.Close()
			if err := store.EnsureSchema(ctx); err != nil {
				log.WithError(err).Warn("alert archive schema setup failed")
			} else {
				sinks = append(sinks, notify.NewArchiveSink(store))
				archive = store
			}
		}
	}

	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		kafkaSink := notify.NewKafkaSink(brokers, cfg.Kafka.AlertTopic)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}

	dispatcher := notify.NewDispatcher(cfg.NotifyQueueSize, recorder, logging.Component("notify"), sinks...)
	if names := dispatcher.Sinks(); len(names) > 0 {
		log.Infof("alert notifications go to: %s", strings.Join(names, ", "))
	}

	mqttClient := upstream.New(cfg.Upstream(), recorder, logging.Component("upstream"))
	viewers := hub.New(aggregator, mqttClient, recorder, logging.Component("hub"))

	ingestor := sensor.NewIngestor(sensor.IngestorDeps{
		Thresholds:  thresholds,
		Aggregator:  aggregator,
		Evaluator:   evaluator,
		Broadcaster: viewers,
		Notifier:    dispatcher,
		Observer:    recorder,
		Log:         logging.Component("sensor"),
	})

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		viewers.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		mqttClient.Run(ctx, func(topic, payload string) {
			ingestor.Ingest(topic, payload)
		})
	}()

	srv := httpserver.New(cfg, httpserver.Deps{
		State:   aggregator,
		Viewers: viewers,
		Archive: archive,
		Metrics: recorder.Handler(),
	})
	log.Infof("dashboard backend listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	cancel()
	wg.Wait()
	log.Info("shut down")
}
