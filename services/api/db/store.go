package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
)

// Store wraps database access helpers for the alert archive.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool and checks connectivity.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const createAlertsSQL = `
    CREATE TABLE IF NOT EXISTS sensor_alerts (
        id            BIGSERIAL PRIMARY KEY,
        metric        TEXT NOT NULL,
        value         TEXT NOT NULL,
        threshold_min DOUBLE PRECISION NOT NULL,
        threshold_max DOUBLE PRECISION NOT NULL,
        status        TEXT NOT NULL,
        message       TEXT NOT NULL,
        raised_at     TIMESTAMPTZ NOT NULL,
        created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )
`

const createAlertsIndexSQL = `
    CREATE INDEX IF NOT EXISTS sensor_alerts_raised_at_idx ON sensor_alerts (raised_at DESC)
`

// EnsureSchema creates the archive table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createAlertsSQL); err != nil {
		return fmt.Errorf("create sensor_alerts: %w", err)
	}
	if _, err := s.pool.Exec(ctx, createAlertsIndexSQL); err != nil {
		return fmt.Errorf("create sensor_alerts index: %w", err)
	}
	return nil
}

const insertAlertSQL = `
    INSERT INTO sensor_alerts (metric, value, threshold_min, threshold_max, status, message, raised_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// InsertAlert appends one alert to the archive.
func (s *Store) InsertAlert(ctx context.Context, a sensor.Alert) error {
	raisedAt := a.Time()
	if raisedAt.IsZero() {
		raisedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, insertAlertSQL,
		string(a.Type),
		a.Value,
		a.Threshold.Min,
		a.Threshold.Max,
		string(a.Status),
		a.Message,
		raisedAt,
	)
	return err
}

const recentAlertsSQL = `
    SELECT metric, value, threshold_min, threshold_max, status, message, raised_at
    FROM sensor_alerts
    ORDER BY raised_at DESC, id DESC
    LIMIT $1
`

// RecentAlerts returns up to limit archived alerts, newest first.
func (s *Store) RecentAlerts(ctx context.Context, limit int) ([]sensor.Alert, error) {
	rows, err := s.pool.Query(ctx, recentAlertsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := make([]sensor.Alert, 0)
	for rows.Next() {
		var (
			a        sensor.Alert
			metric   string
			status   string
			raisedAt time.Time
		)
		if err := rows.Scan(
			&metric,
			&a.Value,
			&a.Threshold.Min,
			&a.Threshold.Max,
			&status,
			&a.Message,
			&raisedAt,
		); err != nil {
			return nil, err
		}
		a.Type = sensor.MetricType(metric)
		a.Status = sensor.AlertStatus(status)
		a.Timestamp = raisedAt.UTC().Format(sensor.TimestampLayout)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
