package notify

import (
	"context"

	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
)

// AlertArchive persists alerts.
type AlertArchive interface {
	InsertAlert(ctx context.Context, alert sensor.Alert) error
}

// ArchiveSink appends every alert to an AlertArchive.
type ArchiveSink struct {
	archive AlertArchive
}

func NewArchiveSink(archive AlertArchive) *ArchiveSink {
	return &ArchiveSink{archive: archive}
}

func (s *ArchiveSink) Name() string { return "archive" }

func (s *ArchiveSink) Send(ctx context.Context, alert sensor.Alert) error {
	return s.archive.InsertAlert(ctx, alert)
}
