package services

import (
	"context"

	"github.com/desertthunder/vidtrack/internal/models"
)

// Syncer reports a segment's percent watched to the progress server.
type Syncer interface {
	// Sync sends one progress update. Callers treat it as fire-and-continue.
	Sync(ctx context.Context, segmentID int64, percent int) (*models.ProgressUpdateResult, error)
}

// Fetcher reads the progress the server has recorded for a segment.
type Fetcher interface {
	// SegmentPercent returns the server percent (0..100), 0 when nothing was recorded.
	SegmentPercent(ctx context.Context, segmentID int64) (float64, error)
}

// Service is the full progress server client.
type Service interface {
	Syncer
	Fetcher
	Name() string
}
