package tracker

import (
	"context"

	"github.com/desertthunder/vidtrack/internal/progress"
)

// Projection is the rendering target for tracker state.
//
// Implementations update existing elements in place. InsertCompletionMarker may be called more than once and
// must insert at most one marker.
type Projection interface {
	SetSegmentWatched(i int, watched bool)
	SetPercentText(percent int)
	SetPlayheadOffset(fraction float64)
	InsertCompletionMarker()
	SetProcessing(processing bool)
}

// Cache persists segment snapshots between sessions.
type Cache interface {
	// Load returns the snapshot under key; the boolean is false when none exists.
	Load(ctx context.Context, key string) ([]bool, bool, error)
	Save(ctx context.Context, key string, watched []bool) error
}

// NopProjection discards all updates.
type NopProjection struct{}

func (NopProjection) SetSegmentWatched(int, bool) {}
func (NopProjection) SetPercentText(int)          {}
func (NopProjection) SetPlayheadOffset(float64)   {}
func (NopProjection) InsertCompletionMarker()     {}
func (NopProjection) SetProcessing(bool)          {}

// render pushes the whole store to p.
func render(p Projection, s *progress.Segments) {
	for i := range s.Len() {
		p.SetSegmentWatched(i, s.Watched(i))
	}
	p.SetPercentText(s.Percent())
}
