package tracker

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtrack/internal/metrics"
	"github.com/desertthunder/vidtrack/internal/progress"
	"github.com/desertthunder/vidtrack/internal/services"
	"github.com/desertthunder/vidtrack/internal/shared"
)

// DefaultThrottleWindow is the minimum playhead movement between two evaluations.
const DefaultThrottleWindow = 3 * time.Second

// Outcome is what the [Gate] did with a tick.
type Outcome int

const (
	OutcomeThrottled Outcome = iota
	OutcomeDeferred
	OutcomeEvaluated
	OutcomeSynced
)

func (o Outcome) String() string {
	switch o {
	case OutcomeThrottled:
		return "throttled"
	case OutcomeDeferred:
		return "deferred"
	case OutcomeEvaluated:
		return "evaluated"
	case OutcomeSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// GateOpts configures a [Gate].
type GateOpts struct {
	SegmentID int64
	// Window defaults to [DefaultThrottleWindow] when zero.
	Window     time.Duration
	Syncer     services.Syncer
	Cache      Cache
	Projection Projection
	Logger     *log.Logger
}

// Gate decides when playback progress is worth recording and syncing.
//
// Gate is driven by a single goroutine; only the sync calls it starts run concurrently.
type Gate struct {
	segmentID    int64
	segments     *progress.Segments
	window       float64
	lastObserved float64
	lastSynced   int

	syncer     services.Syncer
	cache      Cache
	projection Projection
	logger     *log.Logger

	sends sync.WaitGroup
}

// NewGate creates a gate over segments.
func NewGate(segments *progress.Segments, opts GateOpts) *Gate {
	window := opts.Window
	if window == 0 {
		window = DefaultThrottleWindow
	}
	if opts.Projection == nil {
		opts.Projection = NopProjection{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Gate{
		segmentID:  opts.SegmentID,
		segments:   segments,
		window:     window.Seconds(),
		syncer:     opts.Syncer,
		cache:      opts.Cache,
		projection: opts.Projection,
		logger:     opts.Logger,
	}
}

// LastSynced returns the percent the server is believed to hold.
func (g *Gate) LastSynced() int { return g.lastSynced }

// LastObserved returns the throttle baseline in seconds.
func (g *Gate) LastObserved() float64 { return g.lastObserved }

// ResetBaseline moves the throttle baseline, e.g. after a seek.
func (g *Gate) ResetBaseline(seconds float64) {
	if !math.IsNaN(seconds) {
		g.lastObserved = seconds
	}
}

// Restore applies a reconciliation outcome: it presets the last synced percent, persists when required and
// renders the initial state.
func (g *Gate) Restore(ctx context.Context, r progress.Reconciliation) {
	g.lastSynced = r.LastSyncedPercent
	if r.Persist {
		g.persist(ctx)
	}

	render(g.projection, g.segments)
	if r.Percent == 100 {
		g.projection.InsertCompletionMarker()
	}
}

// Evaluate runs one playing-state timeupdate through the gate.
func (g *Gate) Evaluate(ctx context.Context, t Tick) Outcome {
	if math.Abs(t.Seconds-g.lastObserved) < g.window {
		return OutcomeThrottled
	}
	if !t.HasDuration() {
		return OutcomeDeferred
	}

	i := progress.SegmentIndex(t.FractionComplete, g.segments.Len())
	changed := g.segments.MarkWatched(i)
	if changed {
		metrics.SegmentsMarkedTotal.Inc()
	}
	g.lastObserved = t.Seconds

	percent := g.segments.Percent()
	outcome := OutcomeEvaluated
	if percent != g.lastSynced {
		g.lastSynced = percent
		g.sync(ctx, percent)
		outcome = OutcomeSynced
	}
	// Fine-grained stores can flip a segment without moving the rounded percent.
	if changed {
		g.persist(ctx)
	}
	if outcome == OutcomeSynced {
		if percent == 100 {
			g.projection.InsertCompletionMarker()
		}
	}

	render(g.projection, g.segments)
	g.projection.SetPlayheadOffset(t.FractionComplete)
	return outcome
}

// Wait blocks until every sync started by the gate has returned.
func (g *Gate) Wait() { g.sends.Wait() }

// sync fires one update without waiting for it. Failures are logged; lastSynced is not rolled back.
func (g *Gate) sync(ctx context.Context, percent int) {
	if g.syncer == nil {
		return
	}

	g.sends.Add(1)
	go func() {
		defer g.sends.Done()

		_, err := g.syncer.Sync(ctx, g.segmentID, percent)
		switch {
		case err == nil:
			g.logger.Debug("progress sent", "segment", g.segmentID, "percent", percent)
		case errors.Is(err, shared.ErrSuperseded):
			g.logger.Debug("progress superseded", "segment", g.segmentID, "percent", percent)
		default:
			g.logger.Warn("progress sync failed", "segment", g.segmentID, "percent", percent, "error", err)
		}
	}()
}

func (g *Gate) persist(ctx context.Context) {
	if g.cache == nil {
		return
	}

	err := g.cache.Save(ctx, g.segments.Key(), g.segments.Snapshot())
	metrics.CacheWritesTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		g.logger.Warn("failed to persist watched segments", "key", g.segments.Key(), "error", err)
	}
}
