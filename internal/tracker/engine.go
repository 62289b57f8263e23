package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtrack/internal/metrics"
	"github.com/desertthunder/vidtrack/internal/player"
	"github.com/desertthunder/vidtrack/internal/progress"
	"github.com/desertthunder/vidtrack/internal/services"
	"github.com/desertthunder/vidtrack/internal/shared"
)

// Config identifies the tracked video and tunes the engine.
type Config struct {
	SegmentID      int64
	SegmentCount   int
	ThrottleWindow time.Duration
	// ReducedMotion pauses the player when the engine attaches instead of letting it autoplay.
	ReducedMotion bool
	Logger        *log.Logger
}

// Deps are the engine's collaborators. Every field is optional.
type Deps struct {
	Syncer     services.Syncer
	Fetcher    services.Fetcher
	Cache      Cache
	Projection Projection
}

type messageKind int

const (
	msgProcessing messageKind = iota
	msgLanded
)

type message struct {
	kind    messageKind
	on      bool
	seconds float64
}

// Engine wires the tracker pipeline to one player.
type Engine struct {
	cfg        Config
	logger     *log.Logger
	segments   *progress.Segments
	adapter    Adapter
	gate       *Gate
	seeks      *SeekController
	fetcher    services.Fetcher
	cache      Cache
	projection Projection

	inbox   chan message
	loaded  bool
	running atomic.Bool
}

// New creates an engine for cfg.SegmentID split into cfg.SegmentCount segments.
func New(cfg Config, deps Deps) (*Engine, error) {
	if cfg.SegmentID <= 0 {
		return nil, fmt.Errorf("%w: segment id must be positive, got %d", shared.ErrInvalidArgument, cfg.SegmentID)
	}

	segments, err := progress.NewSegments(progress.CacheKey(cfg.SegmentID), cfg.SegmentCount)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = shared.WithLogger(logger, "segment", cfg.SegmentID)

	projection := deps.Projection
	if projection == nil {
		projection = NopProjection{}
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		segments: segments,
		gate: NewGate(segments, GateOpts{
			SegmentID:  cfg.SegmentID,
			Window:     cfg.ThrottleWindow,
			Syncer:     deps.Syncer,
			Cache:      deps.Cache,
			Projection: projection,
			Logger:     logger,
		}),
		seeks:      NewSeekController(cfg.SegmentCount, logger),
		fetcher:    deps.Fetcher,
		cache:      deps.Cache,
		projection: projection,
		inbox:      make(chan message, 16),
	}, nil
}

// Load reconciles the starting state from the server percent and the persisted snapshot, then renders it.
//
// Unreachable sources count as absent. Load runs at most once; [Engine.Run] calls it when needed.
func (e *Engine) Load(ctx context.Context) (progress.Reconciliation, error) {
	var server float64
	if e.fetcher != nil {
		p, err := e.fetcher.SegmentPercent(ctx, e.cfg.SegmentID)
		if err != nil {
			e.logger.Warn("server progress unavailable", "error", err)
		} else {
			server = p
		}
	}

	var cached []bool
	if e.cache != nil {
		v, ok, err := e.cache.Load(ctx, e.segments.Key())
		switch {
		case err != nil:
			e.logger.Warn("persisted progress unavailable", "key", e.segments.Key(), "error", err)
		case ok:
			cached = v
		}
	}

	r, err := e.segments.Reconcile(server, cached)
	if err != nil {
		return r, err
	}
	e.loaded = true
	e.gate.Restore(ctx, r)

	e.logger.Info("progress restored", "source", r.Source, "percent", r.Percent, "last_synced", r.LastSyncedPercent)
	return r, nil
}

// Seek queues a jump to the start of segment index. It may be called from any goroutine, before or during
// [Engine.Run]; it reports false for out-of-range indexes.
func (e *Engine) Seek(index int) bool {
	return e.seeks.Request(index)
}

// Run consumes p's telemetry until its event channel closes or ctx is done, then waits for in-flight seeks
// and syncs. It returns ctx.Err() when cancelled and nil when the player closed.
func (e *Engine) Run(ctx context.Context, p player.Player) error {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: engine already running", shared.ErrInvalidState)
	}
	defer e.running.Store(false)

	if !e.loaded {
		if _, err := e.Load(ctx); err != nil {
			return err
		}
	}

	if d, err := p.Duration(ctx); err == nil {
		e.adapter.SetDuration(d)
		e.seeks.setDuration(e.adapter.Duration())
	} else if !errors.Is(err, shared.ErrDurationUnknown) {
		e.logger.Warn("failed to read duration", "error", err)
	}

	if e.cfg.ReducedMotion {
		if err := p.Pause(ctx); err != nil {
			e.logger.Warn("failed to pause for reduced motion", "error", err)
		}
	}

	workerCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.seeks.run(workerCtx, p, &seekMailbox{ctx: workerCtx, inbox: e.inbox})
	}()

	events := p.Events()
	defer func() {
		cancel()

		// Keep draining so a seek blocked on delivering a player event can finish.
		stopped := make(chan struct{})
		go func() {
			wg.Wait()
			close(stopped)
		}()
		for done := false; !done; {
			select {
			case <-stopped:
				done = true
			case _, ok := <-events:
				if !ok {
					events = nil
				}
			case <-e.inbox:
			}
		}
		e.gate.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				e.logger.Debug("player closed")
				return nil
			}
			e.handle(ctx, ev)
		case m := <-e.inbox:
			e.apply(m)
		}
	}
}

func (e *Engine) handle(ctx context.Context, ev player.Event) {
	t, ok := e.adapter.Normalize(ev)
	if !ok {
		metrics.TicksTotal.WithLabelValues("dropped").Inc()
		return
	}
	e.seeks.setDuration(e.adapter.Duration())

	switch t.Kind {
	case player.EventTimeUpdate:
		outcome := e.gate.Evaluate(ctx, t)
		metrics.TicksTotal.WithLabelValues(outcome.String()).Inc()
	case player.EventSeeked:
		e.gate.ResetBaseline(t.Seconds)
		if t.HasDuration() {
			e.projection.SetPlayheadOffset(t.FractionComplete)
		}
		metrics.TicksTotal.WithLabelValues("control").Inc()
	default:
		metrics.TicksTotal.WithLabelValues("control").Inc()
	}
}

func (e *Engine) apply(m message) {
	switch m.kind {
	case msgProcessing:
		e.projection.SetProcessing(m.on)
	case msgLanded:
		e.gate.ResetBaseline(m.seconds)
		if d := e.adapter.Duration(); d > 0 {
			e.projection.SetPlayheadOffset(clampFraction(m.seconds / d))
		}
	}
}

// seekMailbox forwards seek side effects to the engine goroutine.
type seekMailbox struct {
	ctx   context.Context
	inbox chan<- message
}

func (m *seekMailbox) processing(on bool) { m.post(message{kind: msgProcessing, on: on}) }

func (m *seekMailbox) landed(seconds float64) { m.post(message{kind: msgLanded, seconds: seconds}) }

func (m *seekMailbox) post(msg message) {
	select {
	case m.inbox <- msg:
	case <-m.ctx.Done():
	}
}
