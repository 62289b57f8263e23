package tracker

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtrack/internal/metrics"
	"github.com/desertthunder/vidtrack/internal/player"
)

// MinSeekSeconds replaces a computed seek target of exactly zero; some players refuse to seek there.
const MinSeekSeconds = 0.1

// SeekState is the controller's position in its pause → seek → play cycle.
type SeekState int32

const (
	SeekIdle SeekState = iota
	SeekPausing
	SeekSeeking
	SeekResuming
)

func (s SeekState) String() string {
	switch s {
	case SeekIdle:
		return "idle"
	case SeekPausing:
		return "pausing"
	case SeekSeeking:
		return "seeking"
	case SeekResuming:
		return "resuming"
	default:
		return "unknown"
	}
}

// SeekTarget returns the start of segment index as floor(index/n × duration) seconds, never exactly zero.
func SeekTarget(index, n int, duration float64) float64 {
	target := math.Floor(float64(index) / float64(n) * duration)
	if target == 0 {
		return MinSeekSeconds
	}
	return target
}

// seekEvents receives the controller's side effects on the engine goroutine.
type seekEvents interface {
	processing(on bool)
	landed(seconds float64)
}

// SeekController serializes "jump to segment" requests against a player.
//
// Requests queue without limit and execute one at a time in arrival order.
type SeekController struct {
	segments int
	logger   *log.Logger

	mu    sync.Mutex
	queue []int
	wake  chan struct{}
	state atomic.Int32

	// duration is the last known duration in float64 bits, used when the player can't report one.
	duration atomic.Uint64
}

// NewSeekController creates a controller for a video split into n segments.
func NewSeekController(n int, logger *log.Logger) *SeekController {
	if logger == nil {
		logger = log.Default()
	}
	return &SeekController{segments: n, logger: logger, wake: make(chan struct{}, 1)}
}

// State returns the current state.
func (c *SeekController) State() SeekState { return SeekState(c.state.Load()) }

// Pending returns the number of queued requests.
func (c *SeekController) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Request queues a jump to segment index and reports whether it was accepted.
// Out-of-range indexes are ignored.
func (c *SeekController) Request(index int) bool {
	if index < 0 || index >= c.segments {
		c.logger.Debug("ignoring seek outside the segment range", "index", index, "segments", c.segments)
		return false
	}

	c.mu.Lock()
	c.queue = append(c.queue, index)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

func (c *SeekController) setDuration(seconds float64) {
	if seconds > 0 {
		c.duration.Store(math.Float64bits(seconds))
	}
}

func (c *SeekController) next() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return 0, false
	}
	index := c.queue[0]
	c.queue = c.queue[1:]
	return index, true
}

// run executes queued requests until ctx is done.
func (c *SeekController) run(ctx context.Context, p player.Player, out seekEvents) {
	for {
		for {
			index, ok := c.next()
			if !ok {
				break
			}
			if ctx.Err() != nil {
				return
			}
			c.execute(ctx, p, index, out)
		}

		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}
	}
}

// execute walks one request through Pausing, Seeking and Resuming. The processing flag is raised on entry
// and cleared on every exit path.
func (c *SeekController) execute(ctx context.Context, p player.Player, index int, out seekEvents) {
	logger := c.logger.With("index", index)
	out.processing(true)
	defer func() {
		c.state.Store(int32(SeekIdle))
		out.processing(false)
	}()

	c.state.Store(int32(SeekPausing))
	if err := p.Pause(ctx); err != nil {
		logger.Warn("seek aborted, pause failed", "error", err)
		metrics.SeeksTotal.WithLabelValues("pause_failed").Inc()
		return
	}

	c.state.Store(int32(SeekSeeking))
	result := "ok"
	duration, err := p.Duration(ctx)
	if err != nil || duration <= 0 {
		duration = math.Float64frombits(c.duration.Load())
	}

	if duration > 0 {
		target := SeekTarget(index, c.segments, duration)
		actual, err := p.SetCurrentTime(ctx, target)
		if err != nil {
			logger.Warn("seek failed", "target", target, "error", err)
			result = "seek_failed"
		} else {
			logger.Debug("seeked", "target", target, "actual", actual)
			out.landed(actual)
		}
	} else {
		logger.Warn("seek skipped, duration unknown")
		result = "seek_failed"
	}

	c.state.Store(int32(SeekResuming))
	if err := p.Play(ctx); err != nil {
		logger.Warn("resume after seek failed", "error", err)
		result = "play_failed"
	}
	metrics.SeeksTotal.WithLabelValues(result).Inc()
}
