// Package player defines the playback capability the tracker drives and observes.
//
// A [Player] is treated as an opaque telemetry emitter: it accepts play, pause and seek commands and publishes
// [Event] values for play, pause, seeked and timeupdate. [Connect] waits for a player to become available,
// retrying construction on a fixed delay. [Simulator] is an in-process implementation used by the terminal
// player and tests.
package player

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtrack/internal/shared"
)

// EventKind enumerates player telemetry events.
type EventKind int

const (
	EventPlay EventKind = iota
	EventPause
	EventSeeked
	EventTimeUpdate
)

func (k EventKind) String() string {
	switch k {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventSeeked:
		return "seeked"
	case EventTimeUpdate:
		return "timeupdate"
	default:
		return "unknown"
	}
}

// Event is a raw telemetry event.
//
// Duration is zero when the player doesn't know it yet. Percent is the player's own position/duration
// fraction (0..1), zero when unknown.
type Event struct {
	Kind     EventKind
	Seconds  float64
	Duration float64
	Percent  float64
}

// Player is the capability the tracker needs from a video player.
type Player interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	// Duration returns the total length in seconds, or [shared.ErrDurationUnknown].
	Duration(ctx context.Context) (float64, error)
	// SetCurrentTime seeks and returns the position the player actually landed on.
	SetCurrentTime(ctx context.Context, seconds float64) (float64, error)
	// Events delivers telemetry until the player is closed.
	Events() <-chan Event
}

// Factory constructs a player, failing while the underlying playback API isn't available.
type Factory func(ctx context.Context) (Player, error)

// ConnectOpts tunes [Connect].
type ConnectOpts struct {
	// Delay between attempts, 1s when zero.
	Delay time.Duration
	// MaxAttempts caps attempts; zero retries until ctx is done.
	MaxAttempts int
	Logger      *log.Logger
}

// Connect calls factory until it returns a player, waiting opts.Delay between failures.
//
// Failures are logged, never surfaced, until ctx ends or MaxAttempts is exhausted; the returned error then
// wraps [shared.ErrPlayerUnavailable].
func Connect(ctx context.Context, factory Factory, opts ConnectOpts) (Player, error) {
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	var lastErr error
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v (last error: %v)", shared.ErrPlayerUnavailable, ctx.Err(), lastErr)
		case <-timer.C:
		}

		p, err := factory(ctx)
		if err == nil {
			if attempt > 1 {
				opts.Logger.Info("player connected", "attempts", attempt)
			}
			return p, nil
		}

		lastErr = err
		opts.Logger.Warn("player not ready, retrying", "attempt", attempt, "delay", opts.Delay, "error", err)

		if opts.MaxAttempts > 0 && attempt >= opts.MaxAttempts {
			return nil, fmt.Errorf("%w: gave up after %d attempts: %v", shared.ErrPlayerUnavailable, attempt, err)
		}
		timer.Reset(opts.Delay)
	}
}
