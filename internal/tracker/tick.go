package tracker

import (
	"math"

	"github.com/desertthunder/vidtrack/internal/player"
)

// Tick is a normalized telemetry event.
type Tick struct {
	Kind    player.EventKind
	Seconds float64
	// DurationSeconds is zero until the duration is known.
	DurationSeconds float64
	// FractionComplete is Seconds/DurationSeconds clamped to [0, 1], NaN while the duration is unknown.
	FractionComplete float64
}

// HasDuration reports whether segment math can run for this tick.
func (t Tick) HasDuration() bool {
	return t.DurationSeconds > 0 && !math.IsNaN(t.FractionComplete)
}

// Adapter normalizes raw player events and tracks whether the player is playing.
//
// The zero value is ready to use.
type Adapter struct {
	playing  bool
	duration float64
}

// SetDuration records a duration learned out of band, e.g. from [player.Player.Duration].
func (a *Adapter) SetDuration(seconds float64) {
	if seconds > 0 && !math.IsInf(seconds, 0) {
		a.duration = seconds
	}
}

// Duration returns the known duration, zero when unknown.
func (a *Adapter) Duration() float64 { return a.duration }

// Playing reports the play state implied by the events seen so far.
func (a *Adapter) Playing() bool { return a.playing }

// Normalize converts ev into a [Tick]. It reports false for events the tracker must ignore: timeupdates
// while not playing and unknown kinds.
func (a *Adapter) Normalize(ev player.Event) (Tick, bool) {
	a.SetDuration(ev.Duration)

	switch ev.Kind {
	case player.EventPlay:
		a.playing = true
	case player.EventPause:
		a.playing = false
	case player.EventSeeked:
	case player.EventTimeUpdate:
		if !a.playing {
			return Tick{}, false
		}
	default:
		return Tick{}, false
	}

	t := Tick{
		Kind:             ev.Kind,
		Seconds:          ev.Seconds,
		DurationSeconds:  a.duration,
		FractionComplete: math.NaN(),
	}
	switch {
	case a.duration > 0:
		t.FractionComplete = clampFraction(ev.Seconds / a.duration)
	case ev.Percent > 0:
		t.FractionComplete = clampFraction(ev.Percent)
	}
	return t, true
}

func clampFraction(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
