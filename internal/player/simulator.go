package player

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/desertthunder/vidtrack/internal/shared"
)

// SimulatorOpts configures a [Simulator].
type SimulatorOpts struct {
	// Duration of the simulated video in seconds.
	Duration float64
	// Interval between timeupdate events while playing. Zero disables the internal clock; drive it with
	// [Simulator.Advance] instead.
	Interval time.Duration
	// Speed multiplies how far the playhead moves per interval, 1 when zero.
	Speed float64
	// Keyframe snaps seek targets down to a multiple of this many seconds, mimicking players that can't land on
	// arbitrary positions. Zero disables snapping.
	Keyframe float64
	// RejectZero makes seeks to exactly 0 fail, like some embedded players.
	RejectZero bool
	// Buffer is the event channel capacity, 64 when zero.
	Buffer int
}

// Simulator is a clock-driven [Player] that needs no media.
type Simulator struct {
	opts SimulatorOpts

	mu       sync.Mutex
	position float64
	playing  bool
	closed   bool

	// sendMu keeps Close from closing events while an emit is in flight.
	sendMu sync.RWMutex
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

var _ Player = (*Simulator)(nil)

// NewSimulator creates a paused simulator at position 0.
func NewSimulator(opts SimulatorOpts) (*Simulator, error) {
	if opts.Duration <= 0 {
		return nil, fmt.Errorf("%w: simulator duration must be positive", shared.ErrInvalidArgument)
	}
	if opts.Speed <= 0 {
		opts.Speed = 1
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}

	s := &Simulator{
		opts:   opts,
		events: make(chan Event, opts.Buffer),
		done:   make(chan struct{}),
	}

	if opts.Interval > 0 {
		s.wg.Add(1)
		go s.run()
	}
	return s, nil
}

// Factory adapts the simulator to a [Factory] for [Connect].
func (s *Simulator) Factory() Factory {
	return func(context.Context) (Player, error) { return s, nil }
}

func (s *Simulator) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Advance(s.opts.Interval)
		}
	}
}

// Advance moves the playhead by d (scaled by Speed) when playing and emits a timeupdate.
// Reaching the end pauses playback.
func (s *Simulator) Advance(d time.Duration) {
	s.mu.Lock()
	if !s.playing || s.closed {
		s.mu.Unlock()
		return
	}

	s.position = math.Min(s.position+d.Seconds()*s.opts.Speed, s.opts.Duration)
	ev := s.eventLocked(EventTimeUpdate)
	ended := s.position >= s.opts.Duration
	if ended {
		s.playing = false
	}
	s.mu.Unlock()

	s.emit(ev, false)
	if ended {
		s.mu.Lock()
		pause := s.eventLocked(EventPause)
		s.mu.Unlock()
		s.emit(pause, true)
	}
}

// Play implements [Player].
func (s *Simulator) Play(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("%w: simulator closed", shared.ErrPlayerUnavailable)
	}
	if s.position >= s.opts.Duration {
		s.position = 0
	}
	s.playing = true
	ev := s.eventLocked(EventPlay)
	s.mu.Unlock()

	s.emit(ev, true)
	return nil
}

// Pause implements [Player].
func (s *Simulator) Pause(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("%w: simulator closed", shared.ErrPlayerUnavailable)
	}
	s.playing = false
	ev := s.eventLocked(EventPause)
	s.mu.Unlock()

	s.emit(ev, true)
	return nil
}

// Duration implements [Player].
func (s *Simulator) Duration(ctx context.Context) (float64, error) {
	return s.opts.Duration, nil
}

// SetCurrentTime implements [Player]. The returned position honors Keyframe snapping.
func (s *Simulator) SetCurrentTime(ctx context.Context, seconds float64) (float64, error) {
	if s.opts.RejectZero && seconds == 0 {
		return 0, fmt.Errorf("%w: cannot seek to position 0", shared.ErrInvalidArgument)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: simulator closed", shared.ErrPlayerUnavailable)
	}

	target := math.Max(0, math.Min(seconds, s.opts.Duration))
	if k := s.opts.Keyframe; k > 0 {
		target = math.Floor(target/k) * k
	}
	s.position = target
	ev := s.eventLocked(EventSeeked)
	s.mu.Unlock()

	s.emit(ev, true)
	return target, nil
}

// Position returns the current playhead.
func (s *Simulator) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Playing reports whether the simulator is playing.
func (s *Simulator) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Events implements [Player].
func (s *Simulator) Events() <-chan Event {
	return s.events
}

// Close stops the clock and closes the event channel.
func (s *Simulator) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.playing = false
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()

	s.sendMu.Lock()
	close(s.events)
	s.sendMu.Unlock()
	return nil
}

func (s *Simulator) eventLocked(kind EventKind) Event {
	return Event{
		Kind:     kind,
		Seconds:  s.position,
		Duration: s.opts.Duration,
		Percent:  s.position / s.opts.Duration,
	}
}

// emit delivers ev. Control events wait for room; timeupdates are dropped when the consumer is behind since
// the next one supersedes them.
func (s *Simulator) emit(ev Event, wait bool) {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()

	select {
	case <-s.done:
		return
	default:
	}

	if !wait {
		select {
		case s.events <- ev:
		case <-s.done:
		default:
		}
		return
	}

	select {
	case s.events <- ev:
	case <-s.done:
	}
}
