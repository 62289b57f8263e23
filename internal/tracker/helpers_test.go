package tracker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtrack/internal/player"
	"github.com/desertthunder/vidtrack/internal/shared"
)

// scriptedPlayer records commands and fails the ones listed in errs.
type scriptedPlayer struct {
	mu       sync.Mutex
	calls    []string
	targets  []float64
	errs     map[string]error
	duration float64
	// snap is subtracted from every seek target to mimic keyframe snapping.
	snap   float64
	events chan player.Event
}

func newScriptedPlayer(duration float64) *scriptedPlayer {
	return &scriptedPlayer{duration: duration, errs: map[string]error{}, events: make(chan player.Event, 32)}
}

func (p *scriptedPlayer) record(call string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	return p.errs[call]
}

func (p *scriptedPlayer) Play(ctx context.Context) error  { return p.record("play") }
func (p *scriptedPlayer) Pause(ctx context.Context) error { return p.record("pause") }

func (p *scriptedPlayer) Duration(ctx context.Context) (float64, error) {
	if p.duration <= 0 {
		return 0, shared.ErrDurationUnknown
	}
	return p.duration, nil
}

func (p *scriptedPlayer) SetCurrentTime(ctx context.Context, seconds float64) (float64, error) {
	if err := p.record("seek"); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.targets = append(p.targets, seconds)
	return seconds - p.snap, nil
}

func (p *scriptedPlayer) Events() <-chan player.Event { return p.events }

func (p *scriptedPlayer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *scriptedPlayer) Targets() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.targets...)
}

// seekRecorder collects seek side effects in order.
type seekRecorder struct {
	mu        sync.Mutex
	log       []string
	positions []float64
}

func (r *seekRecorder) processing(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if on {
		r.log = append(r.log, "processing")
	} else {
		r.log = append(r.log, "idle")
	}
}

func (r *seekRecorder) landed(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "landed")
	r.positions = append(r.positions, seconds)
}

func (r *seekRecorder) Log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

var errBoom = errors.New("boom")

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
