package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/vidtrack/internal/player"
	"github.com/desertthunder/vidtrack/internal/progress"
	tu "github.com/desertthunder/vidtrack/internal/testing"
	"github.com/google/go-cmp/cmp"
)

type gateFixture struct {
	gate       *Gate
	segments   *progress.Segments
	syncer     *tu.FakeSyncer
	cache      *tu.MemoryStore
	projection *tu.RecordingProjection
}

// newGateFixture builds a 10-segment gate for a 100-second video reconciled from cached.
func newGateFixture(t *testing.T, server float64, cached []bool) *gateFixture {
	t.Helper()
	segments, err := progress.NewSegments(progress.CacheKey(7), 10)
	if err != nil {
		t.Fatalf("NewSegments() failed: %v", err)
	}

	f := &gateFixture{
		segments:   segments,
		syncer:     &tu.FakeSyncer{},
		cache:      tu.NewMemoryStore(),
		projection: tu.NewRecordingProjection(10),
	}
	f.gate = NewGate(segments, GateOpts{
		SegmentID:  7,
		Syncer:     f.syncer,
		Cache:      f.cache,
		Projection: f.projection,
		Logger:     quietLogger(),
	})

	r, err := segments.Reconcile(server, cached)
	if err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
	f.gate.Restore(context.Background(), r)
	return f
}

func (f *gateFixture) tick(seconds float64) Outcome {
	return f.gate.Evaluate(context.Background(), Tick{
		Kind:             player.EventTimeUpdate,
		Seconds:          seconds,
		DurationSeconds:  100,
		FractionComplete: seconds / 100,
	})
}

func TestGate(t *testing.T) {
	t.Run("Ticks Inside Window Are Throttled", func(t *testing.T) {
		f := newGateFixture(t, 0, nil)

		if got := f.tick(10); got != OutcomeSynced {
			t.Fatalf("first tick outcome = %v, want synced", got)
		}
		updates := f.projection.State().Updates
		if got := f.tick(11); got != OutcomeThrottled {
			t.Errorf("second tick outcome = %v, want throttled", got)
		}
		if f.gate.LastObserved() != 10 {
			t.Errorf("baseline = %v, want 10", f.gate.LastObserved())
		}
		if f.projection.State().Updates != updates {
			t.Error("throttled tick must not touch the projection")
		}
		f.gate.Wait()
		if diff := cmp.Diff([]int{10}, f.syncer.Percents()); diff != "" {
			t.Errorf("sync calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Window Boundary Is Inclusive", func(t *testing.T) {
		f := newGateFixture(t, 0, nil)
		if got := f.tick(3); got == OutcomeThrottled {
			t.Error("a tick exactly one window away must be evaluated")
		}
	})

	t.Run("Unchanged Percent Syncs Once", func(t *testing.T) {
		f := newGateFixture(t, 0, []bool{true, true, true, false, false, false, false, false, false, false})
		if f.gate.LastSynced() != 0 {
			t.Fatalf("lastSynced after cache restore = %d, want server value 0", f.gate.LastSynced())
		}

		f.tick(35)
		f.tick(38.5)
		f.tick(39)
		f.gate.Wait()

		if diff := cmp.Diff([]int{40}, f.syncer.Percents()); diff != "" {
			t.Errorf("sync calls mismatch (-want +got):\n%s", diff)
		}
		saved, ok, _ := f.cache.Load(context.Background(), "partsWatched7")
		if !ok || !saved[3] {
			t.Errorf("expected snapshot with segment 3 persisted, got %v", saved)
		}
	})

	t.Run("Segment Flip Without Percent Change Is Persisted", func(t *testing.T) {
		segments, err := progress.NewSegments(progress.CacheKey(9), 300)
		if err != nil {
			t.Fatalf("NewSegments() failed: %v", err)
		}
		syncer := &tu.FakeSyncer{}
		cache := tu.NewMemoryStore()
		gate := NewGate(segments, GateOpts{
			SegmentID:  9,
			Syncer:     syncer,
			Cache:      cache,
			Projection: tu.NewRecordingProjection(300),
			Logger:     quietLogger(),
		})
		r, err := segments.Reconcile(0, nil)
		if err != nil {
			t.Fatalf("Reconcile() failed: %v", err)
		}
		gate.Restore(context.Background(), r)

		got := gate.Evaluate(context.Background(), Tick{
			Kind:             player.EventTimeUpdate,
			Seconds:          5,
			DurationSeconds:  3000,
			FractionComplete: 5.0 / 3000,
		})
		gate.Wait()

		if got != OutcomeEvaluated {
			t.Errorf("outcome = %v, want evaluated", got)
		}
		if segments.Percent() != 0 || !segments.Watched(0) {
			t.Fatalf("expected segment 0 watched at 0%%, got %d%%", segments.Percent())
		}
		if calls := syncer.Calls(); len(calls) != 0 {
			t.Errorf("expected no sync while the percent is unchanged, got %v", calls)
		}
		saved, ok, _ := cache.Load(context.Background(), progress.CacheKey(9))
		if !ok || len(saved) != 300 || !saved[0] {
			t.Errorf("expected snapshot with segment 0 persisted, got ok=%v", ok)
		}
	})

	t.Run("Prefix Restore Suppresses Spurious Sync", func(t *testing.T) {
		f := newGateFixture(t, 55, nil)
		if f.gate.LastSynced() != 50 {
			t.Fatalf("lastSynced = %d, want 50", f.gate.LastSynced())
		}

		if got := f.tick(45); got != OutcomeEvaluated {
			t.Errorf("tick in an already watched segment = %v, want evaluated", got)
		}
		f.gate.Wait()
		if calls := f.syncer.Calls(); len(calls) != 0 {
			t.Errorf("expected no sync, got %v", calls)
		}
	})

	t.Run("Unknown Duration Defers", func(t *testing.T) {
		f := newGateFixture(t, 0, nil)
		var a Adapter
		a.Normalize(player.Event{Kind: player.EventPlay})
		tick, _ := a.Normalize(player.Event{Kind: player.EventTimeUpdate, Seconds: 20})
		if got := f.gate.Evaluate(context.Background(), tick); got != OutcomeDeferred {
			t.Errorf("outcome = %v, want deferred", got)
		}
		if f.gate.LastObserved() != 0 {
			t.Error("deferred tick must not move the baseline")
		}
	})

	t.Run("Completion Marker Inserted Once", func(t *testing.T) {
		f := newGateFixture(t, 0, []bool{true, true, true, true, true, true, true, true, true, false})

		if got := f.tick(95); got != OutcomeSynced {
			t.Fatalf("final tick outcome = %v, want synced", got)
		}
		f.projection.InsertCompletionMarker()
		f.tick(99)
		f.gate.Wait()

		state := f.projection.State()
		if state.Markers != 1 {
			t.Errorf("markers = %d, want 1", state.Markers)
		}
		if state.Percent != 100 || !f.segments.Complete() {
			t.Errorf("expected 100%% complete, got %d", state.Percent)
		}
		if diff := cmp.Diff([]int{100}, f.syncer.Percents()); diff != "" {
			t.Errorf("sync calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Sync Failure Keeps Local State", func(t *testing.T) {
		f := newGateFixture(t, 0, nil)
		f.syncer.Err = errBoom

		f.tick(15)
		f.gate.Wait()
		if f.gate.LastSynced() != 10 {
			t.Errorf("lastSynced = %d, want 10 even after a failed sync", f.gate.LastSynced())
		}
		if _, ok, _ := f.cache.Load(context.Background(), "partsWatched7"); !ok {
			t.Error("snapshot should be persisted regardless of sync outcome")
		}
		if !f.projection.State().Watched[1] {
			t.Error("projection should show segment 1 as watched")
		}
	})

	t.Run("Cache Failure Is Swallowed", func(t *testing.T) {
		f := newGateFixture(t, 0, nil)
		f.cache.Err = errBoom

		if got := f.tick(15); got != OutcomeSynced {
			t.Errorf("outcome = %v, want synced", got)
		}
		f.gate.Wait()
		if f.projection.State().Percent != 10 {
			t.Error("projection should still update when persisting fails")
		}
	})

	t.Run("Reset Baseline After Seek", func(t *testing.T) {
		f := newGateFixture(t, 0, nil)
		f.gate.ResetBaseline(60)
		if got := f.tick(61); got != OutcomeThrottled {
			t.Errorf("tick right after a seek = %v, want throttled", got)
		}
		if got := f.tick(64); got == OutcomeThrottled {
			t.Error("tick one window after the seek must be evaluated")
		}
		f.gate.Wait()
	})

	t.Run("Server Complete Restore", func(t *testing.T) {
		f := newGateFixture(t, 100, make([]bool, 10))
		saved, ok, _ := f.cache.Load(context.Background(), "partsWatched7")
		if !ok || len(saved) != 10 || !saved[0] || !saved[9] {
			t.Errorf("expected all-watched snapshot persisted, got %v", saved)
		}
		if state := f.projection.State(); state.Markers != 1 || state.Percent != 100 {
			t.Errorf("unexpected projection %+v", state)
		}
	})

	t.Run("Custom Window", func(t *testing.T) {
		segments, _ := progress.NewSegments("k", 4)
		g := NewGate(segments, GateOpts{Window: 500 * time.Millisecond, Logger: quietLogger()})
		g.Evaluate(context.Background(), Tick{Kind: player.EventTimeUpdate, Seconds: 0.6, DurationSeconds: 4, FractionComplete: 0.15})
		if g.LastObserved() != 0.6 {
			t.Errorf("baseline = %v, want 0.6", g.LastObserved())
		}
	})
}
