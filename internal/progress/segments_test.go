package progress

import (
	"errors"
	"testing"

	"github.com/desertthunder/vidtrack/internal/shared"
	"github.com/google/go-cmp/cmp"
)

func newTestSegments(t *testing.T, n int) *Segments {
	t.Helper()
	s, err := NewSegments(CacheKey(1), n)
	if err != nil {
		t.Fatalf("NewSegments() error = %v", err)
	}
	return s
}

func TestNewSegments(t *testing.T) {
	t.Run("starts unwatched", func(t *testing.T) {
		s := newTestSegments(t, 4)
		if diff := cmp.Diff([]bool{false, false, false, false}, s.Snapshot()); diff != "" {
			t.Errorf("unexpected snapshot (-want +got):\n%s", diff)
		}
		if s.Percent() != 0 || s.Complete() {
			t.Errorf("fresh store should be 0%% and incomplete")
		}
	})

	t.Run("rejects non-positive counts", func(t *testing.T) {
		for _, n := range []int{0, -3} {
			if _, err := NewSegments("k", n); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("NewSegments(%d) error = %v, want ErrInvalidArgument", n, err)
			}
		}
	})
}

func TestMarkWatched(t *testing.T) {
	t.Run("reports change once", func(t *testing.T) {
		s := newTestSegments(t, 10)
		if !s.MarkWatched(3) {
			t.Error("first MarkWatched(3) should report a change")
		}
		first := s.Snapshot()

		if s.MarkWatched(3) {
			t.Error("second MarkWatched(3) should be a no-op")
		}
		if diff := cmp.Diff(first, s.Snapshot()); diff != "" {
			t.Errorf("idempotence violated (-once +twice):\n%s", diff)
		}
		if s.Percent() != 10 {
			t.Errorf("Percent() = %d, want 10", s.Percent())
		}
	})

	t.Run("ignores out of range", func(t *testing.T) {
		s := newTestSegments(t, 3)
		for _, i := range []int{-1, 3, 100} {
			if s.MarkWatched(i) {
				t.Errorf("MarkWatched(%d) should be a no-op", i)
			}
		}
		if s.Percent() != 0 {
			t.Errorf("Percent() = %d, want 0", s.Percent())
		}
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		s := newTestSegments(t, 2)
		snap := s.Snapshot()
		snap[0] = true
		if s.Watched(0) {
			t.Error("mutating a snapshot must not touch the store")
		}
	})

	t.Run("complete after every segment", func(t *testing.T) {
		s := newTestSegments(t, 3)
		for i := 0; i < 3; i++ {
			s.MarkWatched(i)
		}
		if !s.Complete() || s.Percent() != 100 {
			t.Errorf("expected complete at 100%%, got %d%%", s.Percent())
		}
	})
}

func TestReconcile(t *testing.T) {
	stale := make([]bool, 10)
	threeOfTen := []bool{true, true, true, false, false, false, false, false, false, false}

	tt := []struct {
		name       string
		server     float64
		cached     []bool
		want       []bool
		wantSource Source
		wantSynced int
		wantPct    int
		persist    bool
	}{
		{
			name:       "server complete overrides stale cache",
			server:     100,
			cached:     stale,
			want:       []bool{true, true, true, true, true, true, true, true, true, true},
			wantSource: SourceServerComplete,
			wantSynced: 100,
			wantPct:    100,
			persist:    true,
		},
		{
			name:       "cache wins over partial server percent",
			server:     40,
			cached:     threeOfTen,
			want:       threeOfTen,
			wantSource: SourceCache,
			wantSynced: 40,
			wantPct:    30,
		},
		{
			name:       "cache adopted verbatim even with gaps",
			server:     0,
			cached:     []bool{false, true, false, false, false, false, false, false, false, true},
			want:       []bool{false, true, false, false, false, false, false, false, false, true},
			wantSource: SourceCache,
			wantSynced: 0,
			wantPct:    20,
		},
		{
			name:       "server prefix without cache",
			server:     55,
			want:       []bool{true, true, true, true, true, false, false, false, false, false},
			wantSource: SourceServerPrefix,
			wantSynced: 50,
			wantPct:    50,
		},
		{
			name:       "nothing known starts unwatched",
			server:     0,
			want:       stale,
			wantSource: SourceNone,
		},
		{
			name:       "mismatched cache length is ignored",
			server:     20,
			cached:     []bool{true, true, true},
			want:       []bool{true, true, false, false, false, false, false, false, false, false},
			wantSource: SourceServerPrefix,
			wantSynced: 20,
			wantPct:    20,
		},
		{
			name:       "server above range counts as complete",
			server:     150,
			want:       []bool{true, true, true, true, true, true, true, true, true, true},
			wantSource: SourceServerComplete,
			wantSynced: 100,
			wantPct:    100,
			persist:    true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSegments(t, 10)
			r, err := s.Reconcile(tc.server, tc.cached)
			if err != nil {
				t.Fatalf("Reconcile() error = %v", err)
			}

			if diff := cmp.Diff(tc.want, s.Snapshot()); diff != "" {
				t.Errorf("watched mismatch (-want +got):\n%s", diff)
			}
			if r.Source != tc.wantSource {
				t.Errorf("Source = %v, want %v", r.Source, tc.wantSource)
			}
			if r.LastSyncedPercent != tc.wantSynced {
				t.Errorf("LastSyncedPercent = %d, want %d", r.LastSyncedPercent, tc.wantSynced)
			}
			if r.Percent != tc.wantPct {
				t.Errorf("Percent = %d, want %d", r.Percent, tc.wantPct)
			}
			if r.Persist != tc.persist {
				t.Errorf("Persist = %v, want %v", r.Persist, tc.persist)
			}
		})
	}

	t.Run("cache is copied, not aliased", func(t *testing.T) {
		cached := []bool{true, false}
		s := newTestSegments(t, 2)
		if _, err := s.Reconcile(0, cached); err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}
		s.MarkWatched(1)
		if cached[1] {
			t.Error("store must not write through to the caller's slice")
		}
	})

	t.Run("second call fails", func(t *testing.T) {
		s := newTestSegments(t, 10)
		if _, err := s.Reconcile(0, nil); err != nil {
			t.Fatalf("first Reconcile() error = %v", err)
		}
		if _, err := s.Reconcile(100, nil); !errors.Is(err, shared.ErrInvalidState) {
			t.Errorf("second Reconcile() error = %v, want ErrInvalidState", err)
		}
		if s.Percent() != 0 {
			t.Errorf("failed Reconcile() must not change state, got %d%%", s.Percent())
		}
	})
}
