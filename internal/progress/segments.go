package progress

import (
	"fmt"
	"slices"

	"github.com/desertthunder/vidtrack/internal/shared"
)

// Source identifies which input decided a store's starting state.
type Source int

const (
	SourceNone Source = iota
	SourceServerComplete
	SourceCache
	SourceServerPrefix
)

func (s Source) String() string {
	switch s {
	case SourceServerComplete:
		return "server_complete"
	case SourceCache:
		return "cache"
	case SourceServerPrefix:
		return "server_prefix"
	default:
		return "none"
	}
}

// Reconciliation describes the outcome of [Segments.Reconcile].
type Reconciliation struct {
	Source Source
	// Percent is the store's percentage after reconciliation.
	Percent int
	// LastSyncedPercent is the value the server is assumed to hold, so the first tick doesn't resend it.
	LastSyncedPercent int
	// Persist reports that the new state must be written to the cache right away.
	Persist bool
}

// Segments is the per-video watched/unwatched store.
//
// The zero value is not usable; create one with [NewSegments]. A Segments value is not safe for concurrent
// mutation: the tracker mutates it from a single goroutine.
type Segments struct {
	key        string
	watched    []bool
	reconciled bool
}

// NewSegments creates an all-unwatched store of n segments namespaced by key.
func NewSegments(key string, n int) (*Segments, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: segment count must be positive, got %d", shared.ErrInvalidArgument, n)
	}
	return &Segments{key: key, watched: make([]bool, n)}, nil
}

// Key returns the persisted cache key.
func (s *Segments) Key() string { return s.key }

// Len returns the fixed segment count.
func (s *Segments) Len() int { return len(s.watched) }

// Watched reports whether segment i is watched; out-of-range indexes report false.
func (s *Segments) Watched(i int) bool {
	if i < 0 || i >= len(s.watched) {
		return false
	}
	return s.watched[i]
}

// Snapshot returns a copy of the flags safe to hand to other goroutines.
func (s *Segments) Snapshot() []bool {
	return slices.Clone(s.watched)
}

// Percent returns the current percentage watched.
func (s *Segments) Percent() int {
	p, _ := Compute(s.watched)
	return p
}

// Complete reports whether every segment is watched.
func (s *Segments) Complete() bool {
	return !slices.Contains(s.watched, false)
}

// MarkWatched sets segment i and reports whether anything changed.
// Out-of-range indexes and already-watched segments are no-ops.
func (s *Segments) MarkWatched(i int) bool {
	if i < 0 || i >= len(s.watched) || s.watched[i] {
		return false
	}
	s.watched[i] = true
	return true
}

// Reconcile resolves the starting state from the server's percentage and the persisted snapshot.
//
// cached is nil when no snapshot exists. A snapshot whose length doesn't match the segment count is treated
// as absent. Reconcile may run only once per store; later calls fail with [shared.ErrInvalidState].
func (s *Segments) Reconcile(serverPercent float64, cached []bool) (Reconciliation, error) {
	if s.reconciled {
		return Reconciliation{}, fmt.Errorf("%w: segments %s already reconciled", shared.ErrInvalidState, s.key)
	}
	s.reconciled = true

	server := clampPercent(serverPercent)
	if cached != nil && len(cached) != len(s.watched) {
		cached = nil
	}

	var r Reconciliation
	switch {
	case server >= 100:
		for i := range s.watched {
			s.watched[i] = true
		}
		r = Reconciliation{Source: SourceServerComplete, LastSyncedPercent: 100, Persist: true}
	case cached != nil:
		copy(s.watched, cached)
		r = Reconciliation{Source: SourceCache, LastSyncedPercent: int(server)}
	case server > 0:
		for i := 0; i < PrefixLength(server, len(s.watched)); i++ {
			s.watched[i] = true
		}
		r = Reconciliation{Source: SourceServerPrefix, LastSyncedPercent: s.Percent()}
	default:
		r = Reconciliation{Source: SourceNone}
	}

	r.Percent = s.Percent()
	return r, nil
}

func clampPercent(p float64) float64 {
	switch {
	case p != p, p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
