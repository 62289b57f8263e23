// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/vidtrack/internal/models"
)

// FakeSyncer is a test double for [services.Syncer] that records every call.
type FakeSyncer struct {
	mu    sync.Mutex
	calls []models.ProgressUpdate
	Err   error
}

func (f *FakeSyncer) Sync(ctx context.Context, segmentID int64, percent int) (*models.ProgressUpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, models.ProgressUpdate{SegmentID: segmentID, PercentWatched: percent})
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.ProgressUpdateResult{SegmentID: segmentID, Saved: true, PercentWatched: float64(percent)}, nil
}

// Calls returns a copy of the recorded updates.
func (f *FakeSyncer) Calls() []models.ProgressUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ProgressUpdate(nil), f.calls...)
}

// Percents returns the percent of each recorded update, in call order.
func (f *FakeSyncer) Percents() []int {
	calls := f.Calls()
	out := make([]int, len(calls))
	for i, c := range calls {
		out[i] = c.PercentWatched
	}
	return out
}

// FakeFetcher is a test double for [services.Fetcher].
type FakeFetcher struct {
	Percent float64
	Err     error
}

func (f *FakeFetcher) SegmentPercent(ctx context.Context, segmentID int64) (float64, error) {
	return f.Percent, f.Err
}

// RecordingProjection is a test double for tracker.Projection.
type RecordingProjection struct {
	mu         sync.Mutex
	Watched    []bool
	Percent    int
	Playhead   float64
	Markers    int
	Processing bool
	Updates    int
}

func NewRecordingProjection(n int) *RecordingProjection {
	return &RecordingProjection{Watched: make([]bool, n)}
}

func (p *RecordingProjection) SetSegmentWatched(i int, watched bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i >= 0 && i < len(p.Watched) {
		p.Watched[i] = watched
	}
	p.Updates++
}

func (p *RecordingProjection) SetPercentText(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Percent = percent
}

func (p *RecordingProjection) SetPlayheadOffset(fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Playhead = fraction
}

// InsertCompletionMarker counts real insertions; a second call is a no-op.
func (p *RecordingProjection) InsertCompletionMarker() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Markers == 0 {
		p.Markers++
	}
}

func (p *RecordingProjection) SetProcessing(processing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Processing = processing
}

// ProjectionState is a snapshot of a [RecordingProjection].
type ProjectionState struct {
	Watched    []bool
	Percent    int
	Playhead   float64
	Markers    int
	Processing bool
	Updates    int
}

// State returns a consistent copy of the projection.
func (p *RecordingProjection) State() ProjectionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProjectionState{
		Watched:    append([]bool(nil), p.Watched...),
		Percent:    p.Percent,
		Playhead:   p.Playhead,
		Markers:    p.Markers,
		Processing: p.Processing,
		Updates:    p.Updates,
	}
}

// MemoryStore is a map-backed cache whose writes can be made to fail.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]bool
	Err    error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]bool)}
}

func (m *MemoryStore) Load(ctx context.Context, key string) ([]bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return append([]bool(nil), v...), ok, nil
}

func (m *MemoryStore) Save(ctx context.Context, key string, watched []bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.values[key] = append([]bool(nil), watched...)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
