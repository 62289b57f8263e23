package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtrack/internal/metrics"
	"github.com/desertthunder/vidtrack/internal/models"
	"github.com/desertthunder/vidtrack/internal/shared"
	"golang.org/x/time/rate"
)

const (
	updatePath  = "/api/progress/update/"
	segmentPath = "/api/progress/segment/%d/"
)

// ProgressService talks to the progress server's progress endpoints.
type ProgressService struct {
	api     *APIService
	limiter *rate.Limiter
	logger  *log.Logger

	mu     sync.Mutex
	seq    uint64
	latest map[int64]uint64 // segment id → sequence of the newest queued sync
}

// ProgressServiceOpts configures a [ProgressService].
type ProgressServiceOpts struct {
	// RateLimit is the number of requests per second; zero disables limiting.
	RateLimit float64
	Logger    *log.Logger
}

// NewProgressService creates a progress client on top of api.
func NewProgressService(api *APIService, opts ProgressServiceOpts) *ProgressService {
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &ProgressService{
		api:     api,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		latest:  make(map[int64]uint64),
	}
}

func (s *ProgressService) Name() string { return "progress" }

// Sync implements [Syncer]. A call still waiting on the rate limiter when a newer percent for the same
// segment arrives is dropped with [shared.ErrSuperseded] and never sent.
func (s *ProgressService) Sync(ctx context.Context, segmentID int64, percent int) (*models.ProgressUpdateResult, error) {
	ticket := s.enqueue(segmentID)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", shared.ErrAPIRequest, err)
	}
	if !s.current(segmentID, ticket) {
		s.logger.Debug("skipping superseded sync", "segment", segmentID, "percent", percent)
		return nil, shared.ErrSuperseded
	}

	resp, err := s.api.PostJSON(ctx, updatePath, models.ProgressUpdate{SegmentID: segmentID, PercentWatched: percent})
	if err == nil {
		err = statusError(resp, segmentID)
	}
	metrics.SyncRequestsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}

	var result models.ProgressUpdateResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}

	s.logger.Debug("progress synced", "segment", segmentID, "percent", percent, "saved", result.Saved)
	return &result, nil
}

// SegmentPercent implements [Fetcher].
func (s *ProgressService) SegmentPercent(ctx context.Context, segmentID int64) (float64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: rate limiter: %w", shared.ErrAPIRequest, err)
	}

	resp, err := s.api.Get(ctx, fmt.Sprintf(segmentPath, segmentID))
	if err != nil {
		return 0, err
	}
	if err := statusError(resp, segmentID); err != nil {
		return 0, err
	}

	var body models.SegmentPercent
	if err := resp.Decode(&body); err != nil {
		return 0, err
	}
	return body.PercentWatched, nil
}

func (s *ProgressService) enqueue(segmentID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.latest[segmentID] = s.seq
	return s.seq
}

func (s *ProgressService) current(segmentID int64, ticket uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[segmentID] == ticket
}

func statusError(resp *APIResponse, segmentID int64) error {
	if resp.OK() {
		return nil
	}

	msg := string(resp.Body)
	var body models.ErrorResponse
	if resp.Decode(&body) == nil && body.Error != "" {
		msg = body.Error
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: segment %d: %s", shared.ErrSegmentNotFound, segmentID, msg)
	}
	return fmt.Errorf("%w: status %d: %s", shared.ErrSyncFailed, resp.StatusCode, msg)
}
