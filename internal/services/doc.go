// Package services implements the outbound HTTP clients used by the tracker.
//
// # API Service
//
// [APIService] performs raw JSON requests against the progress server. It attaches the X-User-ID header
// on every request; bearer authentication is provided by the [http.Client] built with [NewHTTPClient],
// which wraps an [oauth2.StaticTokenSource].
//
// # Progress Service
//
// [ProgressService] implements [Syncer] and [Fetcher]:
//   - Sync posts {segment_id, percent_watched} to /api/progress/update/
//   - SegmentPercent reads the server-side percent from /api/progress/segment/{id}/
//
// Outbound calls share a [rate.Limiter]. A sync still waiting on the limiter when a newer percent for the
// same segment arrives is dropped with [shared.ErrSuperseded] so the server never sees values out of order.
//
// # Error Handling
//
//   - [shared.ErrAPIRequest] : the request could not be built or sent
//   - [shared.ErrSyncFailed] : the server answered with a non-2xx status
//   - [shared.ErrSegmentNotFound] : the server does not know the segment
//   - [shared.ErrSuperseded] : a newer value replaced this one before it was sent
package services
