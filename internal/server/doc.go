// Package server implements the progress service that the tracker syncs against.
//
// # Routes
//
//   - POST /api/progress/update/ records {"segment_id", "percent_watched"} for the caller and recomputes
//     chapter and course completion.
//   - GET /api/progress/segment/{id}/ returns the caller's stored percent, 0 when nothing was recorded.
//   - GET /healthz and GET /metrics.
//
// The caller is whoever the X-User-ID header names. Requests without it are validated and answered
// but never persisted. When a token is configured, /api routes also require "Authorization: Bearer <token>".
//
// # Router
//
// [BasicRouter] sits on [http.ServeMux] method patterns. [Middleware] is applied in reverse order
// (last added wraps first) and only to handlers registered after [BasicRouter.Use].
// [BasicRouter.With] scopes extra middleware to a group of routes.
//
// Custom handlers implement [Handler], which adds Routes to the stdlib interface so a handler can own
// several path patterns.
package server
