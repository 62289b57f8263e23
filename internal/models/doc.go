// Package models defines domain entities, wire payloads and persistence interfaces for vidtrack.
//
// The package contains three categories of types:
//
// 1. Wire payloads exchanged between the tracker and the progress server
//   - [ProgressUpdate] : {segment_id, percent_watched} sent on every percent change
//   - [ProgressUpdateResult] : server reply with completion flags
//   - [SegmentPercent] : server-side percent used to reconcile a fresh view
//
// 2. Catalog entities: [Course] → [Chapter] → [Segment], ordered by position
//
// 3. Per-user progress: [SegmentProgress] (percent, last write wins) and [Completion] rows for chapters and
// courses, stamped the first time they complete.
//
// Persistent entities implement [Model]; the generic [Repository] describes CRUD access to them.
package models
