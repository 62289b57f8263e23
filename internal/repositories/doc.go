// Package repositories implements SQLite persistence for the course catalog, per-user progress and the
// client-side watch cache.
//
// Key Implementations:
//   - [CourseRepository] : course → chapter → segment trees, imported and re-imported by slug
//   - [SegmentRepository] : segment lookups by id, the unit the player reports against
//   - [ProgressRepository] : segment percent upserts (last write wins), chapter and course completion, reports
//   - [WatchCacheRepository] : persisted watched-segment snapshots keyed partsWatched<segmentId>
//   - [MemoryCache] : in-process cache with the same contract, for ephemeral sessions
//
// Re-importing a course never deletes rows: chapters and segments missing from the new import are marked not
// live, so recorded progress survives catalog edits while completion only counts live content.
package repositories
