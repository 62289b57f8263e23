package models

// ProgressUpdate is the body of POST /api/progress/update/.
type ProgressUpdate struct {
	SegmentID      int64 `json:"segment_id"`
	PercentWatched int   `json:"percent_watched"`
}

// ProgressUpdateResult is the server's reply to a [ProgressUpdate].
type ProgressUpdateResult struct {
	SegmentID        int64   `json:"segment_id"`
	Saved            bool    `json:"saved"`
	PercentWatched   float64 `json:"percent_watched"`
	ChapterCompleted bool    `json:"chapter_completed"`
	CourseCompleted  bool    `json:"course_completed"`
}

// SegmentPercent is the body of GET /api/progress/segment/{id}/.
type SegmentPercent struct {
	SegmentID      int64   `json:"segment_id"`
	PercentWatched float64 `json:"percent_watched"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
