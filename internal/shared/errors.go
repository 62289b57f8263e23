package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Tracking errors
	ErrInvalidState      = fmt.Errorf("invalid state")
	ErrPlayerUnavailable = fmt.Errorf("player unavailable")
	ErrDurationUnknown   = fmt.Errorf("duration unknown")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrSyncFailed         = fmt.Errorf("progress sync failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrSegmentNotFound    = fmt.Errorf("segment not found")
	ErrCourseNotFound     = fmt.Errorf("course not found")
	ErrNotFound           = fmt.Errorf("not found")
	ErrSuperseded         = fmt.Errorf("superseded by a newer value")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
