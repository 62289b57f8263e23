package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/vidtrack/internal/shared"
)

// Model defines the base interface for all persistent models.
type Model interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations keyed by K.
type Repository[T Model, K comparable] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id K) (T, error)                       // Get retrieves a model by its ID
	Delete(id K) error                         // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Course is the top of the catalog tree.
type Course struct {
	ID        string
	Slug      string
	Title     string
	Live      bool
	Chapters  []*Chapter
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate implements [Model].
func (c *Course) Validate() error {
	if strings.TrimSpace(c.Slug) == "" {
		return fmt.Errorf("%w: course slug is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: course %s title is required", shared.ErrInvalidInput, c.Slug)
	}
	for _, ch := range c.Chapters {
		if err := ch.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SegmentCount returns the number of segments across all chapters.
func (c *Course) SegmentCount() int {
	n := 0
	for _, ch := range c.Chapters {
		n += len(ch.Segments)
	}
	return n
}

// Chapter groups segments inside a course.
type Chapter struct {
	ID        string
	CourseID  string
	Title     string
	Position  int
	Live      bool
	Segments  []*Segment
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate implements [Model].
func (c *Chapter) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: chapter title is required", shared.ErrInvalidInput)
	}
	for _, s := range c.Segments {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Segment is a single video lesson. Its ID is what the player reports progress against.
type Segment struct {
	ID              int64
	ChapterID       string
	Title           string
	Position        int
	DurationSeconds float64
	Live            bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate implements [Model].
func (s *Segment) Validate() error {
	if s.ID <= 0 {
		return fmt.Errorf("%w: segment id must be positive, got %d", shared.ErrInvalidInput, s.ID)
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: segment %d title is required", shared.ErrInvalidInput, s.ID)
	}
	if s.DurationSeconds < 0 {
		return fmt.Errorf("%w: segment %d duration must not be negative", shared.ErrInvalidInput, s.ID)
	}
	return nil
}

// SegmentProgress is a user's percent watched for one segment.
type SegmentProgress struct {
	ID             string
	UserID         string
	SegmentID      int64
	PercentWatched float64
	LastUpdated    time.Time
}

// Validate implements [Model].
func (p *SegmentProgress) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: progress requires a user", shared.ErrInvalidInput)
	}
	if p.PercentWatched < 0 || p.PercentWatched > 100 {
		return fmt.Errorf("%w: percent_watched %v out of range", shared.ErrInvalidInput, p.PercentWatched)
	}
	return nil
}

// Completion is a user's completion flag for a chapter or course.
type Completion struct {
	ID          string
	UserID      string
	EntityID    string
	Completed   bool
	CompletedAt *time.Time
}

// Validate implements [Model].
func (c *Completion) Validate() error {
	if c.UserID == "" || c.EntityID == "" {
		return fmt.Errorf("%w: completion requires a user and an entity", shared.ErrInvalidInput)
	}
	return nil
}

// Mark sets the completed flag, stamping CompletedAt the first time completion is reached.
// Reports whether this call reached completion for the first time.
func (c *Completion) Mark(completed bool, now time.Time) bool {
	c.Completed = completed
	if completed && c.CompletedAt == nil {
		c.CompletedAt = &now
		return true
	}
	return false
}

// ReportRow is one line of a user's progress report.
type ReportRow struct {
	Course           string
	Chapter          string
	SegmentID        int64
	Segment          string
	PercentWatched   float64
	Completed        bool
	ChapterCompleted bool
	CourseCompleted  bool
}
