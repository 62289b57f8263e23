package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/vidtrack/internal/models"
	"github.com/desertthunder/vidtrack/internal/repositories"
	"github.com/desertthunder/vidtrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// catalogFile is the TOML layout read by course import.
//
//	[[course]]
//	slug = "intro"
//	title = "Intro course"
//	  [[course.chapter]]
//	  title = "Chapter 1"
//	    [[course.chapter.segment]]
//	    id = 101
//	    title = "Welcome"
//	    duration = 120
type catalogFile struct {
	Courses []catalogCourse `toml:"course"`
}

type catalogCourse struct {
	Slug     string           `toml:"slug"`
	Title    string           `toml:"title"`
	Chapters []catalogChapter `toml:"chapter"`
}

type catalogChapter struct {
	Title    string           `toml:"title"`
	Segments []catalogSegment `toml:"segment"`
}

type catalogSegment struct {
	ID       int64   `toml:"id"`
	Title    string  `toml:"title"`
	Duration float64 `toml:"duration"`
}

// parseCatalog decodes and validates a course file. Segment ids must be unique across the whole file.
func parseCatalog(data []byte) ([]*models.Course, error) {
	var file catalogFile
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %s", shared.ErrInvalidInput, undecoded[0])
	}
	if len(file.Courses) == 0 {
		return nil, fmt.Errorf("%w: no [[course]] entries", shared.ErrInvalidInput)
	}

	seen := map[int64]string{}
	courses := make([]*models.Course, 0, len(file.Courses))
	for _, c := range file.Courses {
		course := &models.Course{Slug: c.Slug, Title: c.Title, Live: true}
		for _, ch := range c.Chapters {
			chapter := &models.Chapter{Title: ch.Title, Live: true}
			for _, s := range ch.Segments {
				if prev, dup := seen[s.ID]; dup {
					return nil, fmt.Errorf("%w: segment id %d used in %s and %s", shared.ErrInvalidInput, s.ID, prev, c.Slug)
				}
				seen[s.ID] = c.Slug

				seg := &models.Segment{ID: s.ID, Title: s.Title, DurationSeconds: s.Duration, Live: true}
				if err := seg.Validate(); err != nil {
					return nil, fmt.Errorf("course %s: %w", c.Slug, err)
				}
				chapter.Segments = append(chapter.Segments, seg)
			}
			course.Chapters = append(course.Chapters, chapter)
		}
		if err := course.Validate(); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// CourseImport creates or updates the courses in --file. Chapters and segments missing from the file are
// retired, never deleted, so recorded progress survives.
func (r *Runner) CourseImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read course file: %w", err)
	}

	courses, err := parseCatalog(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	db, err := r.database()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewCourseRepository(db)
	for _, course := range courses {
		if err := repo.Save(course); err != nil {
			return fmt.Errorf("failed to save course %s: %w", course.Slug, err)
		}
		r.logger.Info("course imported", "slug", course.Slug, "chapters", len(course.Chapters), "segments", course.SegmentCount())
		r.writePlain("✓ %s (%d chapters, %d segments)\n", course.Title, len(course.Chapters), course.SegmentCount())
	}
	return nil
}

// CourseList prints live courses as an outline or JSON.
func (r *Runner) CourseList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}
	defer db.Close()

	courses, err := repositories.NewCourseRepository(db).List(map[string]any{"live": true})
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(courses, cmd.Bool("pretty"))
	}

	if len(courses) == 0 {
		return r.writePlain("No courses. Import one with 'vidtrack course import --file course.toml'\n")
	}

	r.writePlainHeader(fmt.Sprintf("Courses (%d)", len(courses)))
	for _, course := range courses {
		r.writePlain("%s [%s]\n", course.Title, course.Slug)
		for _, ch := range course.Chapters {
			r.writePlain("  %s\n", ch.Title)
			for _, seg := range ch.Segments {
				r.writePlain("    %6d  %s (%s)\n", seg.ID, seg.Title, formatSeconds(seg.DurationSeconds))
			}
		}
	}
	return nil
}

// formatSeconds renders a duration in seconds as m:ss, or "?" when unknown.
func formatSeconds(s float64) string {
	if s <= 0 {
		return "?"
	}
	total := int(s + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
