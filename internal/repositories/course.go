package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vidtrack/internal/models"
	"github.com/desertthunder/vidtrack/internal/shared"
)

// CourseRepository implements models.Repository[*models.Course, string] for the course catalog.
//
// Courses are loaded with their live chapters and segments in position order.
type CourseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new CourseRepository with the given database connection
func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a new course tree. Fails when the slug already exists.
func (r *CourseRepository) Create(course *models.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return inTx(r.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		course.ID = shared.GenerateID()
		course.Live = true
		course.CreatedAt, course.UpdatedAt = now, now

		_, err := tx.Exec(
			`INSERT INTO courses (id, slug, title, live, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			course.ID, course.Slug, course.Title, course.Live, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert course: %w", err)
		}

		for i, ch := range course.Chapters {
			if err := r.insertChapter(tx, course.ID, i, ch, now); err != nil {
				return err
			}
			for j, seg := range ch.Segments {
				if err := r.upsertSegment(tx, ch.ID, j, seg, now); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Save imports a course tree, matching the course by slug, chapters by position and segments by id.
//
// Content absent from the import stays in the database but is no longer live.
func (r *CourseRepository) Save(course *models.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return inTx(r.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()

		var id string
		var createdAt time.Time
		err := tx.QueryRow(`SELECT id, created_at FROM courses WHERE slug = ?`, course.Slug).Scan(&id, &createdAt)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id, createdAt = shared.GenerateID(), now
			_, err = tx.Exec(
				`INSERT INTO courses (id, slug, title, live, created_at, updated_at) VALUES (?, ?, ?, 1, ?, ?)`,
				id, course.Slug, course.Title, now, now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert course: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to look up course %s: %w", course.Slug, err)
		default:
			if _, err := tx.Exec(`UPDATE courses SET title = ?, live = 1, updated_at = ? WHERE id = ?`, course.Title, now, id); err != nil {
				return fmt.Errorf("failed to update course: %w", err)
			}
		}

		course.ID, course.Live = id, true
		course.CreatedAt, course.UpdatedAt = createdAt, now

		if _, err := tx.Exec(
			`UPDATE segments SET live = 0, updated_at = ? WHERE chapter_id IN (SELECT id FROM chapters WHERE course_id = ?)`,
			now, id,
		); err != nil {
			return fmt.Errorf("failed to retire segments: %w", err)
		}
		if _, err := tx.Exec(`UPDATE chapters SET live = 0, updated_at = ? WHERE course_id = ?`, now, id); err != nil {
			return fmt.Errorf("failed to retire chapters: %w", err)
		}

		for i, ch := range course.Chapters {
			var chapterID string
			err := tx.QueryRow(`SELECT id FROM chapters WHERE course_id = ? AND position = ?`, id, i).Scan(&chapterID)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				if err := r.insertChapter(tx, id, i, ch, now); err != nil {
					return err
				}
			case err != nil:
				return fmt.Errorf("failed to look up chapter %d: %w", i, err)
			default:
				if _, err := tx.Exec(
					`UPDATE chapters SET title = ?, live = 1, updated_at = ? WHERE id = ?`, ch.Title, now, chapterID,
				); err != nil {
					return fmt.Errorf("failed to update chapter: %w", err)
				}
				ch.ID, ch.CourseID, ch.Position, ch.Live = chapterID, id, i, true
				ch.UpdatedAt = now
			}

			for j, seg := range ch.Segments {
				if err := r.upsertSegment(tx, ch.ID, j, seg, now); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Get retrieves a course by ID with its live chapters and segments
func (r *CourseRepository) Get(id string) (*models.Course, error) {
	course, err := r.scanCourse(r.db.QueryRow(
		`SELECT id, slug, title, live, created_at, updated_at FROM courses WHERE id = ?`, id,
	))
	if err != nil {
		return nil, err
	}
	return course, r.loadTree(course)
}

// GetBySlug retrieves a course by slug with its live chapters and segments
func (r *CourseRepository) GetBySlug(slug string) (*models.Course, error) {
	course, err := r.scanCourse(r.db.QueryRow(
		`SELECT id, slug, title, live, created_at, updated_at FROM courses WHERE slug = ?`, slug,
	))
	if err != nil {
		return nil, err
	}
	return course, r.loadTree(course)
}

// Delete removes a course; chapters, segments and progress cascade.
func (r *CourseRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrCourseNotFound, id)
	}
	return nil
}

// List retrieves all courses matching the given criteria ordered by title.
//
// Supported criteria: "slug" (string), "live" (bool).
func (r *CourseRepository) List(criteria map[string]any) ([]*models.Course, error) {
	query := `SELECT id, slug, title, live, created_at, updated_at FROM courses WHERE 1 = 1`
	args := []any{}

	if slug, ok := criteria["slug"].(string); ok && slug != "" {
		query += " AND slug = ?"
		args = append(args, slug)
	}
	if live, ok := criteria["live"].(bool); ok {
		query += " AND live = ?"
		args = append(args, live)
	}
	query += " ORDER BY title ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		course, err := r.scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, c := range courses {
		if err := r.loadTree(c); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

// AddChapter appends a chapter after the course's last chapter.
func (r *CourseRepository) AddChapter(courseID string, chapter *models.Chapter) error {
	if err := chapter.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return inTx(r.db, func(tx *sql.Tx) error {
		pos, err := NextPosition(tx, "chapters", "course_id", courseID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := r.insertChapter(tx, courseID, pos, chapter, now); err != nil {
			return err
		}
		for j, seg := range chapter.Segments {
			if err := r.upsertSegment(tx, chapter.ID, j, seg, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CourseRepository) insertChapter(q querier, courseID string, pos int, ch *models.Chapter, now time.Time) error {
	ch.ID = shared.GenerateID()
	ch.CourseID, ch.Position, ch.Live = courseID, pos, true
	ch.CreatedAt, ch.UpdatedAt = now, now

	_, err := q.Exec(
		`INSERT INTO chapters (id, course_id, title, position, live, created_at, updated_at) VALUES (?, ?, ?, ?, 1, ?, ?)`,
		ch.ID, courseID, ch.Title, pos, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chapter: %w", err)
	}
	return nil
}

func (r *CourseRepository) upsertSegment(q querier, chapterID string, pos int, seg *models.Segment, now time.Time) error {
	seg.ChapterID, seg.Position, seg.Live = chapterID, pos, true
	seg.UpdatedAt = now
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = now
	}

	_, err := q.Exec(`
		INSERT INTO segments (id, chapter_id, title, position, duration_seconds, live, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			chapter_id = excluded.chapter_id,
			title = excluded.title,
			position = excluded.position,
			duration_seconds = excluded.duration_seconds,
			live = 1,
			updated_at = excluded.updated_at
	`, seg.ID, chapterID, seg.Title, pos, seg.DurationSeconds, seg.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert segment %d: %w", seg.ID, err)
	}
	return nil
}

func (r *CourseRepository) loadTree(course *models.Course) error {
	rows, err := r.db.Query(`
		SELECT id, course_id, title, position, live, created_at, updated_at
		FROM chapters
		WHERE course_id = ? AND live = 1
		ORDER BY position ASC
	`, course.ID)
	if err != nil {
		return fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	course.Chapters = nil
	for rows.Next() {
		ch := &models.Chapter{}
		if err := rows.Scan(&ch.ID, &ch.CourseID, &ch.Title, &ch.Position, &ch.Live, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan chapter: %w", err)
		}
		course.Chapters = append(course.Chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	segments := NewSegmentRepository(r.db)
	for _, ch := range course.Chapters {
		ch.Segments, err = segments.List(map[string]any{"chapter_id": ch.ID, "live": true})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *CourseRepository) scanCourse(row scanner) (*models.Course, error) {
	c := &models.Course{}
	err := row.Scan(&c.ID, &c.Slug, &c.Title, &c.Live, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	return c, nil
}
